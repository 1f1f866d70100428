package launch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/open-oversight/dashlaunch/internal/model"
	"github.com/open-oversight/dashlaunch/internal/pyenv"
)

// Environment variable names exported to the dashboard process.
const (
	// EnvHome carries the resolved project root. It always equals the
	// directory the launcher resolved as root, regardless of the caller's
	// working directory.
	EnvHome = "DASHBOARD_HOME"

	// EnvPort carries the selected TCP port for the entry point to read.
	EnvPort = "DASHBOARD_PORT"
)

// NewLogger builds the structured logger for the launch runtime.
// Production config by default; verbose switches the level to debug.
func NewLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// Launcher starts and supervises the dashboard process described by a
// model.LaunchSpec.
type Launcher struct {
	logger *zap.Logger
	opener *Opener
}

// NewLauncher creates a Launcher logging through the given zap logger.
func NewLauncher(logger *zap.Logger) *Launcher {
	return &Launcher{
		logger: logger,
		opener: NewOpener(logger),
	}
}

// Run executes the launch plan and blocks until the dashboard process
// exits. The launcher's exit status mirrors the child's: a clean child
// exit returns nil, a non-zero child exit returns a CLIError carrying the
// same code.
//
// SIGINT and SIGTERM received while the child runs are forwarded to its
// process group, so Ctrl-C in the terminal stops the dashboard and any
// helpers it forked rather than orphaning them. Cancelling ctx terminates
// the child with SIGTERM.
func (l *Launcher) Run(ctx context.Context, spec *model.LaunchSpec, browserDelay time.Duration) error {
	if err := spec.Validate(); err != nil {
		return model.WrapCLIError(model.ExitLaunchFailed, "invalid launch plan", err)
	}

	entryPath := filepath.Join(spec.AppDir, spec.Entry)
	if _, err := os.Stat(entryPath); err != nil {
		return model.WrapCLIError(model.ExitLaunchFailed,
			fmt.Sprintf("dashboard entry point not found: %s", entryPath), err)
	}

	name, args := command(spec)

	// #nosec G204 — the interpreter path comes from pyenv resolution and the
	// arguments from validated config, not raw user input
	cmd := exec.Command(name, args...)
	cmd.Dir = spec.AppDir
	cmd.Env = BuildEnv(spec, os.Environ())
	// The dashboard owns the terminal: Flask logs requests to stderr and
	// the debugger prompts on stdin.
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	configureProcGroup(cmd)

	if err := cmd.Start(); err != nil {
		return model.WrapCLIError(model.ExitLaunchFailed, "failed to start dashboard process", err)
	}

	l.logger.Info("dashboard started",
		zap.String("runId", spec.RunID),
		zap.Int("pid", cmd.Process.Pid),
		zap.Int("port", spec.Plan.Port),
		zap.Bool("fallbackPort", spec.Plan.UsedFallback),
		zap.String("interpreter", spec.Env.Interpreter),
		zap.String("env", spec.Env.Kind.String()),
		zap.String("strategy", spec.Strategy.String()),
	)

	// taskCtx governs the background tasks (browser opener, signal
	// forwarder). It is cancelled as soon as the child exits, and both
	// tasks are joined before Run returns.
	taskCtx, cancelTasks := context.WithCancel(ctx)
	defer cancelTasks()

	var g errgroup.Group

	if spec.OpenBrowser {
		g.Go(func() error {
			l.opener.OpenAfter(taskCtx, browserDelay, spec.Plan.URL())
			return nil
		})
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	g.Go(func() error {
		defer signal.Stop(sigCh)
		for {
			select {
			case sig := <-sigCh:
				l.logger.Info("forwarding signal to dashboard", zap.String("signal", sig.String()))
				_ = signalProcess(cmd.Process, sig)
			case <-ctx.Done():
				// Parent context cancelled: ask the child to shut down.
				_ = signalProcess(cmd.Process, syscall.SIGTERM)
				return nil
			case <-taskCtx.Done():
				return nil
			}
		}
	})

	waitErr := cmd.Wait()
	cancelTasks()
	_ = g.Wait()

	return l.exitStatus(spec, waitErr)
}

// exitStatus translates the child's wait result into the launcher's own
// error value, mirroring the child's exit code.
func (l *Launcher) exitStatus(spec *model.LaunchSpec, waitErr error) error {
	if waitErr == nil {
		l.logger.Info("dashboard exited cleanly", zap.String("runId", spec.RunID))
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		code := exitErr.ExitCode()
		if code < 0 {
			// Terminated by a signal (typically one we forwarded).
			l.logger.Info("dashboard terminated by signal", zap.String("runId", spec.RunID))
			return model.WrapCLIError(model.ExitGeneralError, "dashboard terminated by signal", waitErr)
		}
		l.logger.Warn("dashboard exited with error",
			zap.String("runId", spec.RunID), zap.Int("exitCode", code))
		return model.WrapCLIError(model.ExitCode(code),
			fmt.Sprintf("dashboard exited with status %d", code), waitErr)
	}

	return model.WrapCLIError(model.ExitLaunchFailed, "dashboard process failed", waitErr)
}

// command builds the argv for the configured launch strategy.
//
// Direct runs the entry point script and lets it read EnvPort itself.
// Inline bypasses the script's __main__ block: it imports the application
// object and starts it bound to localhost on the selected port in debug
// mode, reproducing the platform variant that launched the app through an
// interpreter one-liner.
func command(spec *model.LaunchSpec) (string, []string) {
	switch spec.Strategy {
	case model.StrategyInline:
		module := strings.TrimSuffix(spec.Entry, ".py")
		script := fmt.Sprintf(
			"from %s import app; app.run(host='127.0.0.1', port=%d, debug=True)",
			module, spec.Plan.Port,
		)
		return spec.Env.Interpreter, []string{"-c", script}
	default:
		return spec.Env.Interpreter, []string{spec.Entry}
	}
}

// BuildEnv assembles the child process environment: the parent environment
// with the launcher exports (EnvHome, EnvPort) and the virtualenv
// activation variables applied on top. Variables being set or unset are
// removed from the base first so the child sees exactly one value.
func BuildEnv(spec *model.LaunchSpec, base []string) []string {
	set, unset := pyenv.ActivationEnv(&spec.Env, lookupEnv(base, "PATH"))
	set[EnvHome] = spec.Root
	set[EnvPort] = strconv.Itoa(spec.Plan.Port)

	drop := make(map[string]bool, len(set)+len(unset))
	for k := range set {
		drop[k] = true
	}
	for _, k := range unset {
		drop[k] = true
	}

	env := make([]string, 0, len(base)+len(set))
	for _, kv := range base {
		if key, _, ok := strings.Cut(kv, "="); ok && drop[key] {
			continue
		}
		env = append(env, kv)
	}
	for k, v := range set {
		env = append(env, k+"="+v)
	}
	return env
}

// lookupEnv finds a key in an os.Environ-style slice.
func lookupEnv(environ []string, key string) string {
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok && k == key {
			return v
		}
	}
	return ""
}
