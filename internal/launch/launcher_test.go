package launch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/open-oversight/dashlaunch/internal/model"
)

// testSpec builds a LaunchSpec over a temp project tree whose "interpreter"
// is a shell script with the given body. The script runs with the app
// directory as cwd and the assembled child environment, so bodies can
// inspect both. Returns the spec and the project root.
func testSpec(t *testing.T, scriptBody string) *model.LaunchSpec {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake interpreter script requires a POSIX shell")
	}

	root := t.TempDir()
	appDir := filepath.Join(root, "web")
	require.NoError(t, os.MkdirAll(appDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(appDir, "app.py"), []byte("# flask app\n"), 0o644))

	interp := filepath.Join(root, "python")
	require.NoError(t, os.WriteFile(interp, []byte("#!/bin/sh\n"+scriptBody+"\n"), 0o755))

	return &model.LaunchSpec{
		RunID:    "test-run",
		Root:     root,
		AppDir:   appDir,
		Entry:    "app.py",
		Env:      model.PythonEnv{Kind: model.EnvAmbient, Interpreter: interp},
		Plan:     model.PortPlan{Port: 5002, Default: 5002},
		Strategy: model.StrategyDirect,
	}
}

// TestRun_CleanExit verifies a zero child exit yields nil and that the
// child receives the launcher exports and runs in the app directory.
func TestRun_CleanExit(t *testing.T) {
	spec := testSpec(t, `echo "$DASHBOARD_HOME|$DASHBOARD_PORT|$(pwd)|$1" > "$DASHBOARD_HOME/out.txt"`)
	launcher := NewLauncher(zap.NewNop())

	err := launcher.Run(context.Background(), spec, 0)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(spec.Root, "out.txt"))
	require.NoError(t, err)
	fields := strings.Split(strings.TrimSpace(string(data)), "|")
	require.Len(t, fields, 4)

	assert.Equal(t, spec.Root, fields[0], "DASHBOARD_HOME equals the project root")
	assert.Equal(t, "5002", fields[1], "DASHBOARD_PORT carries the selected port")
	assert.Equal(t, spec.AppDir, fields[2], "child runs in the app directory")
	assert.Equal(t, "app.py", fields[3], "direct strategy passes the entry point")
}

// TestRun_MirrorsChildExitCode verifies a non-zero child exit surfaces as
// a CLIError carrying the same code.
func TestRun_MirrorsChildExitCode(t *testing.T) {
	spec := testSpec(t, "exit 7")
	launcher := NewLauncher(zap.NewNop())

	err := launcher.Run(context.Background(), spec, 0)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitCode(7), cliErr.Code)
}

// TestRun_EntryPointMissing verifies a missing app.py fails with
// ExitLaunchFailed before any process is started.
func TestRun_EntryPointMissing(t *testing.T) {
	spec := testSpec(t, "exit 0")
	require.NoError(t, os.Remove(filepath.Join(spec.AppDir, "app.py")))

	err := NewLauncher(zap.NewNop()).Run(context.Background(), spec, 0)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitLaunchFailed, cliErr.Code)
}

// TestRun_BrowserOpensWhileChildRuns verifies the browser task fires with
// the planned URL when the child outlives the delay.
func TestRun_BrowserOpensWhileChildRuns(t *testing.T) {
	spec := testSpec(t, "sleep 1")
	spec.OpenBrowser = true
	spec.Plan = model.PortPlan{Port: 5003, Default: 5002, UsedFallback: true}

	var opened atomic.Value
	launcher := NewLauncher(zap.NewNop())
	launcher.opener.openURL = func(url string) error {
		opened.Store(url)
		return nil
	}

	require.NoError(t, launcher.Run(context.Background(), spec, 10*time.Millisecond))
	assert.Equal(t, "http://127.0.0.1:5003", opened.Load())
}

// TestRun_BrowserCancelledWhenChildExitsFirst verifies an early child exit
// cancels the pending browser task: Run returns promptly (the task is
// joined, not abandoned) and nothing is opened.
func TestRun_BrowserCancelledWhenChildExitsFirst(t *testing.T) {
	spec := testSpec(t, "exit 0")
	spec.OpenBrowser = true

	var calls atomic.Int32
	launcher := NewLauncher(zap.NewNop())
	launcher.opener.openURL = func(string) error {
		calls.Add(1)
		return nil
	}

	start := time.Now()
	require.NoError(t, launcher.Run(context.Background(), spec, time.Hour))
	assert.Less(t, time.Since(start), 10*time.Second, "Run must not wait out the browser delay")
	assert.Zero(t, calls.Load(), "browser must not open after the dashboard exited")
}

// TestRun_ContextCancelTerminatesChild verifies cancelling the launch
// context stops a long-running child via SIGTERM.
func TestRun_ContextCancelTerminatesChild(t *testing.T) {
	spec := testSpec(t, "sleep 60")
	launcher := NewLauncher(zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := launcher.Run(ctx, spec, 0)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 30*time.Second, "child must be terminated, not waited out")

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitGeneralError, cliErr.Code)
	assert.Contains(t, cliErr.Message, "signal")
}

// TestCommand_Inline verifies the inline strategy builds the interpreter
// one-liner importing the app object on the selected port.
func TestCommand_Inline(t *testing.T) {
	spec := &model.LaunchSpec{
		Entry:    "app.py",
		Env:      model.PythonEnv{Interpreter: "/usr/bin/python3"},
		Plan:     model.PortPlan{Port: 5004},
		Strategy: model.StrategyInline,
	}

	name, args := command(spec)
	assert.Equal(t, "/usr/bin/python3", name)
	require.Len(t, args, 2)
	assert.Equal(t, "-c", args[0])
	assert.Contains(t, args[1], "from app import app")
	assert.Contains(t, args[1], "port=5004")
	assert.Contains(t, args[1], "host='127.0.0.1'")
	assert.Contains(t, args[1], "debug=True")
}

// TestBuildEnv_Virtualenv verifies activation variables are applied on top
// of the base environment: VIRTUAL_ENV and PATH set, PYTHONHOME removed,
// launcher exports present exactly once.
func TestBuildEnv_Virtualenv(t *testing.T) {
	spec := &model.LaunchSpec{
		Root: "/proj",
		Env: model.PythonEnv{
			Kind:        model.EnvVirtual,
			Interpreter: "/proj/venv/bin/python",
			VenvDir:     "/proj/venv",
		},
		Plan: model.PortPlan{Port: 5003},
	}
	base := []string{
		"PATH=/usr/bin:/bin",
		"PYTHONHOME=/opt/python",
		"DASHBOARD_PORT=9999",
		"TERM=xterm",
	}

	env := BuildEnv(spec, base)

	assert.Equal(t, "/proj", lookupEnv(env, EnvHome))
	assert.Equal(t, "5003", lookupEnv(env, EnvPort))
	assert.Equal(t, "/proj/venv", lookupEnv(env, "VIRTUAL_ENV"))
	assert.Equal(t, "/proj/venv/bin"+string(os.PathListSeparator)+"/usr/bin:/bin", lookupEnv(env, "PATH"))
	assert.Equal(t, "xterm", lookupEnv(env, "TERM"), "unrelated variables pass through")

	counts := map[string]int{}
	for _, kv := range env {
		key, _, _ := strings.Cut(kv, "=")
		counts[key]++
	}
	assert.Equal(t, 1, counts[EnvPort], "stale export must be replaced, not duplicated")
	assert.Zero(t, counts["PYTHONHOME"], "PYTHONHOME breaks venv isolation and must be unset")
}

// TestBuildEnv_Ambient verifies ambient launches leave PATH untouched.
func TestBuildEnv_Ambient(t *testing.T) {
	spec := &model.LaunchSpec{
		Root: "/proj",
		Env:  model.PythonEnv{Kind: model.EnvAmbient, Interpreter: "/usr/bin/python3"},
		Plan: model.PortPlan{Port: 5002},
	}
	base := []string{"PATH=/usr/bin:/bin"}

	env := BuildEnv(spec, base)
	assert.Equal(t, "/usr/bin:/bin", lookupEnv(env, "PATH"))
	assert.Equal(t, "/proj", lookupEnv(env, EnvHome))
}
