// Package cli — up.go implements the "dashlaunch up" command.
//
// The up command is the launch pipeline: resolve the project root and
// config, resolve the Python environment (virtualenv or ambient), verify
// and install missing packages, select a free port, then start and
// supervise the dashboard process. With --container the dashboard runs in
// Docker instead of under a host interpreter.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/open-oversight/dashlaunch/internal/config"
	"github.com/open-oversight/dashlaunch/internal/container"
	"github.com/open-oversight/dashlaunch/internal/deps"
	"github.com/open-oversight/dashlaunch/internal/launch"
	"github.com/open-oversight/dashlaunch/internal/model"
	"github.com/open-oversight/dashlaunch/internal/port"
	"github.com/open-oversight/dashlaunch/internal/pyenv"
)

// upOptions holds the flag values for the up command.
type upOptions struct {
	root        string
	port        int
	noBrowser   bool
	skipDeps    bool
	inContainer bool
}

// NewUpCommand creates the "up" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewUpCommand() *cobra.Command {
	opts := &upOptions{}

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Start the dashboard",
		Long: `Start the dashboard: resolve the Python environment, verify required
packages, pick a free port (default first, then the fallback list), and run
the Flask entry point in the foreground. Ctrl-C stops the dashboard.

With --container the dashboard runs detached inside a Docker container
built from the configured Python image, with the project root mounted,
the required packages installed at start, and the selected port published
on localhost.

Examples:
  dashlaunch up
  dashlaunch up --port 8080 --no-browser
  dashlaunch up --container`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runUp(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.root, "root", "", "Project root (default: directory containing the launcher)")
	cmd.Flags().IntVar(&opts.port, "port", 0, "Preferred port (overrides config)")
	cmd.Flags().BoolVar(&opts.noBrowser, "no-browser", false, "Do not open the browser")
	cmd.Flags().BoolVar(&opts.skipDeps, "skip-deps", false, "Skip the dependency presence check")
	cmd.Flags().BoolVar(&opts.inContainer, "container", false, "Run the dashboard in a Docker container")

	return cmd
}

// runUp is the main logic function for the up command.
func runUp(ctx context.Context, opts *upOptions) error {
	// Step 1: Resolve the project root and configuration.
	root, err := config.ResolveRoot(opts.root)
	if err != nil {
		return err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}
	if err := applyPortOverride(cfg, opts.port); err != nil {
		return err
	}
	VerboseLog("Project root: %s", root)

	// Step 2: Resolve the Python environment. A missing virtualenv is a
	// silent fallback to the ambient interpreter; only a host with no
	// Python at all fails here.
	env, err := pyenv.NewResolver().Resolve(root)
	if err != nil {
		return err
	}
	VerboseLog("Python environment: %s (%s)", env.Kind, env.Interpreter)

	// Step 3: Verify dependencies. Skipped in container mode, where the
	// container installs the required packages itself at start.
	if !opts.skipDeps && !opts.inContainer {
		checker := deps.NewChecker(env.Interpreter)
		installed, err := checker.Ensure(ctx, cfg.Requirements)
		if err != nil {
			return err
		}
		if len(installed) > 0 {
			VerboseLog("Installed %d missing package(s)", len(installed))
		} else {
			VerboseLog("All %d required packages present", len(cfg.Requirements))
		}
	}

	// Step 4: Select the port — default first, then the fallback list.
	// All occupied is fatal with ExitNoFreePort; nothing is launched.
	plan, err := port.NewSelector(port.NewScanner()).Select(cfg.Port, cfg.FallbackPorts)
	if err != nil {
		return err
	}
	if plan.UsedFallback {
		VerboseLog("Port %d in use, selected fallback %d", plan.Default, plan.Port)
	}

	// Step 5: Assemble the launch spec.
	spec := &model.LaunchSpec{
		RunID:       uuid.NewString(),
		Root:        root,
		AppDir:      filepath.Join(root, cfg.AppDir),
		Entry:       cfg.Entry,
		Env:         *env,
		Plan:        *plan,
		Strategy:    cfg.Strategy,
		OpenBrowser: cfg.OpenBrowser && !opts.noBrowser,
	}

	if opts.inContainer {
		return runUpContainer(ctx, spec, cfg)
	}

	printUpResult(spec)

	// Step 6: Run and supervise. Run blocks until the dashboard exits and
	// mirrors its exit status.
	logger, err := launch.NewLogger(verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	return launch.NewLauncher(logger).Run(ctx, spec, cfg.BrowserDelay)
}

// runUpContainer starts the dashboard detached in a Docker container,
// then optionally opens the browser after the configured delay.
func runUpContainer(ctx context.Context, spec *model.LaunchSpec, cfg *config.Config) error {
	cli, err := container.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return err
	}
	VerboseLog("Connected to Docker daemon")

	containerID, err := container.Run(ctx, cli, spec, cfg.ContainerImage, cfg.Requirements)
	if err != nil {
		return err
	}
	VerboseLog("Started container %s", containerID[:12])

	printUpContainerResult(spec, containerID)

	if spec.OpenBrowser {
		logger, err := launch.NewLogger(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()
		// The container keeps running after we return, so the opener runs
		// synchronously here rather than as a background task.
		launch.NewOpener(logger).OpenAfter(ctx, cfg.BrowserDelay, spec.Plan.URL())
	}
	return nil
}

// applyPortOverride replaces the configured default port with the --port
// flag value. The override is also dropped from the fallback list so it is
// not probed twice.
func applyPortOverride(cfg *config.Config, override int) error {
	if override == 0 {
		return nil
	}
	if err := model.ValidatePort(override); err != nil {
		return err
	}

	fallbacks := make([]int, 0, len(cfg.FallbackPorts))
	for _, p := range cfg.FallbackPorts {
		if p != override {
			fallbacks = append(fallbacks, p)
		}
	}
	cfg.Port = override
	cfg.FallbackPorts = fallbacks
	return nil
}

// printUpResult announces the imminent launch in text or JSON format.
func printUpResult(spec *model.LaunchSpec) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(spec, "", "  ")
		fmt.Println(string(data))
		return
	}

	if spec.Plan.UsedFallback {
		fmt.Printf("Port %d is in use — using %d instead\n", spec.Plan.Default, spec.Plan.Port)
	}
	fmt.Printf("Starting dashboard at %s (%s)\n", spec.Plan.URL(), spec.Env.Kind)
}

// printUpContainerResult reports the detached container launch.
func printUpContainerResult(spec *model.LaunchSpec, containerID string) {
	if IsJSONOutput() {
		result := struct {
			ContainerID string            `json:"containerId"`
			Spec        *model.LaunchSpec `json:"spec"`
		}{containerID, spec}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Dashboard container started (%s)\n", containerID[:12])
	fmt.Printf("  %s\n", spec.Plan.URL())
	fmt.Println("Run \"dashlaunch down\" to stop and remove it.")
}
