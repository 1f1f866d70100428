// Package cli — doctor.go implements the "dashlaunch doctor" command.
//
// Doctor reports what up would find without launching anything: the
// resolved project root, the Python environment (virtualenv or ambient,
// with version), and the presence of each required package. With
// --install, missing packages are installed the same way up does it —
// one batched pip invocation.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/open-oversight/dashlaunch/internal/config"
	"github.com/open-oversight/dashlaunch/internal/deps"
	"github.com/open-oversight/dashlaunch/internal/model"
	"github.com/open-oversight/dashlaunch/internal/pyenv"
)

// doctorOptions holds the flag values for the doctor command.
type doctorOptions struct {
	root    string
	install bool
}

// NewDoctorCommand creates the "doctor" cobra command.
func NewDoctorCommand() *cobra.Command {
	opts := &doctorOptions{}

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the Python environment and required packages",
		Long: `Report the environment a launch would use: project root, interpreter
(virtualenv or ambient), and whether each required package is importable.

Nothing is modified unless --install is given, in which case missing
packages are installed in a single pip invocation.

Examples:
  dashlaunch doctor
  dashlaunch doctor --install
  dashlaunch doctor --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.root, "root", "", "Project root (default: directory containing the launcher)")
	cmd.Flags().BoolVar(&opts.install, "install", false, "Install missing packages")

	return cmd
}

// doctorReport is the aggregate diagnosis, shared by the text and JSON
// output paths.
type doctorReport struct {
	Root      string          `json:"root"`
	Env       model.PythonEnv `json:"env"`
	Packages  []deps.Status   `json:"packages"`
	Installed []string        `json:"installed,omitempty"`
}

// runDoctor is the main logic function for the doctor command.
func runDoctor(ctx context.Context, opts *doctorOptions) error {
	root, err := config.ResolveRoot(opts.root)
	if err != nil {
		return err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	resolver := pyenv.NewResolver()
	env, err := resolver.Resolve(root)
	if err != nil {
		return err
	}
	// Version probe failures are reported, not fatal — doctor should
	// still show the rest of the diagnosis.
	if err := resolver.ProbeVersion(ctx, env); err != nil {
		VerboseLog("version probe failed: %v", err)
	}

	checker := deps.NewChecker(env.Interpreter)
	statuses, err := checker.Report(ctx, cfg.Requirements)
	if err != nil {
		return err
	}

	report := doctorReport{Root: root, Env: *env, Packages: statuses}

	if opts.install {
		var missing []model.Requirement
		for _, s := range statuses {
			if !s.Present {
				missing = append(missing, s.Requirement)
			}
		}
		if len(missing) > 0 {
			if err := checker.Install(ctx, missing); err != nil {
				return err
			}
			for i, s := range statuses {
				if !s.Present {
					report.Installed = append(report.Installed, s.Requirement.Package)
					statuses[i].Present = true
				}
			}
		}
	}

	printDoctorReport(&report)
	return nil
}

// printDoctorReport outputs the diagnosis in text or JSON format.
func printDoctorReport(report *doctorReport) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Project root: %s\n", report.Root)
	if report.Env.Activated() {
		fmt.Printf("Environment:  virtualenv at %s\n", report.Env.VenvDir)
	} else {
		fmt.Println("Environment:  ambient interpreter (no virtualenv found)")
	}
	fmt.Printf("Interpreter:  %s", report.Env.Interpreter)
	if report.Env.Version != "" {
		fmt.Printf(" (%s)", report.Env.Version)
	}
	fmt.Println()

	fmt.Println()
	fmt.Println("  Packages:")
	missing := 0
	for _, s := range report.Packages {
		mark := "ok"
		if !s.Present {
			mark = "MISSING"
			missing++
		}
		fmt.Printf("    %-12s %s\n", s.Requirement.Package, mark)
	}

	if len(report.Installed) > 0 {
		fmt.Printf("\nInstalled: %v\n", report.Installed)
	} else if missing > 0 {
		fmt.Printf("\n%d package(s) missing — run \"dashlaunch doctor --install\"\n", missing)
	}
}
