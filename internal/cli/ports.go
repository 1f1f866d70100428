// Package cli — ports.go implements the "dashlaunch ports" command.
//
// It probes the default port and every fallback, shows which are occupied,
// and reports the port up would select right now. The probe is the same
// bind test the launch pipeline uses, so the answer matches what up
// would do — modulo whatever binds a port between the two invocations.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/open-oversight/dashlaunch/internal/config"
	"github.com/open-oversight/dashlaunch/internal/model"
	"github.com/open-oversight/dashlaunch/internal/port"
)

// NewPortsCommand creates the "ports" cobra command.
func NewPortsCommand() *cobra.Command {
	var rootFlag string

	cmd := &cobra.Command{
		Use:   "ports",
		Short: "Show availability of the default and fallback ports",
		Long: `Probe the configured default port and each fallback, in the order a
launch would try them, and report which are free.

Examples:
  dashlaunch ports
  dashlaunch ports --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runPorts(rootFlag)
		},
	}

	cmd.Flags().StringVar(&rootFlag, "root", "", "Project root (default: directory containing the launcher)")

	return cmd
}

// portStatus is one row of the availability table.
type portStatus struct {
	Port      int  `json:"port"`
	Default   bool `json:"default"`
	Available bool `json:"available"`
}

// portTable probes the given ports (first one is the default) and builds
// the availability rows from a single occupied-port scan.
func portTable(scanner *port.Scanner, ports []int) []portStatus {
	used := make(map[int]bool)
	for _, p := range scanner.UsedPorts(ports) {
		used[p] = true
	}

	statuses := make([]portStatus, 0, len(ports))
	for i, p := range ports {
		statuses = append(statuses, portStatus{
			Port:      p,
			Default:   i == 0,
			Available: !used[p],
		})
	}
	return statuses
}

// runPorts is the main logic function for the ports command.
func runPorts(rootFlag string) error {
	root, err := config.ResolveRoot(rootFlag)
	if err != nil {
		return err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	scanner := port.NewScanner()
	statuses := portTable(scanner, cfg.AllPorts())

	// Report what up would select right now. Exhaustion is informational
	// here, not fatal — the command's job is to show the table.
	selected := 0
	plan, err := port.NewSelector(scanner).Select(cfg.Port, cfg.FallbackPorts)
	if err != nil {
		var cliErr *model.CLIError
		if !errors.As(err, &cliErr) || cliErr.Code != model.ExitNoFreePort {
			return err
		}
	} else {
		selected = plan.Port
	}

	printPortsResult(statuses, selected)
	return nil
}

// printPortsResult outputs the availability table in text or JSON format.
func printPortsResult(statuses []portStatus, selected int) {
	if IsJSONOutput() {
		result := struct {
			Ports    []portStatus `json:"ports"`
			Selected int          `json:"selected,omitempty"`
		}{statuses, selected}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Println("  Ports:")
	for _, s := range statuses {
		state := "available"
		if !s.Available {
			state = "in use"
		}
		marker := " "
		if s.Default {
			marker = "*"
		}
		fmt.Printf("   %s %-6d %s\n", marker, s.Port, state)
	}
	fmt.Println()
	if selected > 0 {
		fmt.Printf("A launch now would use port %d.\n", selected)
	} else {
		fmt.Println("All configured ports are in use — a launch now would fail.")
	}
}
