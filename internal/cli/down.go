// Package cli — down.go implements the "dashlaunch down" command.
//
// Down finds dashboard containers by their dashlaunch.* labels and stops
// and removes them. It only applies to container-mode launches; a
// foreground "up" is stopped with Ctrl-C.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/open-oversight/dashlaunch/internal/container"
	"github.com/open-oversight/dashlaunch/internal/model"
)

// NewDownCommand creates the "down" cobra command.
func NewDownCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Stop and remove the dashboard container",
		Long: `Stop and remove containers started with "dashlaunch up --container".
Containers are found by their dashlaunch labels; nothing else on the host
is touched.

Examples:
  dashlaunch down
  dashlaunch down --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runDown(cmd.Context())
		},
	}

	return cmd
}

// runDown is the main logic function for the down command.
func runDown(ctx context.Context) error {
	cli, err := container.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return err
	}
	VerboseLog("Connected to Docker daemon")

	managed, err := container.ListManaged(ctx, cli)
	if err != nil {
		return err
	}

	if len(managed) == 0 {
		printDownResult(nil)
		return nil
	}

	removed := make([]model.ContainerInfo, 0, len(managed))
	for _, c := range managed {
		VerboseLog("Removing container %s (%s)...", c.ContainerName, c.ContainerID[:12])
		if err := container.StopAndRemove(ctx, cli, c.ContainerID); err != nil {
			return err
		}
		removed = append(removed, c)
	}

	printDownResult(removed)
	return nil
}

// downEntry pairs a removed container with the host port its removal frees
// up, recovered from the container's labels.
type downEntry struct {
	Name string `json:"name"`
	Port int    `json:"port,omitempty"`
}

// downEntries builds the report rows for the removed containers. A missing
// or malformed port label leaves the port at zero rather than failing the
// removal report.
func downEntries(removed []model.ContainerInfo) []downEntry {
	entries := make([]downEntry, 0, len(removed))
	for _, c := range removed {
		entry := downEntry{Name: c.ContainerName}
		if port, err := container.PortFromLabels(c.Labels); err == nil {
			entry.Port = port
		}
		entries = append(entries, entry)
	}
	return entries
}

// printDownResult outputs the removal result in text or JSON format.
func printDownResult(removed []model.ContainerInfo) {
	entries := downEntries(removed)

	if IsJSONOutput() {
		result := struct {
			Removed []downEntry `json:"removed"`
		}{entries}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	if len(entries) == 0 {
		fmt.Println("No dashboard containers found.")
		return
	}
	for _, e := range entries {
		if e.Port > 0 {
			fmt.Printf("Removed %s (port %d freed)\n", e.Name, e.Port)
		} else {
			fmt.Printf("Removed %s\n", e.Name)
		}
	}
}
