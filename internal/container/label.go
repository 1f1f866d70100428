package container

import (
	"fmt"
	"strconv"
	"time"

	"github.com/open-oversight/dashlaunch/internal/model"
)

// Label key constants define the Docker labels that identify and describe
// the dashboard container. Labels are the only persistence mechanism —
// there is no state file; the down command reconstructs everything it
// needs from them.
//
// All keys share the "dashlaunch." prefix to avoid collisions with labels
// set by other tools.
const (
	// LabelPrefix is the common prefix for all dashlaunch labels.
	LabelPrefix = "dashlaunch."

	// LabelManagedBy identifies containers managed by this tool.
	// Key: "dashlaunch.managed-by", Value: always "dashlaunch".
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelRunID stores the launch run identifier.
	LabelRunID = LabelPrefix + "run-id"

	// LabelPort stores the published host port as a decimal string.
	LabelPort = LabelPrefix + "port"

	// LabelRoot stores the absolute host path of the project root that is
	// bind-mounted into the container.
	LabelRoot = LabelPrefix + "root"

	// LabelCreatedAt stores the RFC3339 timestamp of container creation.
	LabelCreatedAt = LabelPrefix + "created-at"
)

// ManagedByValue is the constant value for LabelManagedBy. It enables
// discovery via Docker API label filters.
const ManagedByValue = "dashlaunch"

// BuildLabels constructs the label map applied to the dashboard container,
// enough to identify it and explain it in `docker inspect` output.
func BuildLabels(spec *model.LaunchSpec, now time.Time) map[string]string {
	return map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelRunID:     spec.RunID,
		LabelPort:      strconv.Itoa(spec.Plan.Port),
		LabelRoot:      spec.Root,
		LabelCreatedAt: now.UTC().Format(time.RFC3339),
	}
}

// PortFromLabels recovers the published host port from a managed
// container's labels.
func PortFromLabels(labels map[string]string) (int, error) {
	raw, ok := labels[LabelPort]
	if !ok {
		return 0, fmt.Errorf("container has no %s label", LabelPort)
	}
	port, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s label %q: %w", LabelPort, raw, err)
	}
	if err := model.ValidatePort(port); err != nil {
		return 0, fmt.Errorf("invalid %s label: %w", LabelPort, err)
	}
	return port, nil
}
