package container

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/go-connections/nat"

	"github.com/open-oversight/dashlaunch/internal/model"
)

// workspacePath is where the project root is bind-mounted inside the
// container. The dashboard sees it as its DASHBOARD_HOME.
const workspacePath = "/workspace"

// Run creates and starts the dashboard container from a launch spec.
//
// The container installs the required packages and starts the app from the
// app directory under the given image, with the project root bind-mounted
// at workspacePath and the selected port published on the loopback
// interface (host and container port numbers match, so the in-container
// bind and the host URL agree). Returns the new container's ID.
//
// Port selection happens on the host before this call; packages are
// installed inside the container because the stock Python images do not
// carry them.
func Run(ctx context.Context, cli *Client, spec *model.LaunchSpec, image string, reqs []model.Requirement) (string, error) {
	appRel, err := filepath.Rel(spec.Root, spec.AppDir)
	if err != nil {
		return "", model.WrapCLIError(model.ExitLaunchFailed,
			fmt.Sprintf("app directory %s is not under project root %s", spec.AppDir, spec.Root), err)
	}

	portStr := strconv.Itoa(spec.Plan.Port)
	containerPort, err := nat.NewPort("tcp", portStr)
	if err != nil {
		return "", model.WrapCLIError(model.ExitLaunchFailed, "invalid container port", err)
	}

	cfg := &container.Config{
		Image:      image,
		Cmd:        containerCommand(spec, reqs),
		WorkingDir: path.Join(workspacePath, filepath.ToSlash(appRel)),
		Env: []string{
			"DASHBOARD_HOME=" + workspacePath,
			"DASHBOARD_PORT=" + portStr,
		},
		ExposedPorts: nat.PortSet{containerPort: struct{}{}},
		Labels:       BuildLabels(spec, time.Now()),
	}

	hostCfg := &container.HostConfig{
		Binds: []string{spec.Root + ":" + workspacePath},
		PortBindings: nat.PortMap{
			containerPort: []nat.PortBinding{
				{HostIP: "127.0.0.1", HostPort: portStr},
			},
		},
	}

	name := containerName(spec.RunID)
	created, err := cli.Inner().ContainerCreate(ctx, cfg, hostCfg, nil, nil, name)
	if err != nil {
		return "", model.WrapCLIError(model.ExitDockerNotAvailable,
			fmt.Sprintf("failed to create container %q", name), err)
	}

	if err := cli.Inner().ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return "", model.WrapCLIError(model.ExitDockerNotAvailable,
			fmt.Sprintf("failed to start container %q", name), err)
	}

	return created.ID, nil
}

// containerCommand builds the in-container command line: install the
// required packages, then start the app inline on the selected port bound
// to all interfaces. Docker's port publish targets the container's eth0,
// so a loopback-only bind would leave the published port unreachable; the
// entry point's own __main__ block binds loopback on its compiled-in port,
// which is why it is bypassed here even for direct-strategy launches.
func containerCommand(spec *model.LaunchSpec, reqs []model.Requirement) []string {
	module := strings.TrimSuffix(spec.Entry, ".py")
	run := fmt.Sprintf(
		`python -c "from %s import app; app.run(host='0.0.0.0', port=%d, debug=True)"`,
		module, spec.Plan.Port,
	)
	if len(reqs) > 0 {
		packages := make([]string, len(reqs))
		for i, req := range reqs {
			packages[i] = req.Package
		}
		run = "python -m pip install " + strings.Join(packages, " ") + " && " + run
	}
	return []string{"sh", "-c", run}
}

// ListManaged queries the Docker daemon for all containers carrying the
// dashlaunch management label, including stopped ones (a stopped dashboard
// container still needs to show up for down to remove it).
func ListManaged(ctx context.Context, cli *Client) ([]model.ContainerInfo, error) {
	filterArgs := filters.NewArgs(
		filters.Arg("label", LabelManagedBy+"="+ManagedByValue),
	)

	containers, err := cli.Inner().ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return nil, model.WrapCLIError(model.ExitDockerNotAvailable,
			"failed to list Docker containers", err)
	}

	result := make([]model.ContainerInfo, 0, len(containers))
	for _, c := range containers {
		// Docker returns names with a leading "/" API artifact.
		name := ""
		if len(c.Names) > 0 {
			name = strings.TrimPrefix(c.Names[0], "/")
		}
		result = append(result, model.ContainerInfo{
			ContainerID:   c.ID,
			ContainerName: name,
			Status:        c.State,
			Labels:        c.Labels,
		})
	}
	return result, nil
}

// StopAndRemove stops a managed container (graceful SIGTERM with Docker's
// default timeout, then SIGKILL) and removes it.
func StopAndRemove(ctx context.Context, cli *Client, containerID string) error {
	if err := cli.Inner().ContainerStop(ctx, containerID, container.StopOptions{}); err != nil {
		return model.WrapCLIError(model.ExitDockerNotAvailable,
			fmt.Sprintf("failed to stop container %q", containerID), err)
	}
	if err := cli.Inner().ContainerRemove(ctx, containerID, container.RemoveOptions{}); err != nil {
		return model.WrapCLIError(model.ExitDockerNotAvailable,
			fmt.Sprintf("failed to remove container %q", containerID), err)
	}
	return nil
}

// containerName derives a stable, unique container name from the run ID.
// Only the first UUID group is kept; full UUIDs make docker ps unreadable.
func containerName(runID string) string {
	short := runID
	if i := strings.IndexByte(runID, '-'); i > 0 {
		short = runID[:i]
	}
	return "dashlaunch-" + short
}
