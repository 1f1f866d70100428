// Package container implements the optional containerized launch mode.
//
// Instead of running the dashboard with a host Python interpreter, "up
// --container" starts it inside a Docker container: the project root is
// bind-mounted, the selected host port is published to the same port in
// the container, and the entry point runs under the configured Python
// image. The only persisted state is the set of dashlaunch.* labels on the
// container, which the down command uses to find and remove it.
//
// The Client wrapper handles Docker socket autodetection across platforms
// (DOCKER_HOST first, then well-known socket paths) and daemon
// connectivity checks.
package container
