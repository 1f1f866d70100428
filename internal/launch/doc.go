// Package launch runs the dashboard process and supervises it until exit.
//
// It assembles the child environment (DASHBOARD_HOME, DASHBOARD_PORT, and
// the virtualenv activation variables), starts the Flask entry point in
// the app directory, forwards SIGINT/SIGTERM to the child, and mirrors the
// child's exit status.
//
// The delayed browser-open runs as an explicitly spawned, cancellable task
// tied to the launch: it is cancelled when the child exits before the
// delay elapses and is always joined before Run returns, so it can never
// outlive the launcher.
package launch
