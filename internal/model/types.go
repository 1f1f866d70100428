// Package model defines the domain types for the dashlaunch CLI.
//
// All values in this package describe a single launcher run: which Python
// interpreter will be used, which packages must be importable, which TCP
// port the dashboard will bind, and how the process will be started.
package model

import (
	"fmt"
	"regexp"
	"strings"
)

// EnvKind describes where the Python interpreter running the dashboard
// comes from.
type EnvKind string

const (
	// EnvVirtual indicates a project-local virtual environment was found
	// and its interpreter is used directly (activation-equivalent variables
	// are injected into the child process).
	EnvVirtual EnvKind = "virtualenv"

	// EnvAmbient indicates no virtual environment exists and the launcher
	// fell back to an interpreter found on PATH. This fallback is silent
	// and non-fatal, mirroring best-effort activation.
	EnvAmbient EnvKind = "ambient"
)

// String returns the string representation of EnvKind.
// This method satisfies the fmt.Stringer interface, enabling
// human-readable output in CLI commands and logging.
func (k EnvKind) String() string {
	return string(k)
}

// IsValid checks whether the EnvKind value is one of the predefined kinds.
func (k EnvKind) IsValid() bool {
	switch k {
	case EnvVirtual, EnvAmbient:
		return true
	default:
		return false
	}
}

// PythonEnv is the resolved Python runtime for a launch: the interpreter
// binary to invoke, where it came from, and (for virtual environments)
// the environment variables equivalent to sourcing the activate script.
type PythonEnv struct {
	// Kind records whether this is a virtualenv or the ambient interpreter.
	Kind EnvKind `json:"kind"`

	// Interpreter is the path to the python binary. For virtual
	// environments this is absolute; for ambient interpreters it is
	// whatever exec.LookPath resolved on PATH.
	Interpreter string `json:"interpreter"`

	// VenvDir is the absolute path to the virtual environment root.
	// Empty for ambient interpreters.
	VenvDir string `json:"venvDir,omitempty"`

	// Version is the interpreter version string (e.g., "Python 3.11.4")
	// when it has been probed. Empty until probed.
	Version string `json:"version,omitempty"`
}

// Activated returns true when the environment is a virtual environment.
func (e *PythonEnv) Activated() bool {
	return e.Kind == EnvVirtual
}

// Requirement pairs a pip package name with the module name used to verify
// it is importable. The two frequently differ (e.g., package "flask-cors"
// imports as "flask_cors").
type Requirement struct {
	// Package is the name passed to pip install.
	Package string `json:"package"`

	// Module is the name passed to "python -c 'import <Module>'".
	Module string `json:"module"`
}

// String returns "package (import module)" for display, collapsing to
// just the package name when the two match.
func (r Requirement) String() string {
	if r.Package == r.Module {
		return r.Package
	}
	return fmt.Sprintf("%s (import %s)", r.Package, r.Module)
}

// moduleRegex validates Python module names: dotted identifiers.
var moduleRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// packageRegex validates pip package names per the PyPI naming rules.
var packageRegex = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9])?$`)

// Validate checks that both names are well formed. Both are interpolated
// into command lines (pip install arguments and an interpreter import
// one-liner), so malformed values are rejected here rather than passed
// through.
func (r Requirement) Validate() error {
	if strings.TrimSpace(r.Package) == "" {
		return fmt.Errorf("requirement: package name must not be empty")
	}
	if !packageRegex.MatchString(r.Package) {
		return fmt.Errorf("requirement: invalid package name %q", r.Package)
	}
	if !moduleRegex.MatchString(r.Module) {
		return fmt.Errorf("requirement %q: invalid import module name %q", r.Package, r.Module)
	}
	return nil
}

// PortPlan is the outcome of port selection: the port the dashboard will
// bind, plus enough context to explain the choice to the user.
type PortPlan struct {
	// Port is the selected TCP port.
	Port int `json:"port"`

	// Default is the preferred port that was tried first.
	Default int `json:"default"`

	// UsedFallback is true when the default port was occupied and Port
	// came from the fallback list.
	UsedFallback bool `json:"usedFallback"`

	// Skipped lists ports that were probed and found occupied before
	// Port was selected, in probe order.
	Skipped []int `json:"skipped,omitempty"`
}

// URL returns the loopback URL for the planned port. The dashboard binds
// 127.0.0.1, so this is the address handed to the browser opener.
func (p PortPlan) URL() string {
	return fmt.Sprintf("http://127.0.0.1:%d", p.Port)
}

// ValidatePort checks that a port number is within the valid TCP range.
func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port %d out of range (1-65535)", port)
	}
	return nil
}

// ValidatePorts checks a default port and an ordered fallback list for
// range validity and duplicates. The default appearing in the fallback
// list is also a duplicate — it would be probed twice.
func ValidatePorts(defaultPort int, fallbacks []int) error {
	if err := ValidatePort(defaultPort); err != nil {
		return err
	}
	seen := map[int]bool{defaultPort: true}
	for _, p := range fallbacks {
		if err := ValidatePort(p); err != nil {
			return err
		}
		if seen[p] {
			return fmt.Errorf("duplicate port %d in fallback list", p)
		}
		seen[p] = true
	}
	return nil
}

// LaunchStrategy selects how the Flask entry point is started.
type LaunchStrategy string

const (
	// StrategyDirect runs the entry point script: "python app.py".
	// The script reads DASHBOARD_PORT from its environment.
	StrategyDirect LaunchStrategy = "direct"

	// StrategyInline imports the application object and starts it bound
	// to localhost on the resolved port in debug mode, without relying
	// on the script's own __main__ block.
	StrategyInline LaunchStrategy = "inline"
)

// String returns the string representation of LaunchStrategy.
func (s LaunchStrategy) String() string {
	return string(s)
}

// IsValid checks whether the LaunchStrategy is one of the known strategies.
func (s LaunchStrategy) IsValid() bool {
	switch s {
	case StrategyDirect, StrategyInline:
		return true
	default:
		return false
	}
}

// ParseLaunchStrategy converts a string to a LaunchStrategy.
// Returns an error if the string does not match any known strategy.
func ParseLaunchStrategy(s string) (LaunchStrategy, error) {
	strategy := LaunchStrategy(strings.ToLower(s))
	if !strategy.IsValid() {
		return "", fmt.Errorf("invalid launch strategy: %q (valid: direct, inline)", s)
	}
	return strategy, nil
}

// LaunchSpec is the fully resolved plan for starting the dashboard
// process. It is assembled by the up command from config, pyenv, and
// port selection, then handed to the launch runtime.
type LaunchSpec struct {
	// RunID uniquely identifies this launch for logging and container
	// labeling.
	RunID string `json:"runId"`

	// Root is the absolute project root directory. The child process
	// receives it as DASHBOARD_HOME regardless of the caller's cwd.
	Root string `json:"root"`

	// AppDir is the absolute directory containing the entry point.
	// It becomes the child's working directory.
	AppDir string `json:"appDir"`

	// Entry is the entry point file name within AppDir (e.g., "app.py").
	Entry string `json:"entry"`

	// Env is the resolved Python environment.
	Env PythonEnv `json:"env"`

	// Plan is the selected port.
	Plan PortPlan `json:"plan"`

	// Strategy selects direct or inline startup.
	Strategy LaunchStrategy `json:"strategy"`

	// OpenBrowser schedules the delayed browser-open task when true.
	OpenBrowser bool `json:"openBrowser"`
}

// Validate checks the spec for internally consistent, launchable values.
func (s *LaunchSpec) Validate() error {
	if s.Root == "" {
		return fmt.Errorf("launch spec: project root must not be empty")
	}
	if s.AppDir == "" {
		return fmt.Errorf("launch spec: app directory must not be empty")
	}
	if s.Entry == "" {
		return fmt.Errorf("launch spec: entry point must not be empty")
	}
	if s.Env.Interpreter == "" {
		return fmt.Errorf("launch spec: interpreter must not be empty")
	}
	if !s.Strategy.IsValid() {
		return fmt.Errorf("launch spec: invalid strategy %q", s.Strategy)
	}
	return ValidatePort(s.Plan.Port)
}

// ContainerInfo holds runtime information about a Docker container that
// dashlaunch manages. This data is fetched from the Docker API, not
// persisted anywhere else.
type ContainerInfo struct {
	// ContainerID is the unique Docker container identifier.
	ContainerID string `json:"containerId"`

	// ContainerName is the human-readable Docker container name.
	ContainerName string `json:"containerName"`

	// Status is the Docker container status (e.g., "running", "exited").
	Status string `json:"status"`

	// Labels is the full set of Docker labels on the container,
	// including the dashlaunch.* management labels.
	Labels map[string]string `json:"labels,omitempty"`
}

// ExitCode defines standard CLI exit codes. These codes allow wrapper
// scripts and CI systems to programmatically determine why a launch
// did not happen.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitInterpreterNotFound indicates no Python interpreter could be
	// resolved — neither a virtual environment nor python3/python on PATH.
	ExitInterpreterNotFound ExitCode = 2

	// ExitDependencyInstallFailed indicates required packages were missing
	// and the batched pip install did not succeed.
	ExitDependencyInstallFailed ExitCode = 3

	// ExitNoFreePort indicates the default port and every fallback port
	// were occupied; the dashboard was not launched.
	ExitNoFreePort ExitCode = 4

	// ExitLaunchFailed indicates the entry point was missing or the
	// dashboard process could not be started.
	ExitLaunchFailed ExitCode = 5

	// ExitDockerNotAvailable indicates container mode was requested but
	// the Docker daemon is not reachable.
	ExitDockerNotAvailable ExitCode = 6
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
// This follows Go's error wrapping convention introduced in Go 1.13.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
