// Package model defines the domain types and value objects for the
// dashlaunch CLI.
//
// This package contains pure data structures with no external dependencies.
// All entities (Requirement, PythonEnv, PortPlan, LaunchSpec, etc.) are
// transient representations computed for a single launcher run — there are
// no persistent state files.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
