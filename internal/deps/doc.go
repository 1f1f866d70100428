// Package deps verifies that the dashboard's required Python packages are
// importable and installs the missing ones.
//
// Presence is checked the same way the startup script did: one
// "python -c 'import <module>'" subprocess per requirement, where a
// non-zero exit means the package is absent. Probes run concurrently with
// a small bound since each one pays full interpreter startup cost.
//
// Missing packages are installed in a single batched "python -m pip
// install" invocation. Installer failure is fatal to the launch — there is
// no retry or partial-success handling.
package deps
