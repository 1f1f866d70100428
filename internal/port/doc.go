// Package port implements TCP port availability scanning and default-plus-
// fallback port selection for the dashboard launcher.
//
// The Scanner verifies OS-level availability via net.Listen: a port counts
// as available only when the OS actually grants a listener on it, so probe
// errors of any kind count as "in use". This is deliberately stricter than
// the startup scripts this tool replaces, which treated lookup failures as
// "port available".
//
// The Selector tries the configured default port first, then walks the
// ordered fallback list, returning the first available port. The check is
// advisory: nothing holds the port between the probe and the dashboard's
// own bind, so a time-of-check/time-of-use window remains.
package port
