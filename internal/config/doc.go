// Package config resolves the launcher configuration for a dashboard run.
//
// Configuration is layered: compiled-in defaults first, then an optional
// project-level config file. The file is probed in priority order as
// dashlaunch.json, dashlaunch.jsonc (both parsed as JSONC, so comments and
// trailing commas are allowed), then dashlaunch.yaml. An absent file is not
// an error — the original startup scripts had all of these values
// hard-coded, and the defaults here reproduce them.
//
// The package also resolves the project root: the directory containing the
// launcher binary, unless explicitly overridden. This mirrors the "directory
// containing the script" rule of the scripts this tool replaces.
package config
