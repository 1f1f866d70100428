// Package pyenv resolves the Python runtime used to run the dashboard.
//
// Resolution is two-step: first a project-local virtual environment is
// probed (venv/ then .venv/, identified by its activation script), and if
// none exists the ambient interpreter is located on PATH (python3, then
// python). The virtual environment is never "activated" by sourcing a
// script — instead the activation-equivalent environment variables
// (VIRTUAL_ENV, a PATH prepend, PYTHONHOME removal) are computed and
// injected into the child process directly.
//
// A missing virtual environment is a silent, non-fatal fallback. A missing
// interpreter altogether is fatal with ExitInterpreterNotFound.
package pyenv
