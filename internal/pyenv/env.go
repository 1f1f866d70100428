package pyenv

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/open-oversight/dashlaunch/internal/model"
)

// venvDirNames are the virtual environment directory candidates probed
// under the project root, in priority order.
var venvDirNames = []string{"venv", ".venv"}

// ambientNames are the interpreter names probed on PATH when no virtual
// environment exists, in priority order.
var ambientNames = []string{"python3", "python"}

// Resolver locates the Python interpreter for a project.
//
// It is stateless; all methods receive the project root as a parameter.
// The struct exists as a receiver so options (custom venv directory names,
// a pinned interpreter path) can be added without breaking callers.
type Resolver struct{}

// NewResolver creates a new Resolver instance.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve returns the Python environment for the given project root:
// a virtual environment when one exists, otherwise the ambient interpreter
// from PATH. The venv-missing case is deliberately not an error; only a
// host with no Python at all fails, with ExitInterpreterNotFound.
func (r *Resolver) Resolve(root string) (*model.PythonEnv, error) {
	if env, ok := r.FindVenv(root); ok {
		return env, nil
	}
	return r.ResolveAmbient()
}

// FindVenv probes the project root for a virtual environment and returns
// its PythonEnv when found. A directory counts as a virtual environment
// only when its platform-specific activation script exists.
func (r *Resolver) FindVenv(root string) (*model.PythonEnv, bool) {
	for _, name := range venvDirNames {
		dir := filepath.Join(root, name)
		if _, err := os.Stat(activateScript(dir)); err != nil {
			continue
		}
		interp := venvInterpreter(dir)
		if _, err := os.Stat(interp); err != nil {
			// Activation script without an interpreter is a broken venv;
			// skip it rather than failing the launch.
			continue
		}
		return &model.PythonEnv{
			Kind:        model.EnvVirtual,
			Interpreter: interp,
			VenvDir:     dir,
		}, true
	}
	return nil, false
}

// ResolveAmbient locates a Python interpreter on PATH, trying python3
// before python. Returns a CLIError with ExitInterpreterNotFound when
// neither exists.
func (r *Resolver) ResolveAmbient() (*model.PythonEnv, error) {
	for _, name := range ambientNames {
		path, err := exec.LookPath(name)
		if err != nil {
			continue
		}
		return &model.PythonEnv{
			Kind:        model.EnvAmbient,
			Interpreter: path,
		}, nil
	}
	return nil, model.NewCLIError(
		model.ExitInterpreterNotFound,
		fmt.Sprintf("no Python interpreter found (searched %s on PATH)", strings.Join(ambientNames, ", ")),
	)
}

// ProbeVersion runs "<interpreter> --version" and records the reported
// version string on the environment. Used by the doctor command; a probe
// failure is returned rather than treated as fatal so doctor can report it.
func (r *Resolver) ProbeVersion(ctx context.Context, env *model.PythonEnv) error {
	// Python 2 wrote --version to stderr, Python 3 writes to stdout;
	// CombinedOutput captures either.
	cmd := exec.CommandContext(ctx, env.Interpreter, "--version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to probe %s version: %w", env.Interpreter, err)
	}
	env.Version = strings.TrimSpace(string(output))
	return nil
}

// ActivationEnv returns the environment variable mutations equivalent to
// sourcing the virtual environment's activate script:
//
//	VIRTUAL_ENV=<venv>
//	PATH=<venv bin dir>:$PATH
//	PYTHONHOME removed
//
// The returned set/unset pairs are applied to the child process only; the
// launcher's own environment is never mutated. For ambient environments
// both maps are empty.
func ActivationEnv(env *model.PythonEnv, parentPath string) (set map[string]string, unset []string) {
	set = map[string]string{}
	if !env.Activated() {
		return set, nil
	}

	set["VIRTUAL_ENV"] = env.VenvDir
	binDir := filepath.Dir(env.Interpreter)
	if parentPath != "" {
		set["PATH"] = binDir + string(os.PathListSeparator) + parentPath
	} else {
		set["PATH"] = binDir
	}
	// PYTHONHOME overrides the interpreter prefix and breaks venv isolation;
	// the activate script unsets it, so we do too.
	return set, []string{"PYTHONHOME"}
}

// activateScript returns the path of the activation artifact that marks a
// directory as a virtual environment on the current platform.
func activateScript(venvDir string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(venvDir, "Scripts", "activate.bat")
	}
	return filepath.Join(venvDir, "bin", "activate")
}

// venvInterpreter returns the interpreter path inside a virtual environment
// on the current platform.
func venvInterpreter(venvDir string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(venvDir, "Scripts", "python.exe")
	}
	return filepath.Join(venvDir, "bin", "python")
}
