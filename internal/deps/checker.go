package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/open-oversight/dashlaunch/internal/model"
)

// probeLimit bounds concurrent import probes. Each probe starts a full
// interpreter, so unbounded fan-out buys nothing past a few processes.
const probeLimit = 4

// Status is the doctor-facing result of probing one requirement.
type Status struct {
	// Requirement is the probed package/module pair.
	Requirement model.Requirement `json:"requirement"`

	// Present is true when the module imported successfully.
	Present bool `json:"present"`
}

// Checker probes and installs Python packages using a specific interpreter.
// The interpreter comes from pyenv resolution, so venv installs land in the
// venv and ambient installs land in the user's site-packages — the same
// behavior as running pip after sourcing activate.
type Checker struct {
	interpreter string
}

// NewChecker creates a Checker bound to the given interpreter binary.
func NewChecker(interpreter string) *Checker {
	return &Checker{interpreter: interpreter}
}

// Report probes every requirement and returns a Status per requirement in
// the original order. Probes run concurrently up to probeLimit.
func (c *Checker) Report(ctx context.Context, reqs []model.Requirement) ([]Status, error) {
	statuses := make([]Status, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(probeLimit)

	for i, req := range reqs {
		g.Go(func() error {
			// Each goroutine writes only its own index, so no lock is needed.
			statuses[i] = Status{
				Requirement: req,
				Present:     c.importable(ctx, req.Module),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return statuses, nil
}

// Missing returns the subset of requirements whose modules failed to
// import, preserving the configured order.
func (c *Checker) Missing(ctx context.Context, reqs []model.Requirement) ([]model.Requirement, error) {
	statuses, err := c.Report(ctx, reqs)
	if err != nil {
		return nil, err
	}

	var missing []model.Requirement
	for _, s := range statuses {
		if !s.Present {
			missing = append(missing, s.Requirement)
		}
	}
	return missing, nil
}

// Install runs a single batched pip install for the given requirements:
//
//	<interpreter> -m pip install <pkg> <pkg> ...
//
// Returns a CLIError with ExitDependencyInstallFailed when pip exits
// non-zero. The pip output is included in the error since it usually names
// the package that could not be resolved.
func (c *Checker) Install(ctx context.Context, reqs []model.Requirement) error {
	if len(reqs) == 0 {
		return nil
	}

	args := []string{"-m", "pip", "install"}
	for _, req := range reqs {
		args = append(args, req.Package)
	}

	// #nosec G204 — package names are validated on config load, not raw user input
	cmd := exec.CommandContext(ctx, c.interpreter, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(output))
		message := fmt.Sprintf("failed to install %s", packageList(reqs))
		if trimmed != "" {
			message = fmt.Sprintf("%s: %s", message, lastLine(trimmed))
		}
		return model.WrapCLIError(model.ExitDependencyInstallFailed, message, err)
	}
	return nil
}

// Ensure probes all requirements and installs whatever is missing in one
// batch. It returns the requirements that were installed (nil when
// everything was already present, in which case pip is never invoked).
func (c *Checker) Ensure(ctx context.Context, reqs []model.Requirement) ([]model.Requirement, error) {
	missing, err := c.Missing(ctx, reqs)
	if err != nil {
		return nil, err
	}
	if len(missing) == 0 {
		return nil, nil
	}
	if err := c.Install(ctx, missing); err != nil {
		return nil, err
	}
	return missing, nil
}

// importable runs "<interpreter> -c 'import <module>'" and reports whether
// it exited zero. Any failure to even start the interpreter counts as
// not-importable; Ensure will then surface the real problem through pip.
func (c *Checker) importable(ctx context.Context, module string) bool {
	// #nosec G204 — module names are validated as dotted identifiers on config load
	cmd := exec.CommandContext(ctx, c.interpreter, "-c", "import "+module)
	return cmd.Run() == nil
}

// packageList joins package names for error messages.
func packageList(reqs []model.Requirement) string {
	names := make([]string, len(reqs))
	for i, req := range reqs {
		names[i] = req.Package
	}
	return strings.Join(names, ", ")
}

// lastLine returns the final non-empty line of command output. pip's error
// summary is its last line; the preceding resolver chatter is noise in a
// one-line error message.
func lastLine(s string) string {
	lines := strings.Split(s, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return s
}
