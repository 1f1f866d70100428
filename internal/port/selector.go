package port

import (
	"fmt"

	"github.com/open-oversight/dashlaunch/internal/model"
)

// Selector resolves the port the dashboard will bind: the default port if
// it is free, otherwise the first free port from an ordered fallback list.
//
// The Selector holds a Scanner for OS-level availability probes. It makes
// no reservation — the selected port can be taken by another process
// between selection and the dashboard's bind.
type Selector struct {
	scanner *Scanner
}

// NewSelector creates a Selector using the given Scanner.
// The scanner must not be nil.
func NewSelector(scanner *Scanner) *Selector {
	return &Selector{scanner: scanner}
}

// Select probes defaultPort and then each fallback in order, returning a
// PortPlan for the first available port. The plan records whether a
// fallback was used and which occupied ports were skipped on the way.
//
// When every port is occupied it returns a CLIError with ExitNoFreePort;
// the caller must not attempt a launch in that case.
func (s *Selector) Select(defaultPort int, fallbacks []int) (*model.PortPlan, error) {
	if err := model.ValidatePorts(defaultPort, fallbacks); err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "invalid port configuration", err)
	}

	if s.scanner.IsAvailable(defaultPort) {
		return &model.PortPlan{Port: defaultPort, Default: defaultPort}, nil
	}

	skipped := []int{defaultPort}
	for _, candidate := range fallbacks {
		if s.scanner.IsAvailable(candidate) {
			return &model.PortPlan{
				Port:         candidate,
				Default:      defaultPort,
				UsedFallback: true,
				Skipped:      skipped,
			}, nil
		}
		skipped = append(skipped, candidate)
	}

	return nil, model.NewCLIError(
		model.ExitNoFreePort,
		fmt.Sprintf("no free port: %v are all in use", skipped),
	)
}
