//go:build windows

package launch

import (
	"os"
	"os/exec"
)

// configureProcGroup is a no-op on Windows, which has no POSIX process
// groups to signal.
func configureProcGroup(_ *exec.Cmd) {}

// signalProcess delivers sig to the child directly.
func signalProcess(p *os.Process, sig os.Signal) error {
	return p.Signal(sig)
}
