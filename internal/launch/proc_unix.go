//go:build !windows

package launch

import (
	"os"
	"os/exec"
	"syscall"
)

// configureProcGroup places the child in its own process group so that
// forwarded signals also reach helpers the entry point forks. Flask with
// debug=True runs the app in a reloader grandchild that would otherwise
// survive its parent's SIGTERM.
func configureProcGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// signalProcess delivers sig to the child's whole process group, falling
// back to the child alone for non-POSIX signals or a vanished group.
func signalProcess(p *os.Process, sig os.Signal) error {
	s, ok := sig.(syscall.Signal)
	if !ok {
		return p.Signal(sig)
	}
	if err := syscall.Kill(-p.Pid, s); err != nil {
		return p.Signal(sig)
	}
	return nil
}
