//go:build !windows

package subprocess

import (
	stderrors "errors"
	"os"
	"os/exec"
	"syscall"
)

// setProcAttr starts the CLI in its own process group.
func setProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killTree sends SIGKILL to the whole process group led by p.
func killTree(p *os.Process) error {
	err := syscall.Kill(-p.Pid, syscall.SIGKILL)
	if err == nil {
		return nil
	}

	if stderrors.Is(err, syscall.ESRCH) {
		// Group already gone; make sure the leader is too.
		return p.Kill()
	}

	return err
}
