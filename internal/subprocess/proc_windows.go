//go:build windows

package subprocess

import (
	"os"
	"os/exec"
)

// setProcAttr is a no-op on Windows.
func setProcAttr(cmd *exec.Cmd) {}

// killTree kills the process. Windows has no POSIX process groups.
func killTree(p *os.Process) error {
	return p.Kill()
}
