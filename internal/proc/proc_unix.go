//go:build unix

package proc

import (
	"os/exec"
	"syscall"
)

// configure places the child in its own process group so that cancellation
// also reaches any helpers it spawned.
func configure(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return kill(cmd)
	}
}

func kill(cmd *exec.Cmd) error {
	return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}
