//go:build !unix

package proc

import "os/exec"

func configure(cmd *exec.Cmd) {}

func kill(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}
