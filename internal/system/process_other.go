//go:build !unix

package system

import (
	"os"
	"os/exec"
)

func setupProcessGroup(cmd *exec.Cmd) {}

// signalGroup has no graceful variant here; both paths kill the process.
func signalGroup(cmd *exec.Cmd, kill bool) error {
	if cmd.Process == nil {
		return os.ErrProcessDone
	}
	return cmd.Process.Kill()
}
