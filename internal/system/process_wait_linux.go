//go:build linux

package system

import (
	"errors"

	"golang.org/x/sys/unix"
)

// waitExited blocks until pid has exited without reaping it, so the pid
// stays reserved until cmd.Wait runs.
func waitExited(pid int) {
	var info unix.Siginfo
	for {
		err := unix.Waitid(unix.P_PID, pid, &info, unix.WEXITED|unix.WNOWAIT, nil)
		if !errors.Is(err, unix.EINTR) {
			return
		}
	}
}
