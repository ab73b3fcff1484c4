//go:build !linux

package system

// waitExited is a no-op where waitid(WNOWAIT) is unavailable; the reap in
// cmd.Wait marks the exit instead.
func waitExited(pid int) {}
