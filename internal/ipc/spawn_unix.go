//go:build !windows

package ipc

import (
	"os/exec"
	"syscall"
)

// detach starts the daemon in a new session so it outlives the terminal
// that spawned it.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
