//go:build unix

package ipc

import (
	"errors"
	"os/exec"
	"syscall"
)

// ownProcessGroup starts the helper as the leader of a new process group.
func ownProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcessGroup sends SIGKILL to the helper's process group.
func killProcessGroup(cmd *exec.Cmd) error {
	err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	if errors.Is(err, syscall.ESRCH) {
		// Group already gone. Process.Kill reports os.ErrProcessDone once reaped.
		return cmd.Process.Kill()
	}
	return err
}
