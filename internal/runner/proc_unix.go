//go:build unix

package runner

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts the tool in its own process group so cancel kills
// wrapper scripts together with everything they forked.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = waitDelay
}
