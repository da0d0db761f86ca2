//go:build unix

package plugin

import (
	"os/exec"
	"syscall"
)

// killProcessGroup runs the plugin in its own process group and kills the whole group
// on cancellation, so shell plugins do not leave their children running.
func killProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
