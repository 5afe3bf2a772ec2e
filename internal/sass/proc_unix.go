//go:build unix

package sass

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// isolateProcess starts the compiler in its own process group so that
// cancellation also stops any helpers a wrapper script forked.
func isolateProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		if errors.Is(err, syscall.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}
}
