//go:build !windows

package hook

import (
	"context"
	"os/exec"

	"golang.org/x/sys/unix"
)

// createCommand builds the exec.Cmd for one hook command on Unix-like
// systems. Hooks run under the same interrupt-cancellation context as the
// walk itself (see cmd/pdumpfs's errgroup wiring), so a Ctrl-C during a
// pre-hook must kill the whole command tree, not just the shell that ran
// it; putting the command in its own process group lets Run's ctx.Done
// path clean up every descendant.
func (e *HookExecutor) createCommand(ctx context.Context, command string) *exec.Cmd {
	cmd := e.commandContext(ctx, "/bin/sh", "-c", command)
	cmd.SysProcAttr = &unix.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	}
	return cmd
}
