//go:build windows

package hook

import (
	"context"
	"os/exec"

	"golang.org/x/sys/windows"
)

// createCommand builds the exec.Cmd for one hook command on Windows. Hooks
// run under the same interrupt-cancellation context as the walk itself
// (see cmd/pdumpfs's errgroup wiring). The command starts in its own
// process group; a canceled context kills cmd.exe only, and processes it
// started are not terminated.
func (e *HookExecutor) createCommand(ctx context.Context, command string) *exec.Cmd {
	cmd := e.commandContext(ctx, "cmd", "/C", command)
	cmd.SysProcAttr = &windows.SysProcAttr{CreationFlags: windows.CREATE_NEW_PROCESS_GROUP}
	return cmd
}
