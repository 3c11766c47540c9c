package hook

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/showtak/pdumpfs/pkg/hints"
	"github.com/showtak/pdumpfs/pkg/plog"
)

var ErrNothingToExecute = hints.New("nothing to execute")
var ErrDisabled = hints.New("hook execution is disabled")

// HookExecutor runs the commands configured for one phase of a snapshot
// run, one at a time, in the order they were given.
type HookExecutor struct {
	// commandContext allows mocking os/exec for testing hooks.
	commandContext func(ctx context.Context, name string, arg ...string) *exec.Cmd
}

// NewHookExecutor creates a new HookExecutor with the given configuration.
func NewHookExecutor(commandContext func(ctx context.Context, name string, arg ...string) *exec.Cmd) *HookExecutor {
	return &HookExecutor{
		commandContext: commandContext,
	}
}

// Run executes every command configured for phase against snapshotName,
// one at a time. A command failure only aborts the run when phase is Pre
// and Plan.FailFast is set; a Post command failure is always a warning,
// since the snapshot is already committed by the time Post runs. A phase
// with no configured commands returns ErrNothingToExecute, which callers
// treat as a hint rather than a failure.
func (e *HookExecutor) Run(ctx context.Context, snapshotName string, phase Phase, p *Plan, timestampUTC time.Time) error {
	if !p.Enabled {
		return ErrDisabled
	}

	commands := p.commandsFor(phase)
	if len(commands) == 0 {
		return ErrNothingToExecute
	}

	plog.Info(fmt.Sprintf("running %s-hook commands", phase), "snapshot", snapshotName, "at", timestampUTC.Format(time.RFC3339))

	for _, hookCommand := range commands {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if p.DryRun {
			plog.Info("[dry run] would execute", "command", hookCommand)
			continue
		}
		plog.Info("executing hook command", "phase", phase, "command", hookCommand)

		cmd := e.createCommand(ctx, hookCommand)

		// Pipe output to our logger for visibility.
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			// cmd.Wait() surfaces context cancellation as a generic exit
			// error; report the more specific context error instead.
			if ctx.Err() == context.Canceled {
				return context.Canceled
			}
			if phase == Pre && p.FailFast {
				return fmt.Errorf("%s-hook command %q failed: %w", phase, hookCommand, err)
			}
			plog.Warn("hook command failed", "phase", phase, "command", hookCommand, "error", err)
		}
	}
	return nil
}
