// Package hook runs the operator-supplied pre-hook and post-hook commands
// around a snapshot run, as configured by -pre-hook/-post-hook or a JSON
// config file's "preHooks"/"postHooks" keys.
package hook

// Phase identifies which side of the walk a batch of hook commands runs on.
type Phase int

const (
	// Pre runs before Today's directory is created and before any file is
	// touched. A failing Pre command with Plan.FailFast set aborts the run
	// before any writes happen.
	Pre Phase = iota
	// Post runs after the latest pointer has already been repointed at the
	// new snapshot. The snapshot is committed by then, so a failing Post
	// command is always a warning, never an abort, regardless of FailFast.
	Post
)

func (p Phase) String() string {
	switch p {
	case Pre:
		return "pre"
	case Post:
		return "post"
	default:
		return "unknown"
	}
}

// Plan carries the pieces of a run's configuration hook execution needs.
// It is a plain value; the walker never imports this package.
type Plan struct {
	Enabled bool

	PreHookCommands  []string
	PostHookCommands []string

	DryRun bool

	// FailFast, when true, turns a failing Pre command into a fatal error
	// that stops the run before Today's directory is created. It has no
	// effect on Post commands: the snapshot is already committed by the
	// time those run.
	FailFast bool
}

// commandsFor returns the command list for phase.
func (p *Plan) commandsFor(phase Phase) []string {
	if phase == Pre {
		return p.PreHookCommands
	}
	return p.PostHookCommands
}
