package hook_test

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/showtak/pdumpfs/pkg/hook"
)

// TestHelperProcess is a helper for testing exec.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for i, arg := range args {
		if arg == "--" {
			args = args[i+1:]
			break
		}
	}
	if len(args) > 0 && strings.Contains(args[0], "fail") {
		os.Exit(1)
	}
	os.Exit(0)
}

func TestHookExecutor(t *testing.T) {
	mockExecutor := func(ctx context.Context, name string, arg ...string) *exec.Cmd {
		// On Windows, the command is wrapped in `cmd /C`. We need to extract the actual command.
		var cmdLine string
		if len(arg) > 1 && arg[0] == "/C" {
			cmdLine = strings.Join(arg[1:], " ")
		} else if len(arg) > 1 && arg[0] == "-c" {
			cmdLine = strings.Join(arg[1:], " ")
		} else {
			cmdLine = name + " " + strings.Join(arg, " ")
		}

		cs := []string{"-test.run=TestHelperProcess", "--", cmdLine}
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = []string{"GO_WANT_HELPER_PROCESS=1"}
		return cmd
	}

	tests := []struct {
		name          string
		plan          *hook.Plan
		phase         hook.Phase
		expectError   bool
		errorContains string
	}{
		{
			name: "pre-hook success",
			plan: &hook.Plan{
				Enabled:         true,
				PreHookCommands: []string{"echo pre-hook-works"},
			},
			phase:       hook.Pre,
			expectError: false,
		},
		{
			name: "post-hook success",
			plan: &hook.Plan{
				Enabled:          true,
				PostHookCommands: []string{"echo post-hook-works"},
			},
			phase:       hook.Post,
			expectError: false,
		},
		{
			name: "pre-hook failure with FailFast aborts",
			plan: &hook.Plan{
				Enabled:         true,
				PreHookCommands: []string{"fail this"},
				FailFast:        true,
			},
			phase:         hook.Pre,
			expectError:   true,
			errorContains: `pre-hook command "fail this" failed`,
		},
		{
			name: "pre-hook failure without FailFast is a warning",
			plan: &hook.Plan{
				Enabled:         true,
				PreHookCommands: []string{"fail this"},
				FailFast:        false,
			},
			phase:       hook.Pre,
			expectError: false,
		},
		{
			name: "post-hook failure with FailFast is still only a warning",
			plan: &hook.Plan{
				Enabled:          true,
				PostHookCommands: []string{"fail this"},
				FailFast:         true,
			},
			phase:       hook.Post,
			expectError: false,
		},
		{
			name: "dry run never executes",
			plan: &hook.Plan{
				Enabled:         true,
				PreHookCommands: []string{"echo should-not-run"},
				DryRun:          true,
			},
			phase:       hook.Pre,
			expectError: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			executor := hook.NewHookExecutor(mockExecutor)
			err := executor.Run(context.Background(), "test-snapshot", tc.phase, tc.plan, time.Now())

			if tc.expectError {
				if err == nil {
					t.Fatal("expected error, but got nil")
				}
				if tc.errorContains != "" && !strings.Contains(err.Error(), tc.errorContains) {
					t.Errorf("expected error to contain %q, but got: %v", tc.errorContains, err)
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			}
		})
	}
}

func TestPhaseString(t *testing.T) {
	if got := hook.Pre.String(); got != "pre" {
		t.Errorf("got %q, want pre", got)
	}
	if got := hook.Post.String(); got != "post" {
		t.Errorf("got %q, want post", got)
	}
}
