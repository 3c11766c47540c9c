// Command pdumpfs creates a dated, hard-link-deduplicated snapshot of a
// source directory tree under a destination root, in the manner of the
// Plan9 dumpfs tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/showtak/pdumpfs/pkg/buildinfo"
	"github.com/showtak/pdumpfs/pkg/classify"
	"github.com/showtak/pdumpfs/pkg/config"
	"github.com/showtak/pdumpfs/pkg/exclude"
	"github.com/showtak/pdumpfs/pkg/flagparse"
	"github.com/showtak/pdumpfs/pkg/hints"
	"github.com/showtak/pdumpfs/pkg/hook"
	"github.com/showtak/pdumpfs/pkg/metaio"
	"github.com/showtak/pdumpfs/pkg/pathops"
	"github.com/showtak/pdumpfs/pkg/plog"
	"github.com/showtak/pdumpfs/pkg/preflight"
	"github.com/showtak/pdumpfs/pkg/snapshot"
	"github.com/showtak/pdumpfs/pkg/util"
)

var errInterrupted = errors.New("run interrupted")

// entryReporter renders one fixed-width tag plus relative path per visited
// entry to stdout, and a warning line per recoverable per-entry error.
type entryReporter struct{}

func (entryReporter) ReportEntry(tag classify.Tag, relPath string) {
	if plog.IsQuiet() || relPath == "" {
		return
	}
	fmt.Printf("%-10s %s\n", tag.String(), relPath)
}

func (entryReporter) ReportWarning(relPath string, err error) {
	plog.Warn("skipping entry", "path", relPath, "error", err)
}

func main() {
	opts, err := flagparse.ParseBackup(os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", buildinfo.Name, err)
		os.Exit(1)
	}

	if opts.ShowHelp {
		return
	}
	if opts.ShowVersion {
		fmt.Printf("%s version %s\n", buildinfo.Name, buildinfo.Version)
		return
	}

	plog.SetQuiet(opts.Quiet)

	source, err := canonicalPath(opts.Source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: preflight: %v\n", buildinfo.Name, err)
		os.Exit(1)
	}
	dest, err := canonicalPath(opts.Dest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: preflight: %v\n", buildinfo.Name, err)
		os.Exit(1)
	}

	// Reject S == D or S an ancestor of D before anything below can touch
	// the filesystem: CheckDestinationWritable's probe write, or the walk
	// itself, must never run against a destination nested in the source.
	if source == dest || pathops.IsSameOrBelow(dest, source) {
		fmt.Fprintf(os.Stderr, "%s: preflight: source %s must not equal or be an ancestor of destination %s\n", buildinfo.Name, source, dest)
		os.Exit(1)
	}
	opts.Source = source
	opts.Dest = dest

	if err := checkGhostMount(opts.Dest); err != nil {
		fmt.Fprintf(os.Stderr, "%s: preflight: %v\n", buildinfo.Name, err)
		os.Exit(1)
	}
	if !opts.DryRun {
		if err := preflight.CheckDestinationWritable(opts.Dest); err != nil {
			fmt.Fprintf(os.Stderr, "%s: preflight: %v\n", buildinfo.Name, err)
			os.Exit(1)
		}
	}

	if err := run(opts); err != nil {
		if opts.Backtrace {
			fmt.Fprintf(os.Stderr, "%s: %+v\n", buildinfo.Name, err)
		} else {
			fmt.Fprintf(os.Stderr, "%s: %v\n", buildinfo.Name, err)
		}
		os.Exit(1)
	}
}

func run(opts *flagparse.BackupOptions) error {
	if err := applyConfigDefaults(opts); err != nil {
		return fmt.Errorf("preflight: %w", err)
	}

	matcher, err := buildMatcher(opts)
	if err != nil {
		return fmt.Errorf("preflight: %w", err)
	}

	var logWriter *os.File
	if !opts.DryRun && opts.LogFilePath != "" {
		logWriter, err = os.OpenFile(opts.LogFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("preflight: opening log file %s: %w", opts.LogFilePath, err)
		}
		defer logWriter.Close()
	}

	hookPlan := &hook.Plan{
		Enabled:          true,
		PreHookCommands:  opts.PreHookCommands,
		PostHookCommands: opts.PostHookCommands,
		DryRun:           opts.DryRun,
		FailFast:         opts.FailFast,
	}

	snapshotName := opts.BaseName
	if snapshotName == "" {
		snapshotName = filepath.Base(opts.Source)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	var logIOWriter io.Writer
	if logWriter != nil {
		logIOWriter = logWriter
	}

	var result snapshot.Result
	g.Go(func() error {
		if err := runHooks(gctx, hookPlan, snapshotName, hook.Pre); err != nil {
			return err
		}

		restoreUmask := forceRestrictiveUmask()
		defer restoreUmask()

		r, runErr := snapshot.Run(snapshot.Plan{
			Source:    opts.Source,
			DestRoot:  opts.Dest,
			BaseName:  opts.BaseName,
			Matcher:   matcher,
			Adapter:   metaio.New(),
			Reporter:  entryReporter{},
			DryRun:    opts.DryRun,
			LogWriter: logIOWriter,
			OnInterval: func() error {
				select {
				case <-gctx.Done():
					return errInterrupted
				default:
					return nil
				}
			},
		})
		if runErr != nil {
			return runErr
		}
		result = r

		return runHooks(gctx, hookPlan, snapshotName, hook.Post)
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, errInterrupted) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("run canceled")
		}
		return err
	}

	plog.Notice(fmt.Sprintf("%s -> %s", opts.Source, result.Today),
		"seconds", fmt.Sprintf("%.2f", result.Duration.Seconds()),
		"written", util.ByteCountHuman(result.BytesWritten))
	return nil
}

// runHooks runs the configured commands for phase against snapshotName. A
// hook plan with no commands for the requested phase is a no-op: the
// executor reports that as a hint-wrapped error, which is not itself a
// failure.
func runHooks(ctx context.Context, plan *hook.Plan, snapshotName string, phase hook.Phase) error {
	executor := hook.NewHookExecutor(exec.CommandContext)
	err := executor.Run(ctx, snapshotName, phase, plan, time.Now().UTC())
	if err != nil && !hints.IsHint(err) {
		return fmt.Errorf("%s-hook: %w", phase, err)
	}
	return nil
}

// applyConfigDefaults loads the pdumpfs.config.json sidecar (explicit
// --config path, or <Dest>/pdumpfs.config.json if that exists) and fills
// in any flag opts left at its zero value. A sidecar that is absent, or
// that supplies nothing for a field already set on the command line,
// changes nothing.
func applyConfigDefaults(opts *flagparse.BackupOptions) error {
	cfg, err := config.Resolve(opts.ConfigPath, opts.Dest)
	if err != nil {
		return err
	}

	merged := cfg.ApplyDefaults(config.BackupDefaults{
		ExcludePatterns:  opts.ExcludePatterns,
		ExcludeGlobs:     opts.ExcludeGlobs,
		ExcludeBySize:    opts.ExcludeBySizeRaw,
		LogFilePath:      opts.LogFilePath,
		PreHookCommands:  opts.PreHookCommands,
		PostHookCommands: opts.PostHookCommands,
	})

	opts.ExcludePatterns = merged.ExcludePatterns
	opts.ExcludeGlobs = merged.ExcludeGlobs
	opts.ExcludeBySizeRaw = merged.ExcludeBySize
	opts.LogFilePath = merged.LogFilePath
	opts.PreHookCommands = merged.PreHookCommands
	opts.PostHookCommands = merged.PostHookCommands
	return nil
}

// checkGhostMount guards against snapshotting onto the root filesystem
// when the operator's intended destination volume failed to mount: a
// silent write to "/" instead of a missing external drive would otherwise
// fill the system disk without warning. A destination that does not exist
// yet is checked at its deepest existing ancestor instead. dest must
// already be canonical (see canonicalPath).
func checkGhostMount(dest string) error {
	return preflight.CheckDestinationAccessible(dest)
}

// canonicalPath expands a leading "~" and resolves path to a clean,
// absolute form. Source and destination are each canonicalized exactly
// once, up front, so every downstream check and the walk itself agree on
// the same path.
func canonicalPath(path string) (string, error) {
	expanded, err := util.ExpandPath(path)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

func buildMatcher(opts *flagparse.BackupOptions) (exclude.Matcher, error) {
	threshold, err := flagparse.ParseSize(opts.ExcludeBySizeRaw)
	if err != nil {
		return nil, fmt.Errorf("invalid --exclude-by-size: %w", err)
	}
	if len(opts.ExcludePatterns) == 0 && len(opts.ExcludeGlobs) == 0 && threshold < 0 {
		return exclude.None{}, nil
	}
	return exclude.NewConfig(opts.ExcludePatterns, opts.ExcludeGlobs, threshold)
}

