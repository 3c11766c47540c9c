// Command pdumpfs-clean removes snapshots from a pdumpfs destination tree
// that fall outside a calendar-bucketed retention window, without ever
// touching whichever snapshot the `latest` pointer currently resolves to.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/showtak/pdumpfs/pkg/buildinfo"
	"github.com/showtak/pdumpfs/pkg/flagparse"
	"github.com/showtak/pdumpfs/pkg/plog"
	"github.com/showtak/pdumpfs/pkg/retention"
)

func main() {
	opts, err := flagparse.ParseClean(os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdumpfs-clean: %v\n", err)
		os.Exit(1)
	}
	if opts.ShowHelp {
		return
	}
	if opts.ShowVersion {
		fmt.Printf("pdumpfs-clean version %s\n", buildinfo.Version)
		return
	}

	plog.SetQuiet(opts.Quiet)

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "pdumpfs-clean: %v\n", err)
		os.Exit(1)
	}
}

func run(opts *flagparse.CleanOptions) error {
	snapshots, err := retention.Discover(opts.DestRoot, opts.BaseName)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", opts.DestRoot, err)
	}

	latestTarget, hasLatest := resolveLatest(opts.DestRoot)

	policy := retention.Policy{
		KeepHourly:  opts.KeepHourly,
		KeepDaily:   opts.KeepDaily,
		KeepWeekly:  opts.KeepWeekly,
		KeepMonthly: opts.KeepMonthly,
		KeepYearly:  opts.KeepYearly,
	}
	keep, remove := retention.Apply(snapshots, policy)
	remove = excludeLatest(remove, latestTarget, hasLatest)

	summary := retention.FormatPlan(keep, remove)
	plog.Notice(summary)
	for _, s := range remove {
		if plog.IsQuiet() {
			continue
		}
		fmt.Println(s.Path)
	}

	if opts.LogFilePath != "" {
		if err := appendLog(opts.LogFilePath, summary); err != nil {
			plog.Warn("log file", "error", err)
		}
	}

	if opts.DryRun {
		return nil
	}

	for _, err := range retention.Remove(remove) {
		plog.Warn("cleanup", "error", err)
	}
	return nil
}

// appendLog writes a single timestamped summary line to path, using the same
// timestamp prefix as the line pdumpfs appends to its own log file.
func appendLog(path, summary string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "%s: %s\n", time.Now().Local().Format("2006-01-02T15:04:05"), summary)
	return err
}

// resolveLatest reads the destination's latest symlink, returning the
// absolute YYYY/MM/DD directory it points at so that directory is never
// offered up for removal, even when a stale invocation's retention math
// would otherwise select it.
func resolveLatest(destRoot string) (string, bool) {
	target, err := os.Readlink(filepath.Join(destRoot, "latest"))
	if err != nil {
		return "", false
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(destRoot, target)
	}
	return filepath.Dir(filepath.Clean(target)), true
}

func excludeLatest(candidates []retention.Snapshot, latestDir string, hasLatest bool) []retention.Snapshot {
	if !hasLatest {
		return candidates
	}
	var out []retention.Snapshot
	for _, s := range candidates {
		if s.Path == latestDir {
			plog.Warn("not removing the snapshot latest points to", "path", s.Path)
			continue
		}
		out = append(out, s)
	}
	return out
}
