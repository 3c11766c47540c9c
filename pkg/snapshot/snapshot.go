// Package snapshot is the walker/orchestrator: it drives a recursive walk
// over a source tree, composing the exclusion matcher, classifier, and
// materializer, collects directory metadata to restore after descent,
// tolerates per-entry errors, and on completion atomically updates the
// `latest` pointer.
package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/showtak/pdumpfs/pkg/buildinfo"
	"github.com/showtak/pdumpfs/pkg/classify"
	"github.com/showtak/pdumpfs/pkg/exclude"
	"github.com/showtak/pdumpfs/pkg/locator"
	"github.com/showtak/pdumpfs/pkg/materialize"
	"github.com/showtak/pdumpfs/pkg/metaio"
	"github.com/showtak/pdumpfs/pkg/pathops"
	"github.com/showtak/pdumpfs/pkg/plog"
	"github.com/showtak/pdumpfs/pkg/preflight"
	"github.com/showtak/pdumpfs/pkg/util"
)

// LatestName is the fixed name of the latest-pointer symlink at the root
// of a destination tree.
const LatestName = "latest"

// RunRecordName is the sidecar file written next to BaseName under each
// DateDir, never inside the mirrored tree itself, so it can never appear
// as a spurious entry when a snapshot is browsed or diffed against its
// source.
const RunRecordName = ".pdumpfs.meta.json"

// RunRecord summarizes one completed, non-dry-run walk. It is written once,
// after the walk succeeds and before latest is repointed.
type RunRecord struct {
	ID            string    `json:"id"`
	EngineVersion string    `json:"engineVersion"`
	Source        string    `json:"source"`
	BaseName      string    `json:"baseName"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	BytesWritten  int64     `json:"bytesWritten"`
	DryRun        bool      `json:"dryRun"`
}

// Reporter receives one call per visited, non-excluded entry, plus one
// call for every recoverable per-entry error encountered along the way.
type Reporter interface {
	ReportEntry(tag classify.Tag, relPath string)
	ReportWarning(relPath string, err error)
}

// NoopReporter discards everything; useful when a caller only cares about
// the final Result.
type NoopReporter struct{}

func (NoopReporter) ReportEntry(classify.Tag, string)  {}
func (NoopReporter) ReportWarning(string, error)       {}

// Plan is the plain value carrying everything a run needs: no hidden
// globals, no module-level state.
type Plan struct {
	Source   string
	DestRoot string
	// BaseName defaults to filepath.Base(Source) when empty.
	BaseName string

	Matcher  exclude.Matcher
	Adapter  metaio.Adapter
	Reporter Reporter

	DryRun bool

	// OnInterval is invoked once per entry reported and, within the copy
	// loop, every N blocks. It must be non-blocking and must not re-enter
	// the engine. Returning a non-nil error aborts the run at that
	// suspension point; the partial Today tree is left on disk and latest
	// is not updated.
	OnInterval func() error

	// LogWriter, if set, receives the single completion log line appended
	// at the end of a successful (non-dry-run) run.
	LogWriter io.Writer

	// Now overrides the run clock; defaults to time.Now when nil, present
	// so tests can pin RunClock without sleeping across midnight.
	Now func() time.Time
}

// Result summarizes a completed run.
type Result struct {
	Today          string
	LatestRelative string
	HadPriorLatest bool
	Duration       time.Duration
	BytesWritten   int64
}

// Run executes one snapshot: preflight, locate, walk, restore, and the
// latest-pointer update. On any fatal error the partial Today tree is left
// on disk but latest is never touched.
func Run(plan Plan) (Result, error) {
	nowFn := plan.Now
	if nowFn == nil {
		nowFn = time.Now
	}

	source, err := expandAndClean(plan.Source)
	if err != nil {
		return Result{}, fmt.Errorf("preflight: source: %w", err)
	}
	destRoot, err := expandAndClean(plan.DestRoot)
	if err != nil {
		return Result{}, fmt.Errorf("preflight: destination: %w", err)
	}

	if source == destRoot || pathops.IsSameOrBelow(destRoot, source) {
		return Result{}, fmt.Errorf("preflight: source %s must not equal or be an ancestor of destination %s", source, destRoot)
	}

	if err := preflight.CheckSourceAccessible(source); err != nil {
		return Result{}, fmt.Errorf("preflight: %w", err)
	}

	baseName := plan.BaseName
	if baseName == "" {
		baseName = filepath.Base(source)
	}

	if _, err := os.Stat(destRoot); err != nil {
		return Result{}, fmt.Errorf("preflight: destination %s does not exist: %w", destRoot, err)
	}
	if ok, err := plan.Adapter.SupportsHardLinks(destRoot); err != nil {
		return Result{}, fmt.Errorf("preflight: checking hard-link support on %s: %w", destRoot, err)
	} else if !ok {
		return Result{}, fmt.Errorf("preflight: destination %s is on a filesystem that does not support hard links", destRoot)
	}

	now := nowFn()
	year, month, day := now.Date()
	dateDir := pathops.DateDir(year, int(month), day)
	today := filepath.Join(destRoot, dateDir, baseName)

	prior, hasPrior, err := locator.Find(destRoot, baseName, now)
	if err != nil {
		return Result{}, fmt.Errorf("preflight: locating prior snapshot: %w", err)
	}

	if !plan.DryRun {
		if err := os.MkdirAll(today, materialize.DirMode); err != nil {
			return Result{}, fmt.Errorf("preflight: creating %s: %w", today, err)
		}
	}

	reporter := plan.Reporter
	if reporter == nil {
		reporter = NoopReporter{}
	}

	m := &materialize.Materializer{
		Adapter:    plan.Adapter,
		DryRun:     plan.DryRun,
		OnInterval: plan.OnInterval,
	}

	w := &walker{
		adapter:      plan.Adapter,
		matcher:      plan.Matcher,
		materializer: m,
		reporter:     reporter,
		onInterval:   plan.OnInterval,
		sourceRoot:   source,
		destRoot:     today,
		priorRoot:    prior.Path,
		hasPrior:     hasPrior,
	}
	if w.matcher == nil {
		w.matcher = exclude.None{}
	}

	start := now
	if err := w.walkRoot(); err != nil {
		return Result{}, fmt.Errorf("materialize: %w", err)
	}

	for i := len(w.dirRestores) - 1; i >= 0; i-- {
		d := w.dirRestores[i]
		if err := m.RestoreDirMetadata(d.target, d.srcInfo); err != nil {
			return Result{}, fmt.Errorf("materialize: %w", err)
		}
	}

	elapsed := time.Since(start)

	result := Result{
		Today:          today,
		LatestRelative: filepath.Join(dateDir, baseName),
		HadPriorLatest: hasPrior,
		Duration:       elapsed,
		BytesWritten:   m.BytesWritten(),
	}

	if plan.DryRun {
		return result, nil
	}

	record := RunRecord{
		ID:            uuid.NewString(),
		EngineVersion: buildinfo.Version,
		Source:        source,
		BaseName:      baseName,
		StartTime:     start,
		EndTime:       start.Add(elapsed),
		BytesWritten:  m.BytesWritten(),
		DryRun:        plan.DryRun,
	}
	if err := writeRunRecord(filepath.Join(destRoot, dateDir), record); err != nil {
		plog.Warn("failed to write run record", "error", err)
	}

	if err := updateLatest(destRoot, result.LatestRelative); err != nil {
		return result, fmt.Errorf("materialize: updating latest pointer: %w", err)
	}

	if plan.LogWriter != nil {
		line := formatLogLine(now, source, today, elapsed, m.BytesWritten())
		if _, err := io.WriteString(plan.LogWriter, line); err != nil {
			plog.Warn("failed to append log line", "error", err)
		}
	}

	return result, nil
}

func expandAndClean(p string) (string, error) {
	expanded, err := util.ExpandPath(p)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

// updateLatest atomically overwrites DestRoot/latest to point at
// relLatest, using a temp-symlink-then-rename so a reader never observes a
// missing or half-written pointer.
func updateLatest(destRoot, relLatest string) error {
	latestPath := filepath.Join(destRoot, LatestName)
	tempLink := filepath.Join(destRoot, ".pdumpfs-latest-*.tmp")
	tempName, err := uniqueTempName(tempLink)
	if err != nil {
		return err
	}
	if err := os.Symlink(relLatest, tempName); err != nil {
		return fmt.Errorf("creating temporary latest symlink: %w", err)
	}
	if err := os.Rename(tempName, latestPath); err != nil {
		os.Remove(tempName)
		return fmt.Errorf("renaming latest symlink into place: %w", err)
	}
	return nil
}

// writeRunRecord marshals record as RunRecordName under dateDirPath. It
// writes to a temp file and renames into place, the same atomic-publish
// idiom updateLatest uses, so a reader never observes a truncated record.
func writeRunRecord(dateDirPath string, record RunRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding run record: %w", err)
	}

	target := filepath.Join(dateDirPath, RunRecordName)
	tempName, err := uniqueTempName(filepath.Join(dateDirPath, ".pdumpfs.meta-*.json.tmp"))
	if err != nil {
		return err
	}
	if err := os.WriteFile(tempName, data, 0644); err != nil {
		return fmt.Errorf("writing run record: %w", err)
	}
	if err := os.Rename(tempName, target); err != nil {
		os.Remove(tempName)
		return fmt.Errorf("renaming run record into place: %w", err)
	}
	return nil
}

func uniqueTempName(pattern string) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(pattern), filepath.Base(pattern))
	if err != nil {
		return "", fmt.Errorf("allocating temp name: %w", err)
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return name, nil
}

// formatLogLine renders the completion line exactly per the on-disk log
// format: ISO8601-local timestamp, SRC -> TODAY, elapsed seconds, human
// bytes written.
func formatLogLine(when time.Time, src, today string, elapsed time.Duration, bytesWritten int64) string {
	return fmt.Sprintf("%s: %s -> %s (in %.2f sec, %s written)\n",
		when.Local().Format("2006-01-02T15:04:05"),
		src, today, elapsed.Seconds(), util.ByteCountHuman(bytesWritten))
}
