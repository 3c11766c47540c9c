package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/showtak/pdumpfs/pkg/classify"
	"github.com/showtak/pdumpfs/pkg/exclude"
	"github.com/showtak/pdumpfs/pkg/materialize"
	"github.com/showtak/pdumpfs/pkg/metaio"
	"github.com/showtak/pdumpfs/pkg/pathops"
)

// walker drives one pre-order descent of sourceRoot. It is a throwaway
// value constructed fresh for each Run; none of its fields are shared
// across runs.
type walker struct {
	adapter      metaio.Adapter
	matcher      exclude.Matcher
	materializer *materialize.Materializer
	reporter     Reporter
	onInterval   func() error

	sourceRoot string
	destRoot   string // Today, the root of this run's materialized tree
	priorRoot  string // prior snapshot's BaseName directory, if hasPrior
	hasPrior   bool

	// dirRestores accumulates (target, source-metadata) pairs in descent
	// order; Run applies them in reverse so a directory's own mtime is
	// restored only after every descendant has been materialized.
	dirRestores []dirRestore
}

type dirRestore struct {
	target  string
	srcInfo metaio.Info
}

// walkRoot processes sourceRoot itself, then recurses into it.
func (w *walker) walkRoot() error {
	sInfo, err := w.adapter.Lstat(w.sourceRoot)
	if err != nil {
		return fmt.Errorf("lstat source root %s: %w", w.sourceRoot, err)
	}
	if sInfo.Type != metaio.TypeDirectory {
		return fmt.Errorf("source root %s is not a directory", w.sourceRoot)
	}

	if err := w.materializer.Materialize(classify.Directory, w.sourceRoot, w.destRoot, "", sInfo); err != nil {
		return err
	}
	if err := w.materializer.ApplyOwnership(w.destRoot, sInfo, false); err != nil {
		return err
	}
	w.dirRestores = append(w.dirRestores, dirRestore{target: w.destRoot, srcInfo: sInfo})
	w.reporter.ReportEntry(classify.Directory, "")
	if w.onInterval != nil {
		if err := w.onInterval(); err != nil {
			return err
		}
	}

	return w.walkChildren(w.sourceRoot, w.destRoot)
}

// walkChildren visits the children of absSourceDir in the host's native
// directory-listing order, never sorting. Each child's relative path is
// recovered from its absolute source path via pathops.MakeRelative rather
// than threaded down through the recursion.
func (w *walker) walkChildren(absSourceDir, absDestDir string) error {
	names, err := readDirNamesUnsorted(absSourceDir)
	if err != nil {
		relDir, relErr := pathops.MakeRelative(absSourceDir, w.sourceRoot)
		if relErr != nil {
			relDir = absSourceDir
		}
		return w.handlePerEntryError(relDir, err)
	}

	for _, name := range names {
		absSource := filepath.Join(absSourceDir, name)
		absDest := filepath.Join(absDestDir, name)

		relPath, err := pathops.MakeRelative(absSource, w.sourceRoot)
		if err != nil {
			return fmt.Errorf("walking %s: %w", absSource, err)
		}

		if err := w.visit(absSource, absDest, relPath); err != nil {
			return err
		}
	}
	return nil
}

// visit classifies and materializes one entry, recursing when it is a
// directory. A not-found or permission-denied error from the lstat of the
// entry or of its prior counterpart, or from listing a directory, is
// reported as a warning and the entry is skipped. Any error while
// materializing the entry or applying its ownership aborts the whole run,
// including a source that vanished or cannot be read by then.
func (w *walker) visit(absSource, absDest, relPath string) error {
	sInfo, err := w.adapter.Lstat(absSource)
	if err != nil {
		return w.handlePerEntryError(relPath, err)
	}

	if w.matcher.Excluded(relPath, sInfo) {
		return nil
	}

	var (
		priorPath   string
		lInfo       metaio.Info
		priorExists bool
	)
	if w.hasPrior {
		priorPath = filepath.Join(w.priorRoot, relPath)
		info, statErr := w.adapter.Lstat(priorPath)
		if statErr == nil {
			lInfo = info
			priorExists = true
		} else if !isRecoverable(statErr) {
			return w.handlePerEntryError(relPath, statErr)
		}
	}

	tag := classify.Classify(sInfo, priorExists, lInfo)

	if err := w.materializer.Materialize(tag, absSource, absDest, priorPath, sInfo); err != nil {
		return fmt.Errorf("materializing %s: %w", relPath, err)
	}
	if tag != classify.Unsupported {
		if err := w.materializer.ApplyOwnership(absDest, sInfo, tag == classify.Symlink); err != nil {
			return fmt.Errorf("applying ownership to %s: %w", relPath, err)
		}
	}

	w.reporter.ReportEntry(tag, relPath)
	if w.onInterval != nil {
		if err := w.onInterval(); err != nil {
			return err
		}
	}

	if tag == classify.Directory {
		w.dirRestores = append(w.dirRestores, dirRestore{target: absDest, srcInfo: sInfo})
		return w.walkChildren(absSource, absDest)
	}
	return nil
}

func (w *walker) handlePerEntryError(relPath string, err error) error {
	if isRecoverable(err) {
		w.reporter.ReportWarning(relPath, err)
		return nil
	}
	return fmt.Errorf("entry %s: %w", relPath, err)
}

func isRecoverable(err error) bool {
	return os.IsNotExist(err) || os.IsPermission(err) || errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission)
}

// readDirNamesUnsorted returns directory entry names in the order the host
// filesystem produced them, unlike os.ReadDir which sorts lexically.
func readDirNamesUnsorted(dir string) ([]string, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Readdirnames(-1)
}
