// Package classify assigns each source entry a materialization tag by
// comparing it against its optional counterpart in the prior snapshot.
package classify

import (
	"github.com/showtak/pdumpfs/pkg/metaio"
)

// Tag is the materialization action a Classification calls for.
type Tag int

const (
	Unsupported Tag = iota
	Directory
	Unchanged
	Updated
	NewFile
	Symlink
)

func (t Tag) String() string {
	switch t {
	case Directory:
		return "directory"
	case Unchanged:
		return "unchanged"
	case Updated:
		return "updated"
	case NewFile:
		return "new_file"
	case Symlink:
		return "symlink"
	default:
		return "unsupported"
	}
}

// Classify evaluates the decision table in order: directory first, then
// (when a prior counterpart is given) whether it is a real regular file
// eligible for hard-link reuse, falling back to the no-prior branch
// otherwise. sInfo must come from an lstat of s; when priorExists is true,
// lInfo must come from an lstat of the prior snapshot's counterpart path
// (the caller passes priorExists=false when that lstat failed with
// not-found, so a vanished prior counterpart is treated the same as no
// prior at all).
func Classify(sInfo metaio.Info, priorExists bool, lInfo metaio.Info) Tag {
	if sInfo.Type == metaio.TypeDirectory {
		return Directory
	}

	if priorExists && isRealRegularFile(lInfo) {
		switch sInfo.Type {
		case metaio.TypeFile:
			if sameFile(sInfo, lInfo) {
				return Unchanged
			}
			return Updated
		case metaio.TypeLink:
			return Symlink
		default:
			return Unsupported
		}
	}

	switch sInfo.Type {
	case metaio.TypeFile:
		return NewFile
	case metaio.TypeLink:
		return Symlink
	default:
		return Unsupported
	}
}

// isRealRegularFile is the "real regular file" gate: the prior counterpart
// must itself be a regular file, not a symlink or directory, before the
// classifier will ever consider hard-link reuse or in-place comparison
// against it.
func isRealRegularFile(info metaio.Info) bool {
	return info.Type == metaio.TypeFile && info.IsRegularFile
}

// sameFile is the sole identity check governing hard-link reuse: both must
// be real regular files with equal size and equal mtime, to the resolution
// the filesystem exposes. No content comparison is performed.
func sameFile(a, b metaio.Info) bool {
	if !isRealRegularFile(a) || !isRealRegularFile(b) {
		return false
	}
	return a.Size == b.Size && a.Mtime.Equal(b.Mtime)
}
