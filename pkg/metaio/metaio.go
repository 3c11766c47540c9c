// Package metaio is the metadata adapter: the single point where the engine
// touches platform-specific filesystem behavior. Everything else in the
// module depends only on this capability set, never on os/syscall directly
// for file identity, hard links, or ownership.
package metaio

import (
	"os"
	"time"
)

// FType is the type tag the engine classifies an entry as once symlinks have
// been resolved according to the caller's lstat/stat choice.
type FType int

const (
	// TypeOther covers devices, sockets, FIFOs, and anything else outside
	// the {file, link, directory} set this engine understands.
	TypeOther FType = iota
	TypeFile
	TypeLink
	TypeDirectory
)

func (t FType) String() string {
	switch t {
	case TypeFile:
		return "file"
	case TypeLink:
		return "link"
	case TypeDirectory:
		return "directory"
	default:
		return "other"
	}
}

// Info is the subset of file metadata the engine ever inspects. It is
// populated from either lstat (symlink itself) or stat (symlink target).
type Info struct {
	Size          int64
	Mtime         time.Time
	Atime         time.Time
	Mode          os.FileMode
	Uid           int
	Gid           int
	Type          FType
	IsRegularFile bool
	// BlockSize is the filesystem's preferred I/O block size for this
	// entry, when the host exposes one; 0 when unavailable.
	BlockSize int64
}

// Adapter is the full capability set the engine needs from the host.
// Exactly two implementations exist, selected at compile time: a POSIX-like
// one (unix, darwin) and a Windows one, matching the platform dispatch
// note in the design notes.
type Adapter interface {
	// Lstat reports metadata about p itself, never following a symlink.
	Lstat(p string) (Info, error)
	// Stat reports metadata about p, following symlinks.
	Stat(p string) (Info, error)

	// ForceLink unlinks any existing object at dest, then hard-links dest
	// to the same inode as src.
	ForceLink(src, dest string) error
	// ForceSymlink unlinks any existing object at dest, then creates a
	// symlink at dest with link text target. On platforms that cannot
	// create symlinks, it returns ErrSymlinkUnsupported.
	ForceSymlink(target, dest string) error
	// Readlink returns the link text of a symbolic link.
	Readlink(p string) (string, error)

	// Utime sets access and modification time on p. For directories this
	// must succeed even when p is not currently writable by the caller.
	Utime(p string, atime, mtime time.Time) error
	// Chmod sets the mode bits on p.
	Chmod(p string, mode os.FileMode) error
	// ChownIfRoot is a no-op unless the effective user is root/admin. When
	// active, it chowns p (lchown when p is itself a symlink).
	ChownIfRoot(p string, uid, gid int, isSymlink bool) error

	// FilesystemType returns an opaque identifier for the filesystem
	// backing p.
	FilesystemType(p string) (string, error)
	// SupportsHardLinks reports whether the filesystem backing p is known
	// to support POSIX hard links. On platforms where every supported
	// filesystem supports them, this always returns true without probing.
	SupportsHardLinks(p string) (bool, error)
}

// ErrSymlinkUnsupported is returned by ForceSymlink on platforms where
// symlink creation is unsupported for the calling process; the caller
// should silently skip materializing the entry.
var ErrSymlinkUnsupported = symlinkUnsupportedErr{}

type symlinkUnsupportedErr struct{}

func (symlinkUnsupportedErr) Error() string { return "symlink creation unsupported on this platform" }
