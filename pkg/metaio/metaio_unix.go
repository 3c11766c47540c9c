//go:build !windows

package metaio

import (
	"fmt"
	"os"
	"syscall"
	"time"
)

// Posix is the metadata adapter for Linux, macOS, and other POSIX-like
// hosts. Every filesystem this adapter runs against supports hard links,
// so SupportsHardLinks only refuses the handful of non-POSIX filesystems
// that are sometimes mounted on these hosts (vfat, exfat).
type Posix struct{}

// New returns the metadata adapter for the current (non-Windows) platform.
func New() Adapter { return Posix{} }

func (Posix) Lstat(p string) (Info, error) {
	fi, err := os.Lstat(p)
	if err != nil {
		return Info{}, err
	}
	return toInfo(fi), nil
}

func (Posix) Stat(p string) (Info, error) {
	fi, err := os.Stat(p)
	if err != nil {
		return Info{}, err
	}
	return toInfo(fi), nil
}

func toInfo(fi os.FileInfo) Info {
	info := Info{
		Size:          fi.Size(),
		Mtime:         fi.ModTime(),
		Mode:          fi.Mode(),
		IsRegularFile: fi.Mode().IsRegular(),
	}
	switch {
	case fi.IsDir():
		info.Type = TypeDirectory
	case fi.Mode()&os.ModeSymlink != 0:
		info.Type = TypeLink
	case fi.Mode().IsRegular():
		info.Type = TypeFile
	default:
		info.Type = TypeOther
	}
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		info.Uid = int(st.Uid)
		info.Gid = int(st.Gid)
		info.Atime = time.Unix(st.Atim.Sec, st.Atim.Nsec)
		info.BlockSize = int64(st.Blksize)
	}
	return info
}

func (Posix) ForceLink(src, dest string) error {
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("force_link: clearing %s: %w", dest, err)
	}
	if err := os.Link(src, dest); err != nil {
		return fmt.Errorf("force_link: linking %s to %s: %w", dest, src, err)
	}
	return nil
}

func (Posix) ForceSymlink(target, dest string) error {
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("force_symlink: clearing %s: %w", dest, err)
	}
	if err := os.Symlink(target, dest); err != nil {
		return fmt.Errorf("force_symlink: creating %s -> %s: %w", dest, target, err)
	}
	return nil
}

func (Posix) Readlink(p string) (string, error) {
	return os.Readlink(p)
}

func (Posix) Utime(p string, atime, mtime time.Time) error {
	return os.Chtimes(p, atime, mtime)
}

func (Posix) Chmod(p string, mode os.FileMode) error {
	return os.Chmod(p, mode)
}

func (Posix) ChownIfRoot(p string, uid, gid int, isSymlink bool) error {
	if os.Geteuid() != 0 {
		return nil
	}
	if isSymlink {
		return os.Lchown(p, uid, gid)
	}
	return os.Chown(p, uid, gid)
}

func (Posix) FilesystemType(p string) (string, error) {
	return platformFilesystemType(p)
}

func (Posix) SupportsHardLinks(p string) (bool, error) {
	name, err := platformFilesystemType(p)
	if err != nil {
		return false, err
	}
	switch name {
	case "vfat", "exfat", "msdos":
		return false, nil
	default:
		return true, nil
	}
}
