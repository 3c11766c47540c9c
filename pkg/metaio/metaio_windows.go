//go:build windows

package metaio

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/windows"
)

// NTFS is the metadata adapter for Windows. It is the "one restricted
// platform" the design notes refer to: only NTFS destinations support hard
// links, symlink creation additionally requires a privilege the calling
// process may not hold, and read-only files must have their read-only
// attribute cleared before their timestamps can be changed.
type NTFS struct{}

// New returns the metadata adapter for Windows.
func New() Adapter { return NTFS{} }

func (NTFS) Lstat(p string) (Info, error) {
	fi, err := os.Lstat(p)
	if err != nil {
		return Info{}, err
	}
	return toInfo(fi), nil
}

func (NTFS) Stat(p string) (Info, error) {
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
		Atime:         fi.ModTime(),
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
	return info
}

func (NTFS) ForceLink(src, dest string) error {
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("force_link: clearing %s: %w", dest, err)
	}
	if err := os.Link(src, dest); err != nil {
		return fmt.Errorf("force_link: linking %s to %s: %w", dest, src, err)
	}
	return nil
}

func (NTFS) ForceSymlink(target, dest string) error {
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("force_symlink: clearing %s: %w", dest, err)
	}
	if err := os.Symlink(target, dest); err != nil {
		if os.IsPermission(err) {
			return ErrSymlinkUnsupported
		}
		return fmt.Errorf("force_symlink: creating %s -> %s: %w", dest, target, err)
	}
	return nil
}

func (NTFS) Readlink(p string) (string, error) {
	return os.Readlink(p)
}

// Utime sets access and modification time on p, temporarily clearing the
// read-only attribute if needed since NTFS refuses SetFileTime otherwise.
func (a NTFS) Utime(p string, atime, mtime time.Time) error {
	fi, err := os.Stat(p)
	if err != nil {
		return err
	}
	wasReadOnly := fi.Mode()&0200 == 0
	if wasReadOnly {
		if err := os.Chmod(p, fi.Mode()|0200); err != nil {
			return fmt.Errorf("utime: clearing read-only on %s: %w", p, err)
		}
	}
	err = os.Chtimes(p, atime, mtime)
	if wasReadOnly {
		if chErr := os.Chmod(p, fi.Mode()); chErr != nil && err == nil {
			err = fmt.Errorf("utime: restoring read-only on %s: %w", p, chErr)
		}
	}
	return err
}

func (NTFS) Chmod(p string, mode os.FileMode) error {
	return os.Chmod(p, mode)
}

// ChownIfRoot is a no-op on Windows: there is no POSIX root/uid concept for
// this adapter to act on.
func (NTFS) ChownIfRoot(p string, uid, gid int, isSymlink bool) error {
	return nil
}

func (NTFS) FilesystemType(p string) (string, error) {
	return volumeFilesystemName(p)
}

func (NTFS) SupportsHardLinks(p string) (bool, error) {
	name, err := volumeFilesystemName(p)
	if err != nil {
		return false, err
	}
	return name == "NTFS", nil
}

func volumeFilesystemName(p string) (string, error) {
	vol := filepath.VolumeName(p)
	if vol == "" {
		vol = filepath.VolumeName(filepath.Dir(p))
	}
	root := vol + string(filepath.Separator)

	rootPtr, err := windows.UTF16PtrFromString(root)
	if err != nil {
		return "", fmt.Errorf("filesystem_type: %w", err)
	}

	var fsNameBuf [windows.MAX_PATH + 1]uint16
	if err := windows.GetVolumeInformation(
		rootPtr,
		nil, 0,
		nil, nil, nil,
		&fsNameBuf[0], uint32(len(fsNameBuf)),
	); err != nil {
		return "", fmt.Errorf("filesystem_type: GetVolumeInformation %s: %w", root, err)
	}
	return windows.UTF16ToString(fsNameBuf[:]), nil
}
