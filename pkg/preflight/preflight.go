// Package preflight runs the checks pdumpfs performs before touching a
// source or destination tree: existence, directory-ness, writability, and
// (on Unix) a "ghost mount" guard that refuses to snapshot onto the root
// filesystem when the intended destination volume is not actually mounted.
package preflight

import (
	"fmt"
	"os"
	"path/filepath"
)

// CheckSourceAccessible validates that a snapshot source exists and is a
// directory.
func CheckSourceAccessible(srcPath string) error {
	info, err := os.Stat(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("source directory %s does not exist", srcPath)
		}
		return fmt.Errorf("cannot stat source directory %s: %w", srcPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source path %s is not a directory", srcPath)
	}
	return nil
}

// CheckDestinationAccessible validates a destination root before a
// snapshot run. If destRoot already exists it must be a directory; if it
// does not exist yet, its deepest existing ancestor is checked instead, so
// a first-ever run against a not-yet-created destination is not rejected.
// Either way, the checked path is run through the platform's mount-point
// guard, refusing a destination that resolves onto the root filesystem.
func CheckDestinationAccessible(destRoot string) error {
	info, err := os.Stat(destRoot)
	if os.IsNotExist(err) {
		ancestor := deepestExistingAncestor(destRoot)
		if ancestor == "" {
			return fmt.Errorf("neither %s nor any of its parent directories exist", destRoot)
		}
		return platformValidateMountPoint(ancestor)
	} else if err != nil {
		return fmt.Errorf("cannot access destination root: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("destination root %s exists but is not a directory", destRoot)
	}
	return platformValidateMountPoint(destRoot)
}

// CheckDestinationWritable ensures destRoot already exists and can
// actually be written to, by creating and removing a probe file. pdumpfs
// never creates the destination root itself; the operator must have
// mounted and created it before the run starts. Probing with a real file
// catches a permissions failure here instead of once the walk has already
// started copying entries.
func CheckDestinationWritable(destRoot string) error {
	info, err := os.Stat(destRoot)
	if err != nil {
		return fmt.Errorf("destination root %s does not exist: %w", destRoot, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("destination root %s exists but is not a directory", destRoot)
	}

	probe := filepath.Join(destRoot, ".pdumpfs-writetest.tmp")
	f, err := os.Create(probe)
	if err != nil {
		return fmt.Errorf("destination root %s is not writable: %w", destRoot, err)
	}
	f.Close()
	os.Remove(probe)
	return nil
}

func deepestExistingAncestor(path string) string {
	ancestor := path
	for {
		parent := filepath.Dir(ancestor)
		if parent == ancestor {
			return ""
		}
		if _, err := os.Stat(parent); err == nil {
			return parent
		}
		ancestor = parent
	}
}
