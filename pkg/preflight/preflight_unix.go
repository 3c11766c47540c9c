//go:build !windows

package preflight

import (
	"fmt"
	"os"
	"strings"
	"syscall"
)

// platformValidateMountPoint checks if the path resides on the root filesystem.
// If it does, it assumes the intended destination volume is NOT mounted
// (ghost detection), since a live snapshot destination is almost always a
// dedicated disk.
func platformValidateMountPoint(path string) error {
	// 1. Allow the home directory: a destination under it is usually intentional.
	homeDir, _ := os.UserHomeDir()
	if homeDir != "" && strings.HasPrefix(path, homeDir) {
		return nil
	}

	// 2. A path that is itself a mount point is a deliberately chosen
	// destination even when its device happens to match root's (e.g. a
	// bind mount), so it is never a ghost directory.
	if mounted, err := IsMountPoint(path); err == nil && mounted {
		return nil
	}

	// 3. Get the Device ID of the Root partition
	rootInfo, err := os.Stat("/")
	if err != nil {
		return fmt.Errorf("failed to stat root: %w", err)
	}
	rootStat, ok := rootInfo.Sys().(*syscall.Stat_t)
	if !ok {
		return fmt.Errorf("unsupported platform for syscall.Stat_t")
	}

	// 4. Get the Device ID of the Target path
	pathInfo, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat target path: %w", err)
	}
	pathStat, ok := pathInfo.Sys().(*syscall.Stat_t)
	if !ok {
		return fmt.Errorf("unsupported platform for syscall.Stat_t")
	}

	// 5. Compare Device IDs
	// If pathDev == rootDev, we are writing to the system partition (Ghost).
	// Exception: The user specifically targeted "/" (unlikely, but valid).
	if pathStat.Dev == rootStat.Dev && path != "/" {
		return fmt.Errorf("path '%s' is on the root filesystem (system disk). "+
			"Ensure your external drive is mounted", path)
	}

	return nil
}
