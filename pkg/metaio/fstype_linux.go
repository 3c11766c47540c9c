//go:build linux

package metaio

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// platformFilesystemType maps the handful of statfs magic numbers relevant
// to hard-link capability to a stable name; anything unrecognized is
// returned as its hex magic number so callers can still log it.
func platformFilesystemType(p string) (string, error) {
	var buf unix.Statfs_t
	if err := unix.Statfs(p, &buf); err != nil {
		return "", fmt.Errorf("statfs %s: %w", p, err)
	}
	switch int64(buf.Type) {
	case 0x4d44:
		return "msdos", nil
	case 0x2011BAB0:
		return "exfat", nil
	case 0x01021994:
		return "tmpfs", nil
	case 0xEF53:
		return "ext", nil
	case 0x58465342:
		return "xfs", nil
	case 0x9123683E:
		return "btrfs", nil
	default:
		return fmt.Sprintf("0x%x", buf.Type), nil
	}
}
