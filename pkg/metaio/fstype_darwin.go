//go:build darwin

package metaio

import (
	"bytes"
	"fmt"

	"golang.org/x/sys/unix"
)

// platformFilesystemType reads the Fstypename field macOS's statfs fills in
// directly (e.g. "apfs", "hfs", "msdos", "exfat") rather than a magic number.
func platformFilesystemType(p string) (string, error) {
	var buf unix.Statfs_t
	if err := unix.Statfs(p, &buf); err != nil {
		return "", fmt.Errorf("statfs %s: %w", p, err)
	}
	raw := make([]byte, 0, len(buf.Fstypename))
	for _, b := range buf.Fstypename {
		if b == 0 {
			break
		}
		raw = append(raw, byte(b))
	}
	return string(bytes.TrimRight(raw, "\x00")), nil
}
