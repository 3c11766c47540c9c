// Package pathops holds the pure path helpers the rest of the engine
// builds on: date-directory naming, relative-path stripping, ancestor
// containment, and splitting a path into its components. None of these
// functions touch the filesystem.
package pathops

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DateDir formats a snapshot's date directory segment as YYYY/MM/DD using
// the host's native separator, always zero-padded to 4/2/2 digits.
func DateDir(year, month, day int) string {
	return filepath.Join(
		fmt.Sprintf("%04d", year),
		fmt.Sprintf("%02d", month),
		fmt.Sprintf("%02d", day),
	)
}

// MakeRelative strips one leading base (plus an optional separator) from
// child. The result never starts with a separator, and is empty iff
// child == base. Both paths are expected to already be cleaned.
func MakeRelative(child, base string) (string, error) {
	rel, err := filepath.Rel(base, child)
	if err != nil {
		return "", fmt.Errorf("make_relative(%q, %q): %w", child, base, err)
	}
	if rel == "." {
		return "", nil
	}
	if strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("make_relative(%q, %q): child is not under base", child, base)
	}
	return rel, nil
}

// IsSameOrBelow reports whether candidate, once canonicalized, equals
// ancestor or begins with ancestor followed by a path separator.
func IsSameOrBelow(candidate, ancestor string) bool {
	candidate = filepath.Clean(candidate)
	ancestor = filepath.Clean(ancestor)
	if candidate == ancestor {
		return true
	}
	return strings.HasPrefix(candidate, ancestor+string(filepath.Separator))
}

// SplitAll returns the ordered list of path components from root to leaf,
// excluding the drive/root element itself. Used by the locator to recover
// (year, month, day) from a candidate's last three components.
func SplitAll(path string) []string {
	path = filepath.Clean(path)
	var parts []string
	for {
		dir, file := filepath.Split(path)
		dir = filepath.Clean(dir)
		if file != "" {
			parts = append([]string{file}, parts...)
		}
		if dir == path || dir == "." || dir == string(filepath.Separator) {
			break
		}
		path = dir
	}
	return parts
}
