package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ExpandPath expands the tilde (~) prefix in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil // No tilde, return as-is.
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not get user home directory: %w", err)
	}

	// Replace the tilde with the home directory.
	return filepath.Join(home, path[1:]), nil
}

// ByteCountHuman renders n bytes using the nearest of B, KB, MB, GB, with
// thresholds at 1024, 1024*1000, and 1024*1024*1000. B is rendered with no
// decimals; KB/MB/GB with one.
func ByteCountHuman(n int64) string {
	const (
		kbThreshold = 1024
		mbThreshold = 1024 * 1000
		gbThreshold = 1024 * 1024 * 1000
	)
	switch {
	case n < kbThreshold:
		return fmt.Sprintf("%dB", n)
	case n < mbThreshold:
		return fmt.Sprintf("%.1fKB", float64(n)/1024)
	case n < gbThreshold:
		return fmt.Sprintf("%.1fMB", float64(n)/(1024*1024))
	default:
		return fmt.Sprintf("%.1fGB", float64(n)/(1024*1024*1024))
	}
}

// ParseSizeSuffix parses a string of the form \d+[KMGTP]?, case-insensitive,
// where the suffix is a power-of-1024 multiplier (default multiplier 1 when
// no suffix is given).
func ParseSizeSuffix(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}

	multiplier := int64(1)
	numeric := s
	last := s[len(s)-1]
	switch last {
	case 'k', 'K':
		multiplier = 1024
	case 'm', 'M':
		multiplier = 1024 * 1024
	case 'g', 'G':
		multiplier = 1024 * 1024 * 1024
	case 't', 'T':
		multiplier = 1024 * 1024 * 1024 * 1024
	case 'p', 'P':
		multiplier = 1024 * 1024 * 1024 * 1024 * 1024
	}
	if multiplier != 1 {
		numeric = s[:len(s)-1]
	}

	if numeric == "" {
		return 0, fmt.Errorf("invalid size %q: missing digits", s)
	}
	n, err := strconv.ParseInt(numeric, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid size %q: must not be negative", s)
	}
	return n * multiplier, nil
}
