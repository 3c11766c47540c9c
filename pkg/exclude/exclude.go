// Package exclude decides, for each encountered path, whether the walker
// should skip it. It never follows symlinks when inspecting a candidate:
// callers must pass metadata obtained via lstat.
package exclude

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/showtak/pdumpfs/pkg/metaio"
)

// Matcher decides whether relPath, with metadata info obtained from an
// lstat of the entry, should be excluded from the walk.
type Matcher interface {
	Excluded(relPath string, info metaio.Info) bool
}

// None is the trivial matcher: nothing is ever excluded.
type None struct{}

func (None) Excluded(relPath string, info metaio.Info) bool { return false }

// Config is the configured matcher: regular-expression patterns against
// the full walked path, shell-style globs against the basename of regular
// files, and an optional minimum-size threshold for regular files.
type Config struct {
	patterns      []*regexp.Regexp
	globs         []string
	sizeThreshold int64 // negative disables the size check
}

// NewConfig compiles patterns and validates globs up front so that a bad
// -e/--exclude-by-glob flag surfaces as a ConfigurationError before any
// walk starts, not mid-run.
func NewConfig(patterns, globs []string, sizeThreshold int64) (*Config, error) {
	c := &Config{
		globs:         append([]string(nil), globs...),
		sizeThreshold: sizeThreshold,
	}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclusion pattern %q: %w", p, err)
		}
		c.patterns = append(c.patterns, re)
	}
	for _, g := range globs {
		if _, err := filepath.Match(g, "probe"); err != nil {
			return nil, fmt.Errorf("invalid exclusion glob %q: %w", g, err)
		}
	}
	return c, nil
}

// Excluded reports whether relPath should be skipped. Order of evaluation
// is immaterial: the result is an any-of over size, pattern, and glob.
func (c *Config) Excluded(relPath string, info metaio.Info) bool {
	if info.IsRegularFile && c.sizeThreshold >= 0 && info.Size >= c.sizeThreshold {
		return true
	}
	for _, re := range c.patterns {
		if re.MatchString(relPath) {
			return true
		}
	}
	if info.IsRegularFile {
		base := filepath.Base(relPath)
		for _, g := range c.globs {
			if ok, _ := filepath.Match(g, base); ok {
				return true
			}
		}
	}
	return false
}
