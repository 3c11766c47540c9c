// Package config loads the optional pdumpfs.config.json sidecar: default
// exclusion patterns, a log file path, and hook commands that apply when
// the corresponding command-line flag was not given explicitly.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/showtak/pdumpfs/pkg/plog"
)

// FileName is the sidecar's fixed name, resolved relative to the
// destination root unless an explicit --config path is given.
const FileName = "pdumpfs.config.json"

// Config holds the subset of settings a sidecar file may supply. Every
// field mirrors a BackupOptions field it can default; CLI flags always win
// when explicitly set.
type Config struct {
	ExcludePatterns  []string `json:"excludePatterns"`
	ExcludeGlobs     []string `json:"excludeByGlob"`
	ExcludeBySize    string   `json:"excludeBySize"`
	LogFilePath      string   `json:"logFile"`
	PreHookCommands  []string `json:"preHooks"`
	PostHookCommands []string `json:"postHooks"`
}

// Load reads path and decodes it into a Config. A missing file is not an
// error: it returns a zero-value Config, meaning "supply no defaults".
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	plog.Debug("loaded config file", "path", path)
	return cfg, nil
}

// Resolve locates the sidecar to load: explicit wins over the default
// <destRoot>/pdumpfs.config.json, which is silently skipped when absent.
func Resolve(explicit, destRoot string) (Config, error) {
	path := explicit
	if path == "" {
		path = filepath.Join(destRoot, FileName)
	}
	return Load(path)
}

// BackupDefaults is the subset of flagparse.BackupOptions a sidecar can
// supply defaults for. It is defined here, rather than importing
// flagparse's concrete type, so pkg/config never depends on the CLI layer.
type BackupDefaults struct {
	ExcludePatterns  []string
	ExcludeGlobs     []string
	ExcludeBySize    string
	LogFilePath      string
	PreHookCommands  []string
	PostHookCommands []string
}

// ApplyDefaults returns a copy of opts with every empty field filled in
// from c. A field the caller already set on the command line (a non-empty
// slice or string) is left untouched; only empty fields take c's value.
func (c Config) ApplyDefaults(opts BackupDefaults) BackupDefaults {
	if len(opts.ExcludePatterns) == 0 {
		opts.ExcludePatterns = c.ExcludePatterns
	}
	if len(opts.ExcludeGlobs) == 0 {
		opts.ExcludeGlobs = c.ExcludeGlobs
	}
	if opts.ExcludeBySize == "" {
		opts.ExcludeBySize = c.ExcludeBySize
	}
	if opts.LogFilePath == "" {
		opts.LogFilePath = c.LogFilePath
	}
	if len(opts.PreHookCommands) == 0 {
		opts.PreHookCommands = c.PreHookCommands
	}
	if len(opts.PostHookCommands) == 0 {
		opts.PostHookCommands = c.PostHookCommands
	}
	return opts
}
