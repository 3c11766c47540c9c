package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsZeroValue(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogFilePath != "" || cfg.ExcludeBySize != "" || len(cfg.ExcludePatterns) != 0 {
		t.Errorf("expected a zero-value Config, got %+v", cfg)
	}
}

func TestLoadParsesFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	body := `{
		"excludePatterns": ["\\.git/"],
		"excludeByGlob": ["*.tmp"],
		"excludeBySize": "10M",
		"logFile": "/var/log/pdumpfs.log",
		"preHooks": ["echo pre"],
		"postHooks": ["echo post"]
	}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.ExcludePatterns) != 1 || cfg.ExcludePatterns[0] != `\.git/` {
		t.Errorf("got ExcludePatterns %v", cfg.ExcludePatterns)
	}
	if cfg.ExcludeBySize != "10M" {
		t.Errorf("got ExcludeBySize %q", cfg.ExcludeBySize)
	}
	if cfg.LogFilePath != "/var/log/pdumpfs.log" {
		t.Errorf("got LogFilePath %q", cfg.LogFilePath)
	}
}

func TestLoadRejectsInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected an error for malformed JSON")
	}
}

func TestResolvePrefersExplicitPath(t *testing.T) {
	destRoot := t.TempDir()
	if err := os.WriteFile(filepath.Join(destRoot, FileName), []byte(`{"logFile":"from-default"}`), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	explicitDir := t.TempDir()
	explicitPath := filepath.Join(explicitDir, "custom.json")
	if err := os.WriteFile(explicitPath, []byte(`{"logFile":"from-explicit"}`), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Resolve(explicitPath, destRoot)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.LogFilePath != "from-explicit" {
		t.Errorf("got %q, want the explicit path's config to win", cfg.LogFilePath)
	}
}

func TestResolveFallsBackToDestRootSidecar(t *testing.T) {
	destRoot := t.TempDir()
	if err := os.WriteFile(filepath.Join(destRoot, FileName), []byte(`{"logFile":"from-default"}`), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Resolve("", destRoot)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.LogFilePath != "from-default" {
		t.Errorf("got %q", cfg.LogFilePath)
	}
}

func TestApplyDefaultsLeavesExplicitValuesUntouched(t *testing.T) {
	cfg := Config{LogFilePath: "from-config", ExcludePatterns: []string{"from-config-pattern"}}
	opts := BackupDefaults{LogFilePath: "from-flag"}

	merged := cfg.ApplyDefaults(opts)
	if merged.LogFilePath != "from-flag" {
		t.Errorf("expected the explicit flag value to win, got %q", merged.LogFilePath)
	}
	if len(merged.ExcludePatterns) != 1 || merged.ExcludePatterns[0] != "from-config-pattern" {
		t.Errorf("expected the config default to fill an empty flag field, got %v", merged.ExcludePatterns)
	}
}

func TestApplyDefaultsOnEmptyConfigChangesNothing(t *testing.T) {
	opts := BackupDefaults{LogFilePath: "from-flag", PreHookCommands: []string{"echo hi"}}
	merged := Config{}.ApplyDefaults(opts)
	if merged.LogFilePath != "from-flag" || len(merged.PreHookCommands) != 1 {
		t.Errorf("got %+v", merged)
	}
}
