package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if cfg.API.BaseURL != DefaultBaseURL {
		t.Errorf("expected base_url %q, got %q", DefaultBaseURL, cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("expected timeout 30s, got %s", cfg.API.Timeout)
	}
	if cfg.API.Retries != 1 {
		t.Errorf("expected 1 retry, got %d", cfg.API.Retries)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.History.Enabled {
		t.Error("expected history disabled by default")
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
api:
  base_url: https://analysis.example.com
  retries: 0
server:
  port: 9000
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.API.BaseURL != "https://analysis.example.com" {
		t.Errorf("unexpected base_url %q", cfg.API.BaseURL)
	}
	if cfg.API.Retries != 0 {
		t.Errorf("expected 0 retries, got %d", cfg.API.Retries)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	// Defaults should still be set for unspecified fields
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("expected default timeout, got %s", cfg.API.Timeout)
	}
	if cfg.Reader.Timeout != 15*time.Second {
		t.Errorf("expected default reader timeout, got %s", cfg.Reader.Timeout)
	}
}

func TestParseRejectsRetriesAboveOne(t *testing.T) {
	if _, err := parse([]byte("api:\n  retries: 3\n")); err == nil {
		t.Error("expected error for retries > 1")
	}
}

func TestParseRejectsNonPositiveTimeout(t *testing.T) {
	if _, err := parse([]byte("api:\n  timeout: 0s\n")); err == nil {
		t.Error("expected error for zero timeout")
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv(BaseURLEnv, "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("api:\n  base_url: http://file.example\n"), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.API.BaseURL != "http://file.example" {
		t.Errorf("expected base_url from file, got %q", cfg.API.BaseURL)
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Setenv(BaseURLEnv, "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.BaseURL != DefaultBaseURL {
		t.Errorf("expected default base_url, got %q", cfg.API.BaseURL)
	}
}

func TestEnvOverridesBaseURL(t *testing.T) {
	t.Setenv(BaseURLEnv, "https://env.example")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("api:\n  base_url: http://file.example\n"), 0o644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.BaseURL != "https://env.example" {
		t.Errorf("expected env override, got %q", cfg.API.BaseURL)
	}
}

func TestResolveConfigPathExplicitMissing(t *testing.T) {
	if _, err := ResolveConfigPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	defaultDir := cfg.GetDataDir()
	if defaultDir == "" {
		t.Error("expected non-empty default data dir")
	}

	cfg.History.DataDir = "/custom/path"
	if cfg.GetDataDir() != "/custom/path" {
		t.Errorf("expected '/custom/path', got %q", cfg.GetDataDir())
	}
}

func TestGetExportDir(t *testing.T) {
	cfg := &Config{}
	if cfg.GetExportDir() != "." {
		t.Errorf("expected '.', got %q", cfg.GetExportDir())
	}
	cfg.Export.Dir = "reports"
	if cfg.GetExportDir() != "reports" {
		t.Errorf("expected 'reports', got %q", cfg.GetExportDir())
	}
}
