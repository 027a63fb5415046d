package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"appshelf/internal/config"
)

func TestLoadDefaultConfigWithoutFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "appshelf", "config.toml") {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if cfg.Catalog.BaseURL != "https://store.steampowered.com" {
		t.Fatalf("unexpected base url: %q", cfg.Catalog.BaseURL)
	}
	if cfg.Catalog.Locale != "en" {
		t.Fatalf("unexpected locale: %q", cfg.Catalog.Locale)
	}
	if cfg.MinInterval().Seconds() != 1 {
		t.Fatalf("expected 1s min interval, got %v", cfg.MinInterval())
	}
	if cfg.RequestTimeout().Seconds() != 15 {
		t.Fatalf("expected 15s request timeout, got %v", cfg.RequestTimeout())
	}
	if cfg.Cache.Format != config.CacheFormatCompact {
		t.Fatalf("expected compact cache format, got %q", cfg.Cache.Format)
	}
	if cfg.Cache.SaveEvery != 1 {
		t.Fatalf("expected save_every 1, got %d", cfg.Cache.SaveEvery)
	}
	if cfg.Paths.CacheDir != "" {
		t.Fatalf("expected empty cache dir override, got %q", cfg.Paths.CacheDir)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "appshelf.toml")

	type payload struct {
		Paths struct {
			CacheDir string `toml:"cache_dir"`
		} `toml:"paths"`
		Catalog struct {
			BaseURL           string `toml:"base_url"`
			MinIntervalMillis int    `toml:"min_interval_ms"`
		} `toml:"catalog"`
		Cache struct {
			Format    string `toml:"format"`
			SaveEvery int    `toml:"save_every"`
		} `toml:"cache"`
	}
	custom := payload{}
	custom.Paths.CacheDir = filepath.Join(tempDir, "cache")
	custom.Catalog.BaseURL = "https://example.com/store/"
	custom.Catalog.MinIntervalMillis = 250
	custom.Cache.Format = "DEBUG"
	custom.Cache.SaveEvery = 10
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.CacheDir != filepath.Join(tempDir, "cache") {
		t.Fatalf("unexpected cache dir: %q", cfg.Paths.CacheDir)
	}
	if cfg.Catalog.BaseURL != "https://example.com/store" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Catalog.BaseURL)
	}
	if cfg.MinInterval().Milliseconds() != 250 {
		t.Fatalf("expected 250ms interval, got %v", cfg.MinInterval())
	}
	if cfg.Cache.Format != config.CacheFormatDebug {
		t.Fatalf("expected debug format, got %q", cfg.Cache.Format)
	}
	if cfg.Cache.SaveEvery != 10 {
		t.Fatalf("expected save_every 10, got %d", cfg.Cache.SaveEvery)
	}
}

func TestEnvOverridesPathsAndLocale(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("APPSHELF_CACHE_DIR", filepath.Join(tempDir, "env-cache"))
	t.Setenv("APPSHELF_MANIFEST", filepath.Join(tempDir, "libraryfolders.vdf"))
	t.Setenv("APPSHELF_LOCALE", "de")

	cfg, _, _, err := config.Load(filepath.Join(tempDir, "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.CacheDir != filepath.Join(tempDir, "env-cache") {
		t.Fatalf("expected cache dir from env, got %q", cfg.Paths.CacheDir)
	}
	if cfg.Paths.ManifestPath != filepath.Join(tempDir, "libraryfolders.vdf") {
		t.Fatalf("expected manifest from env, got %q", cfg.Paths.ManifestPath)
	}
	if cfg.Catalog.Locale != "de" {
		t.Fatalf("expected locale from env, got %q", cfg.Catalog.Locale)
	}
}

func TestExpandPathTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := config.ExpandPath("~/cache/appshelf")
	if err != nil {
		t.Fatalf("ExpandPath returned error: %v", err)
	}
	if got != filepath.Join(home, "cache", "appshelf") {
		t.Fatalf("unexpected expansion: %q", got)
	}
}

func TestValidateRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:    "unknown cache format",
			mutate:  func(c *config.Config) { c.Cache.Format = "yaml" },
			wantErr: "cache.format",
		},
		{
			name:    "zero save cadence",
			mutate:  func(c *config.Config) { c.Cache.SaveEvery = 0 },
			wantErr: "cache.save_every",
		},
		{
			name:    "bad locale",
			mutate:  func(c *config.Config) { c.Catalog.Locale = "not a locale" },
			wantErr: "catalog.locale",
		},
		{
			name:    "non http base url",
			mutate:  func(c *config.Config) { c.Catalog.BaseURL = "ftp://example.com" },
			wantErr: "catalog.base_url",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *config.Config) { c.Catalog.RequestTimeoutSeconds = 0 },
			wantErr: "catalog.request_timeout_seconds",
		},
		{
			name:    "negative interval",
			mutate:  func(c *config.Config) { c.Catalog.MinIntervalMillis = -1 },
			wantErr: "catalog.min_interval_ms",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *config.Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Cache.Format != config.CacheFormatCompact {
		t.Fatalf("unexpected sample cache format: %q", cfg.Cache.Format)
	}
}
