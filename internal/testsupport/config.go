// Package testsupport provides fixtures shared by package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"appshelf/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Pacing is disabled so tests never sleep.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.ManifestPath = filepath.Join(base, "steamapps", "libraryfolders.vdf")
	cfgVal.Catalog.MinIntervalMillis = 0
	cfgVal.Catalog.RequestTimeoutSeconds = 5
	cfgVal.Logging.Level = "error"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithCatalogURL points the catalog client at a test server.
func WithCatalogURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Catalog.BaseURL = url
	}
}

// WithCacheFormat selects the cache encoding.
func WithCacheFormat(format string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cache.Format = format
	}
}

// WithManifest writes a manifest listing folders at the configured path.
func WithManifest(folders ...[]uint64) ConfigOption {
	return func(b *configBuilder) {
		WriteManifest(b.t, b.cfg.Paths.ManifestPath, folders...)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.CacheDir)
}
