package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCatalog()
	c.normalizeCache()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv(envCacheDir); ok && strings.TrimSpace(value) != "" {
		c.Paths.CacheDir = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv(envManifestPath); ok && strings.TrimSpace(value) != "" {
		c.Paths.ManifestPath = strings.TrimSpace(value)
	}

	var err error
	if c.Paths.CacheDir, err = expandPath(strings.TrimSpace(c.Paths.CacheDir)); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.ManifestPath, err = expandPath(strings.TrimSpace(c.Paths.ManifestPath)); err != nil {
		return fmt.Errorf("paths.manifest_path: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCatalog() {
	c.Catalog.BaseURL = strings.TrimRight(strings.TrimSpace(c.Catalog.BaseURL), "/")
	if c.Catalog.BaseURL == "" {
		c.Catalog.BaseURL = defaultCatalogBaseURL
	}
	c.Catalog.CDNURL = strings.TrimRight(strings.TrimSpace(c.Catalog.CDNURL), "/")
	if c.Catalog.CDNURL == "" {
		c.Catalog.CDNURL = defaultCatalogCDNURL
	}
	if value, ok := os.LookupEnv(envCatalogLocale); ok && strings.TrimSpace(value) != "" {
		c.Catalog.Locale = value
	}
	c.Catalog.Locale = strings.TrimSpace(c.Catalog.Locale)
	if c.Catalog.Locale == "" {
		c.Catalog.Locale = defaultCatalogLocale
	}
	c.Catalog.UserAgent = strings.TrimSpace(c.Catalog.UserAgent)
	if c.Catalog.UserAgent == "" {
		c.Catalog.UserAgent = defaultCatalogUserAgent
	}
}

func (c *Config) normalizeCache() {
	c.Cache.Format = strings.ToLower(strings.TrimSpace(c.Cache.Format))
	if c.Cache.Format == "" {
		c.Cache.Format = defaultCacheFormat
	}
	if c.Cache.SaveEvery == 0 {
		c.Cache.SaveEvery = defaultCacheSaveEvery
	}
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv(envLogLevel); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}
