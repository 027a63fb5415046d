package config

import (
	"errors"
	"fmt"
	"net/url"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCatalog() error {
	for key, raw := range map[string]string{
		"catalog.base_url": c.Catalog.BaseURL,
		"catalog.cdn_url":  c.Catalog.CDNURL,
	} {
		parsed, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("%s must be an http(s) url, got %q", key, raw)
		}
	}
	if _, err := language.Parse(c.Catalog.Locale); err != nil {
		return fmt.Errorf("catalog.locale %q is not a valid language tag: %w", c.Catalog.Locale, err)
	}
	if c.Catalog.RequestTimeoutSeconds <= 0 {
		return errors.New("catalog.request_timeout_seconds must be positive")
	}
	if c.Catalog.MinIntervalMillis < 0 {
		return errors.New("catalog.min_interval_ms must be >= 0")
	}
	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Format {
	case CacheFormatCompact, CacheFormatDebug:
	default:
		return fmt.Errorf("cache.format must be %q or %q, got %q", CacheFormatCompact, CacheFormatDebug, c.Cache.Format)
	}
	if c.Cache.SaveEvery < 1 {
		return errors.New("cache.save_every must be >= 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
