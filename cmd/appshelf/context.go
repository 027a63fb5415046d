package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"appshelf/internal/cachestore"
	"appshelf/internal/catalog"
	"appshelf/internal/config"
	"appshelf/internal/fetch"
	"appshelf/internal/logging"
	"appshelf/internal/manifest"
	"appshelf/internal/ratelimit"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// cacheRoot resolves the cache directory; failure here is fatal for every
// command that touches the cache.
func (c *commandContext) cacheRoot() (string, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	return cachestore.Root(cfg.Paths.CacheDir)
}

func (c *commandContext) cacheFormat() (cachestore.Format, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return cachestore.FormatCompact, err
	}
	return cachestore.ParseFormat(cfg.Cache.Format)
}

func (c *commandContext) loadStore() (*cachestore.Store, error) {
	root, err := c.cacheRoot()
	if err != nil {
		return nil, err
	}
	format, err := c.cacheFormat()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return cachestore.Load(root, format, logger), nil
}

// newResolver wires the store, catalog client and pacer from config.
func (c *commandContext) newResolver(store *cachestore.Store) (*fetch.Resolver, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	client, err := catalog.New(cfg.Catalog.BaseURL, cfg.Catalog.Locale,
		catalog.WithTimeout(cfg.RequestTimeout()),
		catalog.WithUserAgent(cfg.Catalog.UserAgent))
	if err != nil {
		return nil, fmt.Errorf("create catalog client: %w", err)
	}
	limiter := ratelimit.New(cfg.MinInterval())
	return fetch.New(store, client, limiter,
		fetch.WithLogger(logger),
		fetch.WithSaveEvery(cfg.Cache.SaveEvery))
}

func (c *commandContext) manifestPath(override string) (string, error) {
	if override = strings.TrimSpace(override); override != "" {
		return config.ExpandPath(override)
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	if cfg.Paths.ManifestPath != "" {
		return cfg.Paths.ManifestPath, nil
	}
	return manifest.DefaultPath()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
