package preflight

import (
	"context"

	"appshelf/internal/cachestore"
	"appshelf/internal/config"
	"appshelf/internal/manifest"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	root, err := cachestore.Root(cfg.Paths.CacheDir)
	if err != nil {
		results = append(results, Result{Name: "Cache directory", Detail: err.Error()})
	} else {
		results = append(results, CheckCacheDirectory("Cache directory", root))
	}

	manifestPath := cfg.Paths.ManifestPath
	if manifestPath == "" {
		manifestPath, err = manifest.DefaultPath()
	}
	if err != nil {
		results = append(results, Result{Name: "Library manifest", Detail: err.Error()})
	} else {
		results = append(results, CheckManifest("Library manifest", manifestPath))
	}

	results = append(results, CheckCatalog(ctx, cfg.Catalog.BaseURL, cfg.Catalog.UserAgent))
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
