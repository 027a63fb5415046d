// Package config loads, normalizes, and validates appshelf configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// APPSHELF_CACHE_DIR and APPSHELF_MANIFEST. The Config type centralizes every
// knob the CLI needs: where the cache and library manifest live, how the store
// catalog is contacted, which cache encoding is used, and how logs are emitted.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, a canonical cache format, and clear validation errors.
package config
