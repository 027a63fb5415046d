package config

// Cache formats accepted by cache.format.
const (
	CacheFormatCompact = "compact"
	CacheFormatDebug   = "debug"
)

const (
	defaultConfigPath        = "~/.config/appshelf/config.toml"
	defaultCatalogBaseURL    = "https://store.steampowered.com"
	defaultCatalogCDNURL     = "https://cdn.cloudflare.steamstatic.com/steam/apps"
	defaultCatalogLocale     = "en"
	defaultCatalogUserAgent  = "appshelf/dev"
	defaultRequestTimeout    = 15
	defaultMinIntervalMillis = 1000
	defaultCacheFormat       = CacheFormatCompact
	defaultCacheSaveEvery    = 1
	defaultLogFormat         = "console"
	defaultLogLevel          = "warn"
	envCacheDir              = "APPSHELF_CACHE_DIR"
	envManifestPath          = "APPSHELF_MANIFEST"
	envCatalogLocale         = "APPSHELF_LOCALE"
	envLogLevel              = "APPSHELF_LOG_LEVEL"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Catalog: Catalog{
			BaseURL:               defaultCatalogBaseURL,
			CDNURL:                defaultCatalogCDNURL,
			Locale:                defaultCatalogLocale,
			UserAgent:             defaultCatalogUserAgent,
			RequestTimeoutSeconds: defaultRequestTimeout,
			MinIntervalMillis:     defaultMinIntervalMillis,
		},
		Cache: Cache{
			Format:    defaultCacheFormat,
			SaveEvery: defaultCacheSaveEvery,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
