package cachestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AppName namespaces the cache inside the platform cache directory.
const AppName = "appshelf"

var (
	// ErrDirectoryResolution means no cache directory could be determined.
	ErrDirectoryResolution = errors.New("resolve cache directory")
	// ErrPersistence wraps failures writing the cache file.
	ErrPersistence = errors.New("persist cache")
)

// userCacheDir is replaced in tests.
var userCacheDir = os.UserCacheDir

// Root returns the cache directory. A non-empty override is used as-is;
// otherwise the platform cache directory joined with AppName.
func Root(override string) (string, error) {
	if override = strings.TrimSpace(override); override != "" {
		return filepath.Clean(override), nil
	}
	base, err := userCacheDir()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDirectoryResolution, err)
	}
	if strings.TrimSpace(base) == "" {
		return "", fmt.Errorf("%w: platform returned an empty path", ErrDirectoryResolution)
	}
	return filepath.Join(base, AppName), nil
}
