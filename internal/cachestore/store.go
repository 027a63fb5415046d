package cachestore

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"appshelf/internal/catalog"
	"appshelf/internal/fileutil"
	"appshelf/internal/logging"
)

// Store is the in-memory record mapping backed by one file in root.
type Store struct {
	root    string
	format  Format
	logger  *slog.Logger
	mu      sync.RWMutex
	entries map[uint64]catalog.Record
	dirty   int
}

// New returns an empty store rooted at root without touching the filesystem.
func New(root string, format Format, logger *slog.Logger) *Store {
	return &Store{
		root:    root,
		format:  format,
		logger:  logging.NewComponentLogger(logger, "cachestore"),
		entries: make(map[uint64]catalog.Record),
	}
}

// Load reads the cache file for format inside root. It always returns a
// usable store: a missing file is a fresh start, and a file that cannot be
// read or decoded is logged and discarded.
func Load(root string, format Format, logger *slog.Logger) *Store {
	s := New(root, format, logger)

	data, err := os.ReadFile(s.Path())
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.warnLoadFailed(fmt.Errorf("read cache file: %w", err))
		}
		return s
	}
	if len(data) == 0 {
		s.warnLoadFailed(errors.New("cache file is empty"))
		return s
	}

	entries, err := decode(format, data)
	if err != nil {
		s.warnLoadFailed(fmt.Errorf("decode cache file: %w", err))
		return s
	}
	if entries != nil {
		s.entries = entries
	}

	s.logger.Debug("loaded record cache",
		logging.Int("entry_count", len(s.entries)),
		logging.String("path", s.Path()),
		logging.String("format", format.String()))
	return s
}

func (s *Store) warnLoadFailed(err error) {
	logging.WarnWithContext(s.logger, "failed to load record cache",
		"cache_load_failed",
		logging.String("path", s.Path()),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "the file will be replaced on the next save"),
		logging.String(logging.FieldImpact, "cache starts empty; records will be fetched again"))
}

// Root returns the directory holding the cache file.
func (s *Store) Root() string { return s.root }

// Format returns the encoding used by Save.
func (s *Store) Format() Format { return s.format }

// Path returns the cache file location.
func (s *Store) Path() string {
	return filepath.Join(s.root, s.format.FileName())
}

// Lookup returns the record for id if present.
func (s *Store) Lookup(id uint64) (catalog.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.entries[id]
	return record, ok
}

// Contains reports whether id is cached.
func (s *Store) Contains(id uint64) bool {
	_, ok := s.Lookup(id)
	return ok
}

// Insert adds record under id in memory. Existing entries are kept as-is;
// the return value reports whether the record was added.
func (s *Store) Insert(id uint64, record catalog.Record) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[id]; exists {
		return false
	}
	s.entries[id] = record
	s.dirty++
	return true
}

// Len returns the number of cached records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Unsaved returns the number of inserts since the last successful save.
func (s *Store) Unsaved() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// IDs returns all cached ids in ascending order.
func (s *Store) IDs() []uint64 {
	s.mu.RLock()
	ids := make([]uint64, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

// Save writes the full mapping atomically. Errors wrap ErrPersistence and
// leave the in-memory mapping untouched.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := encode(s.format, s.entries)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	path := s.Path()
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.dirty = 0
	s.logger.Debug("saved record cache",
		logging.Int("entry_count", len(s.entries)),
		logging.Int("bytes", len(data)),
		logging.String("path", path))
	return nil
}
