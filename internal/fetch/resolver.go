package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"appshelf/internal/cachestore"
	"appshelf/internal/catalog"
	"appshelf/internal/logging"
	"appshelf/internal/ratelimit"
)

// Resolver bundles the cache store, the catalog client and the request pacer.
type Resolver struct {
	store     *cachestore.Store
	fetcher   catalog.Fetcher
	limiter   *ratelimit.Limiter
	logger    *slog.Logger
	saveEvery int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for resolution events.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logging.NewComponentLogger(logger, "fetch")
	}
}

// WithSaveEvery persists the store after every n new records instead of
// after each one. Values below one are treated as one.
func WithSaveEvery(n int) Option {
	return func(r *Resolver) {
		if n < 1 {
			n = 1
		}
		r.saveEvery = n
	}
}

// New constructs a Resolver.
func New(store *cachestore.Store, fetcher catalog.Fetcher, limiter *ratelimit.Limiter, opts ...Option) (*Resolver, error) {
	if store == nil {
		return nil, errors.New("fetch: cache store required")
	}
	if fetcher == nil {
		return nil, errors.New("fetch: catalog fetcher required")
	}
	if limiter == nil {
		limiter = ratelimit.New(0)
	}
	r := &Resolver{
		store:     store,
		fetcher:   fetcher,
		limiter:   limiter,
		logger:    logging.NewComponentLogger(nil, "fetch"),
		saveEvery: 1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Store exposes the backing cache store.
func (r *Resolver) Store() *cachestore.Store { return r.store }

// Cached reports whether id would be answered without a network call.
func (r *Resolver) Cached(id uint64) bool {
	return r.store.Contains(id)
}

// Resolve returns the record for id, fetching it on a cache miss.
//
// When the record was fetched but the store could not be persisted, the
// record is returned together with an error wrapping
// cachestore.ErrPersistence. The record stays cached in memory.
func (r *Resolver) Resolve(ctx context.Context, id uint64) (catalog.Record, error) {
	if record, ok := r.store.Lookup(id); ok {
		r.logger.Debug("cache hit", logging.Uint64(logging.FieldAppID, id))
		return record, nil
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return catalog.Record{}, fmt.Errorf("app %d: wait for request slot: %w", id, err)
	}

	record, err := r.fetcher.AppDetails(ctx, id)
	if err != nil {
		return catalog.Record{}, err
	}

	r.store.Insert(id, record)
	r.logger.Debug("fetched record",
		logging.Uint64(logging.FieldAppID, id),
		logging.String("name", record.Name))

	if r.store.Unsaved() >= r.saveEvery {
		if err := r.store.Save(); err != nil {
			return record, fmt.Errorf("app %d: %w", id, err)
		}
	}
	return record, nil
}

// Flush persists any records not yet written. It is a no-op when nothing is
// pending.
func (r *Resolver) Flush() error {
	if r.store.Unsaved() == 0 {
		return nil
	}
	return r.store.Save()
}
