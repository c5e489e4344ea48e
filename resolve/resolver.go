package resolve

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// FetchFunc fetches a single entity by id from the remote platform.
type FetchFunc[V any] func(ctx context.Context, id string) (V, error)

// Config binds a Resolver to its cache and transport.
type Config[V any] struct {
	// Lookup consults the cache. Required.
	Lookup func(id string) (V, bool)

	// Store writes a fetched entity back to the cache. Required.
	Store func(v V)

	// Fetch retrieves a missing entity from the remote platform. Required.
	Fetch FetchFunc[V]

	// Placeholder builds the stand-in entity used when Fetch fails for an
	// individual id. Required.
	Placeholder func(id string) V
}

// Resolver resolves sets of ids into entities. Safe for concurrent use.
type Resolver[V any] struct {
	cfg   Config[V]
	group singleflight.Group
}

// New creates a Resolver from the given bindings.
func New[V any](cfg Config[V]) *Resolver[V] {
	return &Resolver[V]{cfg: cfg}
}

// Resolve maps every id in ids to an entity. Duplicates are deduplicated
// before the cache partition, so the number of remote fetches is bounded by
// the number of distinct missing ids. Fetch order is unspecified; individual
// fetch failures are absorbed as placeholders. Empty ids are skipped.
func (r *Resolver[V]) Resolve(ctx context.Context, ids []string) map[string]V {
	out := make(map[string]V, len(ids))

	var missing []string
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, done := out[id]; done {
			continue
		}
		if v, ok := r.cfg.Lookup(id); ok {
			out[id] = v
			continue
		}
		// Mark as pending so later duplicates don't queue a second fetch.
		var zero V
		out[id] = zero
		missing = append(missing, id)
	}

	for _, id := range missing {
		out[id] = r.fetchOne(ctx, id)
	}
	return out
}

// fetchOne fetches a single id, collapsing concurrent fetches of the same id
// into one remote call. Successful results are written back to the cache.
func (r *Resolver[V]) fetchOne(ctx context.Context, id string) V {
	v, err, _ := r.group.Do(id, func() (any, error) {
		fetched, err := r.cfg.Fetch(ctx, id)
		if err != nil {
			return nil, err
		}
		r.cfg.Store(fetched)
		return fetched, nil
	})
	if err != nil {
		return r.cfg.Placeholder(id)
	}
	return v.(V)
}
