// Package geocache persists resolved city coordinates across runs so the
// pipeline only geocodes each city once. Caching is an optimization: every
// backend error is recoverable and callers treat it as a miss.
package geocache

import (
	"context"

	"github.com/desertoasis/servicemap/internal/models"
)

// Cache is the geocode cache contract. Get returns (nil, nil) on a miss.
// Persist flushes any buffered entries; backends that write through on Put
// implement it as a no-op.
type Cache interface {
	Get(ctx context.Context, city string) (*models.CacheEntry, error)
	Put(ctx context.Context, city string, entry models.CacheEntry) error
	Persist(ctx context.Context) error
}
