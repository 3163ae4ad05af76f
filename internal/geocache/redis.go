package geocache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/desertoasis/servicemap/internal/models"
	"github.com/redis/go-redis/v9"
)

// cacheKey is the single hash holding the whole geocode cache, one field per
// city with a JSON-encoded entry.
const cacheKey = "servicemap:geocache"

// RedisCache stores entries in one redis hash. Writes go through on Put, so
// Persist is a no-op.
type RedisCache struct {
	client *redis.Client
	log    *slog.Logger
}

// NewRedisClient opens a redis client for the given address. An empty host
// is a configuration error caught by the factory, not here.
func NewRedisClient(host, port, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
	})
}

// NewRedisCache creates a RedisCache using the provided client.
func NewRedisCache(client *redis.Client, log *slog.Logger) *RedisCache {
	return &RedisCache{client: client, log: log}
}

// Get returns the cached entry for city, or (nil, nil) when the field is absent.
func (rc *RedisCache) Get(ctx context.Context, city string) (*models.CacheEntry, error) {
	raw, err := rc.client.HGet(ctx, cacheKey, city).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached coordinates: %w", err)
	}

	var entry models.CacheEntry
	if err = json.Unmarshal([]byte(raw), &entry); err != nil {
		// A mangled field is a miss, not a failure; the next Put repairs it.
		rc.log.WarnContext(ctx, "Cached entry is corrupt, treating as miss", "city", city, "error", err)
		return nil, nil
	}

	return &entry, nil
}

// Put upserts the entry for city.
func (rc *RedisCache) Put(ctx context.Context, city string, entry models.CacheEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	if err = rc.client.HSet(ctx, cacheKey, city, string(raw)).Err(); err != nil {
		return fmt.Errorf("failed to write cached coordinates: %w", err)
	}

	return nil
}

// Persist is a no-op; every Put already reached redis.
func (rc *RedisCache) Persist(_ context.Context) error {
	return nil
}
