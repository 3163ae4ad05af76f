package geocache

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// BackendType represents the type of cache backend.
type BackendType string

const (
	// BackendFile snapshots the cache to a single JSON file.
	BackendFile BackendType = "file"
	// BackendPostgres stores one row per city via pgx.
	BackendPostgres BackendType = "postgres"
	// BackendRedis stores the cache in one redis hash.
	BackendRedis BackendType = "redis"
)

// BackendConfig holds configuration for creating a cache backend. The
// caller owns the database pool and redis client lifecycles; only the
// backend matching Type needs its collaborator set.
type BackendConfig struct {
	Type   BackendType   // Type of backend to create
	Path   string        // Snapshot path (file backend)
	DB     Database      // Connection pool (postgres backend)
	Redis  *redis.Client // Client (redis backend)
	Logger *slog.Logger  // Logger for the backend
}

// NewCache creates a geocode cache backend based on the provided
// configuration, mirroring the geocoding provider factory.
func NewCache(config BackendConfig) (Cache, error) {
	switch config.Type {
	case BackendFile:
		if config.Path == "" {
			return nil, errors.New("snapshot path is required for file cache backend")
		}
		return NewFileCache(config.Path, config.Logger), nil
	case BackendPostgres:
		if config.DB == nil {
			return nil, errors.New("database connection is required for postgres cache backend")
		}
		return NewPostgresCache(config.DB, config.Logger), nil
	case BackendRedis:
		if config.Redis == nil {
			return nil, errors.New("redis client is required for redis cache backend")
		}
		return NewRedisCache(config.Redis, config.Logger), nil
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", config.Type)
	}
}
