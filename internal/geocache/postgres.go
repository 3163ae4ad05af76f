package geocache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/desertoasis/servicemap/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Database is the subset of pgxpool.Pool the cache needs. Declared as an
// interface so tests can substitute a pgxmock pool.
type Database interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// NewDatabase creates a pgx connection pool for the given postgres instance.
func NewDatabase(ctx context.Context, host, port, user, password, name string) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, password, host, port, name)

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// PostgresCache stores one row per resolved city. Writes go through on Put,
// so Persist is a no-op.
type PostgresCache struct {
	db  Database
	log *slog.Logger
}

// NewPostgresCache creates a PostgresCache using the provided Database.
func NewPostgresCache(db Database, log *slog.Logger) *PostgresCache {
	return &PostgresCache{db: db, log: log}
}

// Get returns the cached entry for city, or (nil, nil) when no row exists.
func (pc *PostgresCache) Get(ctx context.Context, city string) (*models.CacheEntry, error) {
	query := `
		SELECT latitude, longitude, display_name
		FROM service_area_cache
		WHERE city = $1;
	`

	var entry models.CacheEntry
	err := pc.db.QueryRow(ctx, query, city).Scan(&entry.Lat, &entry.Lon, &entry.DisplayName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cached coordinates: %w", err)
	}

	pc.log.DebugContext(ctx, "Geocode cache hit", "city", city, "lat", entry.Lat, "lon", entry.Lon)

	return &entry, nil
}

// Put upserts the entry for city.
func (pc *PostgresCache) Put(ctx context.Context, city string, entry models.CacheEntry) error {
	query := `
		INSERT INTO service_area_cache (city, latitude, longitude, display_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (city) DO UPDATE
		SET latitude = $2, longitude = $3, display_name = $4;
	`

	_, err := pc.db.Exec(ctx, query, city, entry.Lat, entry.Lon, entry.DisplayName)
	if err != nil {
		return fmt.Errorf("failed to upsert cached coordinates: %w", err)
	}

	return nil
}

// Persist is a no-op; every Put already reached the database.
func (pc *PostgresCache) Persist(_ context.Context) error {
	return nil
}
