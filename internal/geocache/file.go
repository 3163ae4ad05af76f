package geocache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/desertoasis/servicemap/internal/models"
)

// FileCache keeps the whole cache in memory as one map and snapshots it to a
// single JSON document on Persist. The snapshot is loaded once at
// construction; an absent or corrupt snapshot starts an empty cache rather
// than failing, so a bad file can never block a pipeline run.
type FileCache struct {
	path    string
	log     *slog.Logger
	entries map[string]models.CacheEntry
}

// NewFileCache creates a FileCache backed by the snapshot at path.
func NewFileCache(path string, log *slog.Logger) *FileCache {
	fc := &FileCache{
		path:    path,
		log:     log,
		entries: make(map[string]models.CacheEntry),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn("Failed to read geocode cache snapshot, starting empty", "path", path, "error", err)
		}
		return fc
	}

	if err = json.Unmarshal(raw, &fc.entries); err != nil {
		log.Warn("Geocode cache snapshot is corrupt, starting empty", "path", path, "error", err)
		fc.entries = make(map[string]models.CacheEntry)
	}

	return fc
}

// Get returns the cached entry for city, or (nil, nil) when absent.
func (fc *FileCache) Get(_ context.Context, city string) (*models.CacheEntry, error) {
	entry, ok := fc.entries[city]
	if !ok {
		return nil, nil
	}

	return &entry, nil
}

// Put upserts the entry in memory. The snapshot is not touched until Persist.
func (fc *FileCache) Put(_ context.Context, city string, entry models.CacheEntry) error {
	fc.entries[city] = entry
	return nil
}

// Persist writes the whole cache as one JSON snapshot. The write goes
// through a temp file and a rename so a failed write never clobbers the
// previous snapshot.
func (fc *FileCache) Persist(ctx context.Context) error {
	raw, err := json.MarshalIndent(fc.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode geocode cache: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(fc.path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp := fc.path + ".tmp"
	if err = os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write cache snapshot: %w", err)
	}

	if err = os.Rename(tmp, fc.path); err != nil {
		return fmt.Errorf("failed to replace cache snapshot: %w", err)
	}

	fc.log.DebugContext(ctx, "Persisted geocode cache snapshot", "path", fc.path, "entries", len(fc.entries))

	return nil
}
