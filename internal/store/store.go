// Package store loads the static service-area data resource.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/desertoasis/servicemap/internal/models"
)

// ErrLoad is returned when the area data resource is unreachable or malformed.
// Load failures are fatal to a pipeline run; callers do not retry.
var ErrLoad = errors.New("failed to load area data")

// areaDocument is the on-disk shape of the area data resource.
type areaDocument struct {
	Areas []models.Area `json:"areas"`
}

// Store reads service-area records from a JSON resource at a fixed path.
type Store struct {
	path string
	log  *slog.Logger
}

// New creates a Store reading from the given path.
func New(path string, log *slog.Logger) *Store {
	return &Store{path: path, log: log}
}

// Load reads and decodes the area resource, returning the records in file
// order. Records with an empty city are skipped with a warning; when the
// same city appears more than once, the first record wins. Unreachable or
// malformed resources yield an error wrapping ErrLoad.
func (s *Store) Load(ctx context.Context) ([]models.Area, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrLoad, s.path, err)
	}

	var doc areaDocument
	if err = json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrLoad, s.path, err)
	}

	seen := make(map[string]bool, len(doc.Areas))
	areas := make([]models.Area, 0, len(doc.Areas))
	for _, area := range doc.Areas {
		if area.City == "" {
			s.log.WarnContext(ctx, "Skipping area record with empty city", "path", s.path)
			continue
		}
		if seen[area.City] {
			s.log.WarnContext(ctx, "Skipping duplicate area record", "city", area.City)
			continue
		}
		seen[area.City] = true
		areas = append(areas, area)
	}

	s.log.DebugContext(ctx, "Loaded area records", "path", s.path, "count", len(areas))

	return areas, nil
}
