// Package service orchestrates the service-area map pipeline: load the area
// list, resolve each area's coordinates (inline data, then cache, then
// geocoding), render markers, and persist the cache.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/desertoasis/servicemap/internal/geocache"
	"github.com/desertoasis/servicemap/internal/geocoding"
	"github.com/desertoasis/servicemap/internal/metrics"
	"github.com/desertoasis/servicemap/internal/models"
)

// AreaSource yields the service-area records for one run.
type AreaSource interface {
	Load(ctx context.Context) ([]models.Area, error)
}

// Renderer is the map surface the pipeline draws on.
type Renderer interface {
	Initialize(centerLat, centerLon float64, zoom int) error
	AddMarker(lat, lon float64, title, details string)
	FitToMarkers()
	Reset()
}

// Options tunes one pipeline instance. Zero values fall back to the
// defaults set by New.
type Options struct {
	Region         string        // Region suffix for geocode queries ("<city>, <region>")
	GeocodeDelay   time.Duration // Fixed delay between consecutive geocode requests
	InitAttempts   int           // Renderer initialization attempts before giving up
	InitRetryDelay time.Duration // Delay between renderer initialization attempts
	MapCenterLat   float64       // Initial map center latitude
	MapCenterLon   float64       // Initial map center longitude
	MapZoom        int           // Initial map zoom level
}

// Pipeline resolves service areas into map markers. All collaborators are
// injected; the pipeline holds no process-wide state of its own.
type Pipeline struct {
	log          *slog.Logger       // Logger for pipeline activities
	source       AreaSource         // Source of service-area records
	cache        geocache.Cache     // Persistent geocode cache
	provider     geocoding.Provider // Geocoding provider for cache misses
	providerName string             // Provider name for metrics labeling
	renderer     Renderer           // Map surface receiving markers
	metrics      *metrics.Metrics   // Metrics for tracking pipeline behavior
	opts         Options
}

// New creates a Pipeline. GeocodeDelay defaults to 1200ms, renderer
// initialization to 10 attempts spaced 500ms apart.
func New(
	log *slog.Logger,
	source AreaSource,
	cache geocache.Cache,
	provider geocoding.Provider,
	providerName string,
	renderer Renderer,
	metrics *metrics.Metrics,
	opts Options,
) *Pipeline {
	if opts.GeocodeDelay <= 0 {
		opts.GeocodeDelay = 1200 * time.Millisecond
	}
	if opts.InitAttempts <= 0 {
		opts.InitAttempts = 10
	}
	if opts.InitRetryDelay <= 0 {
		opts.InitRetryDelay = 500 * time.Millisecond
	}

	return &Pipeline{
		log:          log,
		source:       source,
		cache:        cache,
		provider:     provider,
		providerName: providerName,
		renderer:     renderer,
		metrics:      metrics,
		opts:         opts,
	}
}

// Run executes one full pipeline pass. A load failure aborts the run with
// an error; every later failure is recovered locally and at worst costs a
// marker. A canceled context stops the drain between items, and whatever
// was resolved by then is still fitted and persisted.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.awaitRenderer(ctx); err != nil {
		p.log.ErrorContext(ctx, "Map renderer unavailable, skipping run", "error", err)
		return err
	}
	p.renderer.Reset()

	areas, err := p.source.Load(ctx)
	if err != nil {
		p.log.ErrorContext(ctx, "Failed to load area data, no markers rendered", "error", err)
		return err
	}

	queue := p.classify(ctx, areas)
	p.metrics.QueueDepth.Set(float64(len(queue)))

	p.drain(ctx, queue)

	p.renderer.FitToMarkers()

	if err = p.cache.Persist(ctx); err != nil {
		// Best effort: the cache is an optimization, the map is already drawn.
		p.log.WarnContext(ctx, "Failed to persist geocode cache", "error", err)
	}

	p.log.InfoContext(ctx, "Pipeline run finished", "areas", len(areas), "geocoded", len(queue))

	return nil
}

// RunEvery executes Run immediately and then again on every tick until the
// context is canceled. A non-positive interval means a single run.
func (p *Pipeline) RunEvery(ctx context.Context, interval time.Duration) {
	if err := p.Run(ctx); err != nil {
		p.log.ErrorContext(ctx, "Pipeline run failed", "error", err)
	}

	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.InfoContext(ctx, "Service-area pipeline stopped.")
			return
		case <-ticker.C:
			p.log.InfoContext(ctx, "Refreshing service-area map...")
			if err := p.Run(ctx); err != nil {
				p.log.ErrorContext(ctx, "Pipeline run failed", "error", err)
			}
		}
	}
}

// awaitRenderer initializes the renderer with a bounded retry instead of
// polling forever; after the attempt cap the run is abandoned.
func (p *Pipeline) awaitRenderer(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= p.opts.InitAttempts; attempt++ {
		lastErr = p.renderer.Initialize(p.opts.MapCenterLat, p.opts.MapCenterLon, p.opts.MapZoom)
		if lastErr == nil {
			return nil
		}

		p.log.WarnContext(ctx, "Map renderer not ready, retrying",
			"attempt", attempt, "max_attempts", p.opts.InitAttempts, "error", lastErr)

		select {
		case <-ctx.Done():
			return fmt.Errorf("renderer initialization canceled: %w", ctx.Err())
		case <-time.After(p.opts.InitRetryDelay):
		}
	}

	return fmt.Errorf("map renderer failed to initialize after %d attempts: %w", p.opts.InitAttempts, lastErr)
}

// classify walks the records in list order: inline coordinates render
// immediately, cached cities render from the cache, everything else is
// queued for geocoding. If any marker was rendered synchronously the
// viewport is fitted once so the map is usable while the queue drains.
func (p *Pipeline) classify(ctx context.Context, areas []models.Area) []models.QueueItem {
	var queue []models.QueueItem
	rendered := 0

	for _, area := range areas {
		if coords, ok := parseCoordinates(area.Latitude, area.Longitude); ok {
			p.renderer.AddMarker(coords.Latitude, coords.Longitude, area.City, area.ZipCodes)
			p.metrics.AreasProcessed.WithLabelValues("inline").Inc()
			rendered++
			continue
		}

		entry, err := p.cache.Get(ctx, area.City)
		if err != nil {
			// A broken cache read downgrades to a miss; the area is geocoded again.
			p.log.WarnContext(ctx, "Geocode cache read failed, treating as miss",
				"city", area.City, "error", err)
		}
		if entry != nil {
			details := entry.DisplayName
			if details == "" {
				details = area.ZipCodes
			}
			p.renderer.AddMarker(entry.Lat, entry.Lon, area.City, details)
			p.metrics.AreasProcessed.WithLabelValues("cached").Inc()
			rendered++
			continue
		}

		queue = append(queue, models.QueueItem{City: area.City, FallbackDetails: area.ZipCodes})
	}

	if rendered > 0 {
		p.renderer.FitToMarkers()
	}

	return queue
}

// drain processes the geocode queue one request at a time, waiting the
// fixed delay after each attempt before the next one. The external
// service's usage policy requires this pacing.
func (p *Pipeline) drain(ctx context.Context, queue []models.QueueItem) {
	for i, item := range queue {
		if ctx.Err() != nil {
			p.log.InfoContext(ctx, "Drain interrupted", "remaining", len(queue)-i)
			return
		}

		p.resolve(ctx, item)
		p.metrics.QueueDepth.Set(float64(len(queue) - i - 1))

		if i == len(queue)-1 {
			break
		}
		select {
		case <-ctx.Done():
			p.log.InfoContext(ctx, "Drain interrupted", "remaining", len(queue)-i-1)
			return
		case <-time.After(p.opts.GeocodeDelay):
		}
	}
}

// resolve geocodes a single queued area. A miss or failure costs that
// area's marker and nothing else.
func (p *Pipeline) resolve(ctx context.Context, item models.QueueItem) {
	query := item.City + ", " + p.opts.Region

	startTime := time.Now()
	result, err := p.provider.Geocode(ctx, query)
	p.metrics.RequestSeconds.WithLabelValues(p.providerName).Observe(time.Since(startTime).Seconds())

	if err != nil {
		p.metrics.AreasProcessed.WithLabelValues("miss").Inc()
		if !errors.Is(err, geocoding.ErrNoResults) {
			p.metrics.APIErrors.Inc()
		}
		p.log.WarnContext(ctx, "Geocoding miss, no marker for area", "city", item.City, "error", err)
		return
	}

	entry := models.CacheEntry{
		Lat:         result.Latitude,
		Lon:         result.Longitude,
		DisplayName: result.DisplayName,
	}
	if err = p.cache.Put(ctx, item.City, entry); err != nil {
		p.log.WarnContext(ctx, "Failed to cache geocode result", "city", item.City, "error", err)
	}

	details := result.DisplayName
	if details == "" {
		details = item.FallbackDetails
	}
	p.renderer.AddMarker(result.Latitude, result.Longitude, item.City, details)
	p.metrics.AreasProcessed.WithLabelValues("geocoded").Inc()

	p.log.DebugContext(ctx, "Geocoded area", "city", item.City,
		"lat", result.Latitude, "lon", result.Longitude)
}

// parseCoordinates interprets the optional inline latitude/longitude pair.
// Both must be present and numeric for the record to count as having
// coordinates.
func parseCoordinates(latitude, longitude string) (models.Coordinates, bool) {
	if latitude == "" || longitude == "" {
		return models.Coordinates{}, false
	}

	lat, err := strconv.ParseFloat(latitude, 64)
	if err != nil {
		return models.Coordinates{}, false
	}
	lon, err := strconv.ParseFloat(longitude, 64)
	if err != nil {
		return models.Coordinates{}, false
	}

	return models.Coordinates{Latitude: lat, Longitude: lon}, true
}
