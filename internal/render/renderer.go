// Package render owns the map surface: the marker set, the viewport, and
// the HTTP handlers that serve the embeddable map page and its markers.
package render

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"math"
	"net/http"
	"sync"

	"github.com/desertoasis/servicemap/internal/models"
)

// boundsPadding is the margin added around the fitted viewport, as a
// fraction of each axis span.
const boundsPadding = 0.2

// Bounds is a latitude/longitude bounding box.
type Bounds struct {
	MinLat float64 `json:"minLat"`
	MinLon float64 `json:"minLon"`
	MaxLat float64 `json:"maxLat"`
	MaxLon float64 `json:"maxLon"`
}

// Renderer holds the marker set and the current viewport. The pipeline is
// the only writer, but HTTP requests read concurrently, hence the RWMutex.
type Renderer struct {
	log *slog.Logger

	mu          sync.RWMutex
	initialized bool
	centerLat   float64
	centerLon   float64
	zoom        int
	markers     []models.Marker
	viewport    *Bounds
	page        *template.Template
}

// New creates a Renderer. Initialize must be called before markers are added.
func New(log *slog.Logger) *Renderer {
	return &Renderer{log: log}
}

// Initialize sets the initial viewport and prepares the map page template.
// It is idempotent; repeated calls keep the first center and zoom.
func (r *Renderer) Initialize(centerLat, centerLon float64, zoom int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return nil
	}

	page, err := template.New("map").Parse(mapPageTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse map page template: %w", err)
	}

	r.page = page
	r.centerLat = centerLat
	r.centerLon = centerLon
	r.zoom = zoom
	r.initialized = true

	return nil
}

// Initialized reports whether Initialize has completed.
func (r *Renderer) Initialized() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.initialized
}

// AddMarker appends a marker to the renderer's set.
func (r *Renderer) AddMarker(lat, lon float64, title, details string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.markers = append(r.markers, models.Marker{Lat: lat, Lon: lon, Title: title, Details: details})
}

// Markers returns a copy of the current marker set.
func (r *Renderer) Markers() []models.Marker {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Marker, len(r.markers))
	copy(out, r.markers)
	return out
}

// Reset drops all markers and the fitted viewport ahead of a new run.
func (r *Renderer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.markers = nil
	r.viewport = nil
}

// FitToMarkers recomputes the viewport to include every current marker with
// a padding margin. With zero markers it does nothing. A marker with an
// invalid coordinate is logged and the previous viewport kept; the map must
// keep serving whatever it last had.
func (r *Renderer) FitToMarkers() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.markers) == 0 {
		return
	}

	bounds := Bounds{
		MinLat: math.Inf(1), MinLon: math.Inf(1),
		MaxLat: math.Inf(-1), MaxLon: math.Inf(-1),
	}
	for _, m := range r.markers {
		if math.IsNaN(m.Lat) || math.IsNaN(m.Lon) || math.IsInf(m.Lat, 0) || math.IsInf(m.Lon, 0) {
			r.log.Warn("Skipping viewport fit, marker has invalid coordinates",
				"title", m.Title, "lat", m.Lat, "lon", m.Lon)
			return
		}
		bounds.MinLat = math.Min(bounds.MinLat, m.Lat)
		bounds.MaxLat = math.Max(bounds.MaxLat, m.Lat)
		bounds.MinLon = math.Min(bounds.MinLon, m.Lon)
		bounds.MaxLon = math.Max(bounds.MaxLon, m.Lon)
	}

	latPad := (bounds.MaxLat - bounds.MinLat) * boundsPadding
	lonPad := (bounds.MaxLon - bounds.MinLon) * boundsPadding
	bounds.MinLat -= latPad
	bounds.MaxLat += latPad
	bounds.MinLon -= lonPad
	bounds.MaxLon += lonPad

	r.viewport = &bounds

	r.log.Debug("Fitted viewport to markers", "markers", len(r.markers),
		"min_lat", bounds.MinLat, "max_lat", bounds.MaxLat,
		"min_lon", bounds.MinLon, "max_lon", bounds.MaxLon)
}

// Viewport returns the fitted bounds, or nil when no fit has happened yet.
func (r *Renderer) Viewport() *Bounds {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.viewport == nil {
		return nil
	}
	bounds := *r.viewport
	return &bounds
}

// GeoJSON encodes the current marker set as a FeatureCollection of points.
func (r *Renderer) GeoJSON() ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	collection := FeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]Feature, 0, len(r.markers)),
	}
	for _, m := range r.markers {
		collection.Features = append(collection.Features, Feature{
			Type: "Feature",
			Properties: map[string]string{
				"title":   m.Title,
				"details": m.Details,
			},
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{m.Lon, m.Lat},
			},
		})
	}

	raw, err := json.Marshal(collection)
	if err != nil {
		return nil, fmt.Errorf("failed to encode markers as GeoJSON: %w", err)
	}

	return raw, nil
}

// Handler serves the map page at / and the marker set at /areas.geojson.
func (r *Renderer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", r.servePage)
	mux.HandleFunc("/areas.geojson", r.serveGeoJSON)
	return mux
}

type pageData struct {
	CenterLat float64
	CenterLon float64
	Zoom      int
	Viewport  *Bounds
}

func (r *Renderer) servePage(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path != "/" {
		http.NotFound(w, req)
		return
	}

	r.mu.RLock()
	ready := r.initialized
	page := r.page
	data := pageData{
		CenterLat: r.centerLat,
		CenterLon: r.centerLon,
		Zoom:      r.zoom,
	}
	if r.viewport != nil {
		bounds := *r.viewport
		data.Viewport = &bounds
	}
	r.mu.RUnlock()

	if !ready {
		http.Error(w, "map is not ready yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Execute(w, data); err != nil {
		r.log.Error("Failed to render map page", "error", err)
	}
}

func (r *Renderer) serveGeoJSON(w http.ResponseWriter, _ *http.Request) {
	raw, err := r.GeoJSON()
	if err != nil {
		r.log.Error("Failed to encode markers", "error", err)
		http.Error(w, "failed to encode markers", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	if _, err = w.Write(raw); err != nil {
		r.log.Error("Failed to write markers reply", "error", err)
	}
}

// mapPageTemplate is the embeddable Leaflet page the business site iframes.
const mapPageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Service Areas</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>html, body, #map { height: 100%; margin: 0; }</style>
</head>
<body>
<div id="map"></div>
<script>
const map = L.map('map').setView([{{.CenterLat}}, {{.CenterLon}}], {{.Zoom}});
L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
  attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);
{{if .Viewport}}
map.fitBounds([[{{.Viewport.MinLat}}, {{.Viewport.MinLon}}], [{{.Viewport.MaxLat}}, {{.Viewport.MaxLon}}]]);
{{end}}
fetch('/areas.geojson')
  .then(resp => resp.json())
  .then(data => {
    L.geoJSON(data, {
      onEachFeature: (feature, layer) => {
        const p = feature.properties;
        layer.bindPopup('<b>' + p.title + '</b><br>' + p.details);
      }
    }).addTo(map);
  });
</script>
</body>
</html>
`
