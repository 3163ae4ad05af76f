package render_test

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertoasis/servicemap/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRenderer(t *testing.T) *render.Renderer {
	t.Helper()
	r := render.New(slog.Default())
	require.NoError(t, r.Initialize(33.3528, -111.789, 11))
	return r
}

func TestRenderer_Initialize(t *testing.T) {
	r := render.New(slog.Default())
	assert.False(t, r.Initialized())

	require.NoError(t, r.Initialize(33.0, -111.0, 10))
	assert.True(t, r.Initialized())

	// Idempotent: a second call keeps the renderer usable.
	require.NoError(t, r.Initialize(50.0, 30.0, 5))
	assert.True(t, r.Initialized())
}

func TestRenderer_FitToMarkers(t *testing.T) {
	t.Run("zero markers is a no-op", func(t *testing.T) {
		r := newRenderer(t)

		r.FitToMarkers()

		assert.Nil(t, r.Viewport())
	})

	t.Run("bounds include all markers with padding", func(t *testing.T) {
		r := newRenderer(t)
		r.AddMarker(33.0, -112.0, "A", "")
		r.AddMarker(34.0, -111.0, "B", "")

		r.FitToMarkers()

		bounds := r.Viewport()
		require.NotNil(t, bounds)
		// Span is 1.0 on each axis, padding is 20% per side.
		assert.InEpsilon(t, 32.8, bounds.MinLat, 0.0001)
		assert.InEpsilon(t, 34.2, bounds.MaxLat, 0.0001)
		assert.InEpsilon(t, -112.2, bounds.MinLon, 0.0001)
		assert.InEpsilon(t, -110.8, bounds.MaxLon, 0.0001)
	})

	t.Run("single marker produces degenerate bounds", func(t *testing.T) {
		r := newRenderer(t)
		r.AddMarker(33.43, -111.94, "Tempe", "85281")

		r.FitToMarkers()

		bounds := r.Viewport()
		require.NotNil(t, bounds)
		assert.InEpsilon(t, 33.43, bounds.MinLat, 0.0001)
		assert.InEpsilon(t, 33.43, bounds.MaxLat, 0.0001)
	})

	t.Run("invalid coordinates keep the previous viewport", func(t *testing.T) {
		r := newRenderer(t)
		r.AddMarker(33.0, -112.0, "A", "")
		r.FitToMarkers()
		before := r.Viewport()
		require.NotNil(t, before)

		r.AddMarker(math.NaN(), -111.0, "broken", "")
		r.FitToMarkers()

		assert.Equal(t, before, r.Viewport())
	})
}

func TestRenderer_Reset(t *testing.T) {
	r := newRenderer(t)
	r.AddMarker(33.0, -112.0, "A", "")
	r.FitToMarkers()

	r.Reset()

	assert.Empty(t, r.Markers())
	assert.Nil(t, r.Viewport())
}

func TestRenderer_GeoJSON(t *testing.T) {
	r := newRenderer(t)
	r.AddMarker(33.35, -111.79, "Gilbert", "Gilbert, AZ")

	raw, err := r.GeoJSON()
	require.NoError(t, err)

	var collection render.FeatureCollection
	require.NoError(t, json.Unmarshal(raw, &collection))
	assert.Equal(t, "FeatureCollection", collection.Type)
	require.Len(t, collection.Features, 1)

	feature := collection.Features[0]
	assert.Equal(t, "Point", feature.Geometry.Type)
	require.Len(t, feature.Geometry.Coordinates, 2)
	assert.InEpsilon(t, -111.79, feature.Geometry.Coordinates[0], 0.0001) // lon first
	assert.InEpsilon(t, 33.35, feature.Geometry.Coordinates[1], 0.0001)
	assert.Equal(t, "Gilbert", feature.Properties["title"])
	assert.Equal(t, "Gilbert, AZ", feature.Properties["details"])
}

func TestRenderer_Handler(t *testing.T) {
	t.Run("serves markers", func(t *testing.T) {
		r := newRenderer(t)
		r.AddMarker(33.43, -111.94, "Tempe", "85281")

		srv := httptest.NewServer(r.Handler())
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/areas.geojson")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))

		var collection render.FeatureCollection
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&collection))
		assert.Len(t, collection.Features, 1)
	})

	t.Run("serves the map page", func(t *testing.T) {
		r := newRenderer(t)

		srv := httptest.NewServer(r.Handler())
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	})

	t.Run("page unavailable before initialization", func(t *testing.T) {
		r := render.New(slog.Default())

		srv := httptest.NewServer(r.Handler())
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}
