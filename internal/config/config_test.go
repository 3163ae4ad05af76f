package config_test

import (
	"testing"
	"time"

	"github.com/desertoasis/servicemap/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestMustLoad(t *testing.T) {
	t.Setenv("SERVICEMAP_ENV", "local")
	t.Setenv("SERVICEMAP_REGION", "Nevada")
	t.Setenv("SERVICEMAP_GEOCODE_DELAY", "2s")
	t.Setenv("SERVICEMAP_PROVIDER_KEY", "testAPIKey")
	t.Setenv("DB_HOST", "testHost")
	t.Setenv("DB_PORT", "12345")
	t.Setenv("DB_USERNAME", "admin")
	t.Setenv("DB_PASSWORD", "adminpass")
	t.Setenv("DB_NAME", "testName")

	cfg := config.MustLoad()

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "Nevada", cfg.Region)
	assert.Equal(t, "nominatim", cfg.ProviderType)
	assert.Equal(t, "testAPIKey", cfg.APIKey)
	assert.Equal(t, 2*time.Second, cfg.GeocodeDelay)
	assert.Equal(t, time.Duration(0), cfg.RefreshInterval)
	assert.Equal(t, "file", cfg.CacheBackend)
	assert.Equal(t, "data/geocache.json", cfg.CachePath)
	assert.Equal(t, "data/areas.json", cfg.AreasPath)
	assert.InEpsilon(t, 33.3528, cfg.MapCenterLat, 0.0001)
	assert.InEpsilon(t, -111.7890, cfg.MapCenterLon, 0.0001)
	assert.Equal(t, 11, cfg.MapZoom)
	assert.Equal(t, "testHost", cfg.Database.Host)
	assert.Equal(t, "12345", cfg.Database.Port)
	assert.Equal(t, "admin", cfg.Database.User)
	assert.Equal(t, "adminpass", cfg.Database.Password)
	assert.Equal(t, "testName", cfg.Database.Name)
}

func TestMustLoad_PortError(t *testing.T) {
	t.Setenv("SERVICEMAP_PORT", "error_value")

	assert.PanicsWithValue(t, "failed to parse port for HTTP server from configuration", func() {
		config.MustLoad()
	})
}

func TestMustLoad_GeocodeDelayError(t *testing.T) {
	t.Setenv("SERVICEMAP_GEOCODE_DELAY", "error_value")

	assert.PanicsWithValue(t, "failed to parse geocode delay from configuration", func() {
		config.MustLoad()
	})
}

func TestMustLoad_RefreshIntervalError(t *testing.T) {
	t.Setenv("SERVICEMAP_REFRESH_INTERVAL", "error_value")

	assert.PanicsWithValue(t, "failed to parse refresh interval from configuration", func() {
		config.MustLoad()
	})
}

func TestMustLoad_ZoomError(t *testing.T) {
	t.Setenv("SERVICEMAP_MAP_ZOOM", "error_value")

	assert.PanicsWithValue(t, "failed to parse map zoom from configuration, must be an integer", func() {
		config.MustLoad()
	})
}
