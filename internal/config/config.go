package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the configuration settings for the service-area map service.
//
// Fields:
// - Env: The current environment (e.g., local, development, production).
// - Port: The port for the HTTP server (map page, health, metrics).
// - AreasPath: Path to the static area data resource.
// - Region: Region suffix appended to every geocode query (e.g. a state name).
// - ProviderType: The geocoding provider to use (nominatim, google).
// - APIKey: The API key for the provider (required for Google).
// - GeocodeDelay: Fixed delay between consecutive geocode requests.
// - RefreshInterval: Re-run interval for the pipeline; zero means a single run.
// - CacheBackend: The geocode cache backend (file, postgres, redis).
// - CachePath: Snapshot path for the file cache backend.
// - MapCenterLat / MapCenterLon / MapZoom: Initial map viewport.
// - Database: PostgreSQL settings for the postgres cache backend.
// - Redis: Redis settings for the redis cache backend.
type Config struct {
	Env             string
	Port            int
	AreasPath       string
	Region          string
	ProviderType    string
	APIKey          string
	GeocodeDelay    time.Duration
	RefreshInterval time.Duration
	CacheBackend    string
	CachePath       string
	MapCenterLat    float64
	MapCenterLon    float64
	MapZoom         int
	Database        PostgresConfig
	Redis           RedisConfig
}

// PostgresConfig holds the connection details for the postgres cache backend.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// RedisConfig holds the connection details for the redis cache backend.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

// MustLoad loads the configuration from the environment (with .env support)
// and returns a Config. It panics on malformed numeric or duration values.
func MustLoad() *Config {
	_ = godotenv.Load()

	port, err := strconv.Atoi(envOrDefault("SERVICEMAP_PORT", "8080"))
	if err != nil {
		panic("failed to parse port for HTTP server from configuration")
	}

	geocodeDelay, err := time.ParseDuration(envOrDefault("SERVICEMAP_GEOCODE_DELAY", "1200ms"))
	if err != nil {
		panic("failed to parse geocode delay from configuration")
	}

	refreshInterval, err := time.ParseDuration(envOrDefault("SERVICEMAP_REFRESH_INTERVAL", "0s"))
	if err != nil {
		panic("failed to parse refresh interval from configuration")
	}

	centerLat, err := strconv.ParseFloat(envOrDefault("SERVICEMAP_MAP_LAT", "33.3528"), 64)
	if err != nil {
		panic("failed to parse map center latitude from configuration")
	}

	centerLon, err := strconv.ParseFloat(envOrDefault("SERVICEMAP_MAP_LON", "-111.7890"), 64)
	if err != nil {
		panic("failed to parse map center longitude from configuration")
	}

	zoom, err := strconv.Atoi(envOrDefault("SERVICEMAP_MAP_ZOOM", "11"))
	if err != nil {
		panic("failed to parse map zoom from configuration, must be an integer")
	}

	return &Config{
		Env:             envOrDefault("SERVICEMAP_ENV", "production"),
		Port:            port,
		AreasPath:       envOrDefault("SERVICEMAP_AREAS_PATH", "data/areas.json"),
		Region:          envOrDefault("SERVICEMAP_REGION", "Arizona"),
		ProviderType:    envOrDefault("SERVICEMAP_PROVIDER_TYPE", "nominatim"),
		APIKey:          os.Getenv("SERVICEMAP_PROVIDER_KEY"),
		GeocodeDelay:    geocodeDelay,
		RefreshInterval: refreshInterval,
		CacheBackend:    envOrDefault("SERVICEMAP_CACHE_BACKEND", "file"),
		CachePath:       envOrDefault("SERVICEMAP_CACHE_PATH", "data/geocache.json"),
		MapCenterLat:    centerLat,
		MapCenterLon:    centerLon,
		MapZoom:         zoom,
		Database: PostgresConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     envOrDefault("DB_PORT", "5432"),
			User:     os.Getenv("DB_USERNAME"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
		},
		Redis: RedisConfig{
			Host:     envOrDefault("REDIS_HOST", "127.0.0.1"),
			Port:     envOrDefault("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASS"),
		},
	}
}

func envOrDefault(key, override string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = override
	}

	return value
}
