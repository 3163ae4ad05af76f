package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertoasis/servicemap/internal/config"
	"github.com/desertoasis/servicemap/internal/geocache"
	"github.com/desertoasis/servicemap/internal/geocoding"
	"github.com/desertoasis/servicemap/internal/metrics"
	"github.com/desertoasis/servicemap/internal/render"
	"github.com/desertoasis/servicemap/internal/service"
	"github.com/desertoasis/servicemap/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	// Create a separate registry for metrics with exemplar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	// Build the cache backend. Only the postgres backend keeps a database
	// connection; the health check pings it when present.
	var pool *pgxpool.Pool
	cacheConfig := geocache.BackendConfig{
		Type:   geocache.BackendType(cfg.CacheBackend),
		Path:   cfg.CachePath,
		Logger: logger,
	}
	switch cacheConfig.Type {
	case geocache.BackendPostgres:
		var err error
		pool, err = geocache.NewDatabase(
			ctx, cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
		)
		if err != nil {
			log.Fatalf("Failed to connect to DB: %v", err)
		}
		cacheConfig.DB = pool
	case geocache.BackendRedis:
		cacheConfig.Redis = geocache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password)
	}

	cache, err := geocache.NewCache(cacheConfig)
	if err != nil {
		log.Fatalf("Failed to create cache backend: %v", err)
	}

	logger.InfoContext(ctx, "Geocode cache initialized", "backend", cfg.CacheBackend)

	// Create geocoding provider using factory pattern based on configuration
	geoProvider, err := geocoding.NewProvider(geocoding.ProviderConfig{
		Type:        geocoding.ProviderType(cfg.ProviderType),
		APIKey:      cfg.APIKey,
		MinInterval: cfg.GeocodeDelay,
		Logger:      logger,
	})
	if err != nil {
		log.Fatalf("Failed to create geocoding provider: %v", err)
	}

	logger.InfoContext(ctx, "Geocoding provider initialized", "type", cfg.ProviderType)

	renderer := render.New(logger)
	areaStore := store.New(cfg.AreasPath, logger)

	pipeline := service.New(
		logger,
		areaStore,
		cache,
		geoProvider,
		cfg.ProviderType, // Provider name for metrics
		renderer,
		appMetrics,
		service.Options{
			Region:       cfg.Region,
			GeocodeDelay: cfg.GeocodeDelay,
			MapCenterLat: cfg.MapCenterLat,
			MapCenterLon: cfg.MapCenterLon,
			MapZoom:      cfg.MapZoom,
		},
	)

	// Log that the application has started.
	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	// Start the HTTP server in a goroutine to allow main to listen for signals.
	go startServer(ctx, logger, reg, pool, renderer, cfg.Port)

	go pipeline.RunEvery(ctx, cfg.RefreshInterval)

	// Wait for the context to be canceled (e.g., by Ctrl+C).
	<-ctx.Done()

	// Log that a shutdown signal has been received.
	logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")

	if pool != nil {
		pool.Close()
	}

	// Log graceful shutdown completion.
	logger.InfoContext(ctx, "Application stopped gracefully.")
}

// startServer starts the HTTP server that provides the map page, the marker
// data, and the health check and metrics endpoints. It listens on the
// specified port and logs the server's status and any errors encountered.
func startServer(
	ctx context.Context,
	log *slog.Logger,
	reg *prometheus.Registry,
	pool *pgxpool.Pool,
	renderer *render.Renderer,
	port int,
) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(writer http.ResponseWriter, _ *http.Request) {
		log.DebugContext(ctx, "Performing health checks...")
		status, body := http.StatusOK, "OK"
		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				status, body = http.StatusServiceUnavailable, "DB ping failed"
			}
		}
		writer.WriteHeader(status)
		if _, err := writer.Write([]byte(body)); err != nil {
			log.ErrorContext(ctx, "failed to write reply", "error", err)
		}

		log.DebugContext(ctx, "Health checks completed", "status", status)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/", renderer.Handler())

	log.InfoContext(ctx, "Starting HTTP server", "port", port)
	readTimeout := 5
	writeTimeout := 10
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		log.ErrorContext(ctx, "HTTP server failed", "error", err)
	}
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelWarn,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelError,
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}
