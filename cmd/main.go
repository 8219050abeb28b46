package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/UnknownOlympus/crashmap/internal/config"
	"github.com/UnknownOlympus/crashmap/internal/loader"
	"github.com/UnknownOlympus/crashmap/internal/metrics"
	"github.com/UnknownOlympus/crashmap/internal/models"
	"github.com/UnknownOlympus/crashmap/internal/render"
	"github.com/UnknownOlympus/crashmap/internal/repository"
	"github.com/UnknownOlympus/crashmap/internal/resource"
	"github.com/UnknownOlympus/crashmap/internal/server"
	"github.com/UnknownOlympus/crashmap/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
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

	fetcher := resource.NewFetcher(resource.FetcherConfig{
		Timeout: cfg.FetchTimeout,
		Logger:  logger,
	})

	recordLoader, err := loader.New(fetcher, loader.Options{
		LatIndex: cfg.LatColumn,
		LngIndex: cfg.LngColumn,
	}, logger, appMetrics)
	if err != nil {
		log.Fatalf("Failed to create record loader: %v", err)
	}

	// The database is optional; without it markers live in memory only.
	var (
		repo   repository.Interface
		pinger server.Pinger
	)
	if cfg.Database.Enabled() {
		dtb, dbErr := repository.NewDatabase(
			cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
		)
		if dbErr != nil {
			log.Fatalf("Failed to connect to DB: %v", dbErr)
		}
		defer dtb.Close()

		pgRepo := repository.NewRepository(dtb, logger)
		if dbErr = pgRepo.Migrate(ctx); dbErr != nil {
			log.Fatalf("Failed to migrate DB: %v", dbErr)
		}
		repo, pinger = pgRepo, dtb
	}

	var renderer service.Renderer
	if cfg.Map.APIKey != "" {
		staticMap, mapErr := render.NewStaticMapRenderer(render.MapConfig{
			APIKey:     cfg.Map.APIKey,
			Center:     models.Coordinates{Latitude: cfg.Map.CenterLat, Longitude: cfg.Map.CenterLng},
			Zoom:       cfg.Map.Zoom,
			Size:       cfg.Map.Size,
			MaxMarkers: cfg.Map.MaxMarkers,
			Logger:     logger,
		}, appMetrics)
		if mapErr != nil {
			log.Fatalf("Failed to create static map renderer: %v", mapErr)
		}
		renderer = staticMap
	} else {
		logger.WarnContext(ctx, "No maps API key configured, map rendering is disabled")
	}

	mapService := service.NewMapService(
		logger,
		recordLoader,
		repo,
		renderer,
		appMetrics,
		cfg.Source,
		cfg.RefreshInterval,
	)

	// Serve the last persisted markers until the first load completes.
	if restored, restoreErr := mapService.Restore(ctx); restoreErr != nil {
		logger.WarnContext(ctx, "Failed to restore markers", "error", restoreErr)
	} else if restored > 0 {
		logger.InfoContext(ctx, "Markers restored from database", "count", restored)
	}

	// Log that the application has started.
	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	httpServer := server.New(logger, mapService, reg, pinger, cfg.ReloadPerMinute)
	go func() {
		if srvErr := httpServer.ListenAndServe(ctx, cfg.Port); srvErr != nil {
			logger.ErrorContext(ctx, "HTTP server failed", "error", srvErr)
			stop()
		}
	}()

	go mapService.Run(ctx)

	// Wait for the context to be canceled (e.g., by Ctrl+C).
	<-ctx.Done()

	// Log that a shutdown signal has been received.
	logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")

	// Log graceful shutdown completion.
	logger.InfoContext(ctx, "Application stopped gracefully.")
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
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelInfo,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelWarn,
				AddSource: false,
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
				Level:     slog.LevelError,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)

		log.Error(
			"The env parameter was not specified	 or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}
