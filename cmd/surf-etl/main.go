package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/surf-conditions-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/surf-conditions-etl/internal/adapter/kafka"
	"github.com/couchcryptid/surf-conditions-etl/internal/config"
	"github.com/couchcryptid/surf-conditions-etl/internal/observability"
	"github.com/couchcryptid/surf-conditions-etl/internal/pipeline"
	"github.com/couchcryptid/surf-conditions-etl/internal/spots"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	registry, err := spots.NewRegistry(cfg.SpotProfilesPath, logger)
	if err != nil {
		logger.Error("failed to load spot catalogue", "error", err)
		os.Exit(1)
	}

	engine := pipeline.NewAggregator(registry, cfg.Engine, logger, metrics)
	aggregator := pipeline.NewCachedAggregator(engine, registry, cfg.AggregateCacheSize, metrics)
	window := pipeline.NewWindow(cfg.ObservationRetention)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger, metrics)

	p := pipeline.New(reader, window, aggregator, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, registry, aggregator, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go reloadOnHangup(ctx, registry, logger, metrics)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}

// reloadOnHangup swaps in a freshly read spot catalogue on every SIGHUP.
func reloadOnHangup(ctx context.Context, registry *spots.Registry, logger *slog.Logger, metrics *observability.Metrics) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			logger.Info("SIGHUP received, reloading spot catalogue")
			if err := registry.Reload(); err != nil {
				metrics.CatalogueReloads.WithLabelValues("error").Inc()
				continue
			}
			metrics.CatalogueReloads.WithLabelValues("ok").Inc()
		}
	}
}
