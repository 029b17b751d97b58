package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/ensemble-forecast-service/internal/adapter/archive"
	"github.com/couchcryptid/ensemble-forecast-service/internal/adapter/ecmwf"
	httpadapter "github.com/couchcryptid/ensemble-forecast-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/ensemble-forecast-service/internal/adapter/kafka"
	"github.com/couchcryptid/ensemble-forecast-service/internal/adapter/netcdf"
	"github.com/couchcryptid/ensemble-forecast-service/internal/config"
	"github.com/couchcryptid/ensemble-forecast-service/internal/observability"
	"github.com/couchcryptid/ensemble-forecast-service/internal/pipeline"
	"github.com/couchcryptid/ensemble-forecast-service/internal/render"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	dates, err := archive.DateRange(cfg.StartDate, cfg.EndDate)
	if err != nil {
		logger.Error("invalid forecast date range", "error", err)
		os.Exit(1)
	}

	fetcher := ecmwf.NewClient(cfg.ECMWFKey, cfg.ECMWFTimeout, cfg.DataDir, logger)
	store := archive.NewStore(cfg.DataDir)
	loader := netcdf.NewLoader(logger)
	shaper := pipeline.NewShaper(cfg.Region, cfg.HasRegion, cfg.Locations, logger)
	renderer := render.NewRenderer(cfg.OutputDir, logger)

	// Publishing is feature-flagged via KAFKA_BROKERS.
	var publisher pipeline.Publisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	p := pipeline.New(pipeline.Options{
		Fetcher:      fetcher,
		Loader:       loader,
		Shaper:       shaper,
		Publisher:    publisher,
		Renderer:     renderer,
		Archive:      store,
		Dates:        dates,
		FetchControl: cfg.FetchControl,
		Logger:       logger,
		Metrics:      metrics,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start forecast pipeline.
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
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
