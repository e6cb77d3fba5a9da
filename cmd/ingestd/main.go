package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andresuchdata/kpi-visualizer/internal/cache"
	"github.com/andresuchdata/kpi-visualizer/internal/config"
	"github.com/andresuchdata/kpi-visualizer/internal/drive"
	"github.com/andresuchdata/kpi-visualizer/internal/repository/postgres"
	"github.com/andresuchdata/kpi-visualizer/internal/service"
	"github.com/andresuchdata/kpi-visualizer/pkg/logger"
)

func main() {
	cfg := config.Load()
	logger.Setup(cfg.App.LogLevel, cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	driveService, err := drive.NewService(ctx, cfg.Drive)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize Google Drive service")
	}

	pool, err := postgres.NewPool(ctx, &cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer pool.Close()

	writer := postgres.NewCopyWriter(pool)
	if err := writer.EnsureSchema(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to create orders table")
	}

	summaryCache, err := cache.NewSummaryCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Summary cache unavailable, loads will not invalidate it")
		summaryCache = cache.NewNoopSummaryCache()
	}

	ingestService := drive.NewIngestService(driveService, service.NewIngestService(writer, summaryCache, true))

	r := mux.NewRouter()
	drive.NewHandler(driveService, ingestService).RegisterRoutes(r)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.IngestPort,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.IngestPort).Msg("Starting ingest server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Failed to start ingest server")
		}
	}()

	<-ctx.Done()
	logger.Log.Info().Msg("Shutting down ingest server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Ingest server forced to shutdown")
	}
}
