package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/kpi-visualizer/internal/api"
	"github.com/andresuchdata/kpi-visualizer/internal/cache"
	"github.com/andresuchdata/kpi-visualizer/internal/config"
	"github.com/andresuchdata/kpi-visualizer/internal/kpi"
	"github.com/andresuchdata/kpi-visualizer/internal/llm"
	"github.com/andresuchdata/kpi-visualizer/internal/repository/postgres"
	"github.com/andresuchdata/kpi-visualizer/internal/service"
	"github.com/andresuchdata/kpi-visualizer/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.Setup(cfg.App.LogLevel, cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	summaryCache, err := cache.NewSummaryCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Summary cache unavailable, continuing without it")
		summaryCache = cache.NewNoopSummaryCache()
	}

	excluded, err := kpi.ParseExcludedDates(cfg.App.ExcludedDates)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Invalid APP_EXCLUDED_DATES")
	}

	orderRepo := postgres.NewOrderRepository(db)
	analyticsService := service.NewAnalyticsService(orderRepo, summaryCache, excluded)
	services := &api.Services{
		OrderService:     service.NewOrderService(orderRepo, cfg.App.OrdersLimit),
		AnalyticsService: analyticsService,
		ChatService:      service.NewChatService(analyticsService, llm.NewOpenAI(cfg.LLM)),
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      api.NewRouter(services, cfg.Server.AllowedOrigins),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
