// forecast-go/cmd/server/main.go
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

	"github.com/andresuchdata/autopo-py/forecast-go/internal/api"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/cache"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/config"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/dataset"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/repository/postgres"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/service"
	"github.com/andresuchdata/autopo-py/forecast-go/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.LogLevel)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
		logger.JSON()
	}

	// Caches: in-process L1 plus the optional redis-backed stores
	datasetCache := cache.NewDatasetCache(cfg.Cache.DatasetCacheSize)
	forecastCache := cache.NewForecastCache(cfg.Cache.ForecastCacheSize, time.Duration(cfg.Cache.ForecastCacheTTLSeconds)*time.Second)

	store, err := cache.NewForecastStore(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("redis forecast store unavailable, continuing without it")
		store = cache.NewNoopForecastStore()
	}
	defer store.Close()

	dashboards, err := cache.NewDashboardCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("redis dashboard cache unavailable, continuing without it")
		dashboards = cache.NewNoopDashboardCache()
	}

	// Initialize services
	datasetService := service.NewDatasetService(datasetCache, forecastCache, store, dashboards)
	forecastService := service.NewForecastService(datasetService, forecastCache, store, dashboards, service.OptionsFromConfig(cfg.Forecast))

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 30*time.Second)
	ds, err := loadDefaultDataset(loadCtx, cfg)
	cancelLoad()
	switch {
	case err != nil:
		logger.Log.Warn().Err(err).Str("source", cfg.App.DefaultDatasetSource).Msg("default dataset not loaded")
	case ds != nil:
		datasetService.SetDefault(ds)
		logger.Log.Info().Str("dataset", ds.ID).Int("products", len(ds.Products)).Msg("default dataset ready")
	}

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{
		Forecasts: forecastService,
		Datasets:  datasetService,
	}, api.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: cfg.App.MaxUploadBytes,
		DefaultDays:    cfg.Forecast.DashboardDays,
	})
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
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

// loadDefaultDataset returns the dataset served when requests name none.
// A nil dataset with a nil error means no default is configured.
func loadDefaultDataset(ctx context.Context, cfg *config.Config) (*domain.Dataset, error) {
	switch cfg.App.DefaultDatasetSource {
	case "file":
		return dataset.LoadFile(cfg.App.DefaultDatasetPath)
	case "postgres":
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return postgres.NewDemandRepository(db, cfg.Database.Table).LoadDataset(ctx)
	default:
		return nil, nil
	}
}
