package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReadDefaults(t *testing.T) {
	cfg := read()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5, cfg.Cache.DatasetCacheSize)
	assert.Equal(t, 50, cfg.Cache.ForecastCacheSize)
	assert.Equal(t, 30, cfg.Forecast.DashboardDays)
	assert.True(t, cfg.Forecast.FallbackEnabled)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Forecast.FitTimeout())
	assert.Equal(t, cfg.Server.Mode, cfg.Server.LogLevel)
}

func TestReadFromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATASET_CACHE_SIZE", "3")
	t.Setenv("FORECAST_FALLBACK_ENABLED", "false")
	t.Setenv("FORECAST_FIT_TIMEOUT_SECONDS", "5")
	t.Setenv("LOG_LEVEL", "warn")

	cfg := read()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 3, cfg.Cache.DatasetCacheSize)
	assert.False(t, cfg.Forecast.FallbackEnabled)
	assert.Equal(t, 5*time.Second, cfg.Forecast.FitTimeout())
	assert.Equal(t, "warn", cfg.Server.LogLevel)
}
