// forecast-go/internal/cache/forecast_cache.go
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

// DefaultForecastCacheSize is used when a non-positive capacity is given.
const DefaultForecastCacheSize = 50

var (
	forecastCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "forecast_cache_hits_total",
		Help: "Forecast cache lookups served from memory.",
	})
	forecastCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "forecast_cache_misses_total",
		Help: "Forecast cache lookups that required a model fit.",
	})
	forecastCacheEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "forecast_cache_evictions_total",
		Help: "Forecasts evicted from the LRU cache under capacity pressure.",
	})
)

// ForecastCache memoizes forecast results with LRU eviction and an optional
// TTL. Keys without a fingerprint are never stored or served.
type ForecastCache struct {
	lru *expirable.LRU[ForecastKey, *domain.ForecastResult]
}

// NewForecastCache builds a cache of the given capacity. A ttl of zero keeps
// entries until they are evicted.
func NewForecastCache(capacity int, ttl time.Duration) *ForecastCache {
	if capacity <= 0 {
		capacity = DefaultForecastCacheSize
	}
	return &ForecastCache{
		lru: expirable.NewLRU[ForecastKey, *domain.ForecastResult](capacity, nil, ttl),
	}
}

func (c *ForecastCache) Get(key ForecastKey) (*domain.ForecastResult, bool) {
	if !key.Cacheable() {
		return nil, false
	}
	res, ok := c.lru.Get(key)
	if ok {
		forecastCacheHitsTotal.Inc()
		return res, true
	}
	forecastCacheMissesTotal.Inc()
	return nil, false
}

// Set stores res unless the key is not cacheable.
func (c *ForecastCache) Set(key ForecastKey, res *domain.ForecastResult) {
	if !key.Cacheable() || res == nil {
		return
	}
	if evicted := c.lru.Add(key, res); evicted {
		forecastCacheEvictionsTotal.Inc()
	}
}

// InvalidateDataset drops every forecast computed from the dataset with the
// given fingerprint and returns how many were removed.
func (c *ForecastCache) InvalidateDataset(fingerprint string) int {
	if fingerprint == "" {
		return 0
	}
	removed := 0
	for _, k := range c.lru.Keys() {
		if k.Fingerprint == fingerprint && c.lru.Remove(k) {
			removed++
		}
	}
	return removed
}

func (c *ForecastCache) Len() int {
	return c.lru.Len()
}

func (c *ForecastCache) Purge() {
	c.lru.Purge()
}
