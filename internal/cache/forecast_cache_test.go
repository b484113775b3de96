package cache

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

func result(product string, horizon int) *domain.ForecastResult {
	return &domain.ForecastResult{Product: product, HorizonDays: horizon}
}

func TestForecastCacheHitReturnsSameResult(t *testing.T) {
	c := NewForecastCache(10, 0)
	key := ForecastKey{Product: "Widget", Horizon: 5, Fingerprint: "abc"}
	res := result("Widget", 5)

	hits := testutil.ToFloat64(forecastCacheHitsTotal)
	misses := testutil.ToFloat64(forecastCacheMissesTotal)

	_, ok := c.Get(key)
	assert.False(t, ok)

	c.Set(key, res)
	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Same(t, res, got)

	assert.Equal(t, hits+1, testutil.ToFloat64(forecastCacheHitsTotal))
	assert.Equal(t, misses+1, testutil.ToFloat64(forecastCacheMissesTotal))
}

func TestForecastCacheBypassesUnfingerprintedKeys(t *testing.T) {
	c := NewForecastCache(10, 0)
	key := ForecastKey{Product: "Widget", Horizon: 5}

	c.Set(key, result("Widget", 5))
	_, ok := c.Get(key)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestForecastCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewForecastCache(2, 0)
	a := ForecastKey{Product: "A", Horizon: 5, Fingerprint: "fp"}
	b := ForecastKey{Product: "B", Horizon: 5, Fingerprint: "fp"}
	d := ForecastKey{Product: "D", Horizon: 5, Fingerprint: "fp"}

	evictions := testutil.ToFloat64(forecastCacheEvictionsTotal)

	c.Set(a, result("A", 5))
	c.Set(b, result("B", 5))
	_, ok := c.Get(a)
	require.True(t, ok)

	c.Set(d, result("D", 5))

	_, ok = c.Get(b)
	assert.False(t, ok, "B was least recently used")
	_, ok = c.Get(a)
	assert.True(t, ok)
	_, ok = c.Get(d)
	assert.True(t, ok)
	assert.Equal(t, evictions+1, testutil.ToFloat64(forecastCacheEvictionsTotal))
}

func TestForecastCacheKeyIncludesHorizonAndFingerprint(t *testing.T) {
	c := NewForecastCache(10, 0)
	c.Set(ForecastKey{Product: "A", Horizon: 5, Fingerprint: "fp1"}, result("A", 5))

	_, ok := c.Get(ForecastKey{Product: "A", Horizon: 6, Fingerprint: "fp1"})
	assert.False(t, ok)
	_, ok = c.Get(ForecastKey{Product: "A", Horizon: 5, Fingerprint: "fp2"})
	assert.False(t, ok)
}

func TestForecastCacheInvalidateDataset(t *testing.T) {
	c := NewForecastCache(10, 0)
	c.Set(ForecastKey{Product: "A", Horizon: 5, Fingerprint: "old"}, result("A", 5))
	c.Set(ForecastKey{Product: "B", Horizon: 5, Fingerprint: "old"}, result("B", 5))
	c.Set(ForecastKey{Product: "A", Horizon: 5, Fingerprint: "new"}, result("A", 5))

	assert.Equal(t, 2, c.InvalidateDataset("old"))
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 0, c.InvalidateDataset(""))
}

func TestForecastCacheConcurrentAccess(t *testing.T) {
	c := NewForecastCache(20, 0)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for h := 1; h <= 50; h++ {
				key := ForecastKey{Product: "P", Horizon: h, Fingerprint: "fp"}
				c.Set(key, result("P", h))
				if got, ok := c.Get(key); ok {
					assert.Equal(t, "P", got.Product)
				}
			}
		}(w)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 20)
}

func TestNoopStores(t *testing.T) {
	ctx := context.Background()
	key := ForecastKey{Product: "A", Horizon: 5, Fingerprint: "fp"}

	store := NewNoopForecastStore()
	require.NoError(t, store.Set(ctx, key, result("A", 5)))
	_, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, store.InvalidateDataset(ctx, "fp"))
	require.NoError(t, store.Close())

	dash := NewNoopDashboardCache()
	require.NoError(t, dash.SetSummary(ctx, "fp", 30, &domain.DashboardSummary{}))
	_, ok, err = dash.GetSummary(ctx, "fp", 30)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisKeysShareDatasetPrefix(t *testing.T) {
	k1 := buildForecastResultKey(ForecastKey{Product: "A", Horizon: 5, Fingerprint: "fp"})
	k2 := buildForecastResultKey(ForecastKey{Product: "B", Horizon: 7, Fingerprint: "fp"})
	prefix := datasetPrefix(forecastResultKeyPrefix, "fp")

	assert.NotEqual(t, k1, k2)
	assert.Contains(t, k1, prefix)
	assert.Contains(t, k2, prefix)
	assert.Equal(t, "forecast:dashboard:fp:days=30", buildDashboardSummaryKey("fp", 30))
}
