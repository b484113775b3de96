// forecast-go/internal/cache/dataset_cache.go
package cache

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

// DefaultDatasetCacheSize is used when a non-positive capacity is given.
const DefaultDatasetCacheSize = 5

var (
	datasetCacheEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "forecast_dataset_cache_evictions_total",
		Help: "Datasets evicted from the FIFO dataset cache.",
	})
	datasetCacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "forecast_dataset_cache_entries",
		Help: "Datasets currently held by the dataset cache.",
	})
)

// DatasetCache is a bounded FIFO store of dataset snapshots. When full,
// inserting a new key evicts the earliest inserted entry, regardless of how
// recently it was read. One mutex guards every operation.
type DatasetCache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*domain.Dataset
	order    []string
}

func NewDatasetCache(capacity int) *DatasetCache {
	if capacity <= 0 {
		capacity = DefaultDatasetCacheSize
	}
	return &DatasetCache{
		capacity: capacity,
		items:    make(map[string]*domain.Dataset, capacity),
		order:    make([]string, 0, capacity),
	}
}

func (c *DatasetCache) Get(key string) (*domain.Dataset, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ds, ok := c.items[key]
	return ds, ok
}

// Set stores ds under key and returns the dataset it displaced, so the
// caller can drop anything derived from it. Replacing an existing key keeps
// its position, never evicts, and returns the previous value unless it is
// ds itself. Otherwise, at capacity, the oldest entry is evicted and returned.
func (c *DatasetCache) Set(key string, ds *domain.Dataset) (dropped *domain.Dataset) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, exists := c.items[key]; exists {
		c.items[key] = ds
		if prev == ds {
			return nil
		}
		return prev
	}

	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		dropped = c.items[oldest]
		delete(c.items, oldest)
		datasetCacheEvictionsTotal.Inc()
	}

	c.items[key] = ds
	c.order = append(c.order, key)
	datasetCacheEntries.Set(float64(len(c.items)))
	return dropped
}

// Delete removes key and returns the dataset it held, if any.
func (c *DatasetCache) Delete(key string) (*domain.Dataset, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ds, ok := c.items[key]
	if !ok {
		return nil, false
	}
	delete(c.items, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	datasetCacheEntries.Set(float64(len(c.items)))
	return ds, true
}

func (c *DatasetCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Keys returns the cached keys oldest first.
func (c *DatasetCache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, len(c.order))
	copy(keys, c.order)
	return keys
}

func (c *DatasetCache) Capacity() int {
	return c.capacity
}
