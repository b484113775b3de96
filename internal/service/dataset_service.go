package service

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/cache"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/dataset"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

// DatasetService owns uploaded dataset snapshots and the process default.
// Forecasts derived from a dataset are invalidated when its last handle goes.
type DatasetService struct {
	datasets   *cache.DatasetCache
	forecasts  *cache.ForecastCache
	store      cache.ForecastStore
	dashboards cache.DashboardSummaryCache

	mu         sync.RWMutex
	defaultSet *domain.Dataset
}

func NewDatasetService(datasets *cache.DatasetCache, forecasts *cache.ForecastCache, store cache.ForecastStore, dashboards cache.DashboardSummaryCache) *DatasetService {
	if store == nil {
		store = cache.NewNoopForecastStore()
	}
	if dashboards == nil {
		dashboards = cache.NewNoopDashboardCache()
	}
	return &DatasetService{
		datasets:   datasets,
		forecasts:  forecasts,
		store:      store,
		dashboards: dashboards,
	}
}

// SetDefault installs the dataset used when a request names no handle.
func (s *DatasetService) SetDefault(ds *domain.Dataset) {
	s.mu.Lock()
	prev := s.defaultSet
	s.defaultSet = ds
	s.mu.Unlock()

	if prev != nil && (ds == nil || prev.Fingerprint != ds.Fingerprint) {
		s.release(context.Background(), prev)
	}
}

func (s *DatasetService) Default() (*domain.Dataset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultSet, s.defaultSet != nil
}

// Upload parses a dataset file and caches the snapshot under a new handle.
func (s *DatasetService) Upload(ctx context.Context, r io.Reader, filename string) (*domain.DatasetSummary, error) {
	ds, err := dataset.Load(r, filename)
	if err != nil {
		return nil, err
	}
	s.Add(ctx, ds)

	summary := dataset.Summarize(ds)
	return &summary, nil
}

// Add caches ds under its ID, releasing whatever the insert evicted or
// replaced.
func (s *DatasetService) Add(ctx context.Context, ds *domain.Dataset) {
	if dropped := s.datasets.Set(ds.ID, ds); dropped != nil {
		log.Info().Str("dataset", dropped.ID).Msg("dataset dropped from cache")
		s.release(ctx, dropped)
	}
}

// Resolve returns the dataset for id, or the default dataset when id is empty.
func (s *DatasetService) Resolve(id string) (*domain.Dataset, error) {
	if id == "" {
		if ds, ok := s.Default(); ok {
			return ds, nil
		}
		return nil, &domain.NotFoundError{Resource: "default dataset", ID: ""}
	}
	ds, ok := s.datasets.Get(id)
	if !ok {
		return nil, &domain.NotFoundError{Resource: "dataset", ID: id}
	}
	return ds, nil
}

// Delete drops a dataset handle and any forecasts only it referenced.
func (s *DatasetService) Delete(ctx context.Context, id string) error {
	ds, ok := s.datasets.Delete(id)
	if !ok {
		return &domain.NotFoundError{Resource: "dataset", ID: id}
	}
	s.release(ctx, ds)
	return nil
}

func (s *DatasetService) Products(id string) ([]string, error) {
	ds, err := s.Resolve(id)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(ds.Products))
	copy(out, ds.Products)
	return out, nil
}

// release invalidates cached forecasts for ds unless another live handle
// carries the same content.
func (s *DatasetService) release(ctx context.Context, ds *domain.Dataset) {
	if ds.Fingerprint == "" || s.fingerprintInUse(ds.Fingerprint) {
		return
	}

	removed := s.forecasts.InvalidateDataset(ds.Fingerprint)
	if err := s.store.InvalidateDataset(ctx, ds.Fingerprint); err != nil {
		log.Warn().Err(err).Str("dataset", ds.ID).Msg("forecast: store invalidate failed")
	}
	if err := s.dashboards.InvalidateDataset(ctx, ds.Fingerprint); err != nil {
		log.Warn().Err(err).Str("dataset", ds.ID).Msg("forecast: dashboard cache invalidate failed")
	}
	log.Debug().Str("dataset", ds.ID).Int("forecasts", removed).Msg("dataset forecasts invalidated")
}

func (s *DatasetService) fingerprintInUse(fp string) bool {
	if def, ok := s.Default(); ok && def.Fingerprint == fp {
		return true
	}
	for _, key := range s.datasets.Keys() {
		if ds, ok := s.datasets.Get(key); ok && ds.Fingerprint == fp {
			return true
		}
	}
	return false
}
