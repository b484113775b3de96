// forecast-go/internal/service/forecast_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/cache"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/config"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/forecast"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/inventory"
)

const (
	defaultFitTimeout     = 30 * time.Second
	defaultMaxHorizonDays = 365
	defaultBatchWorkers   = 4
)

var (
	fitTimeoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "forecast_fit_timeouts_total",
		Help: "Model fits abandoned after exceeding the fit timeout.",
	})
	fallbackForecastsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "forecast_fallback_total",
		Help: "Forecasts served by the trailing mean fallback.",
	})
)

// Options tune the forecast service. Zero values select defaults.
type Options struct {
	FitTimeout      time.Duration
	FitWorkers      int
	MaxIterations   int
	FallbackEnabled bool
	MaxHorizonDays  int
	BatchWorkers    int
	Policy          inventory.PolicyConfig

	// Model and Fallback override the default SARIMA and trailing mean.
	Model    forecast.Forecaster
	Fallback forecast.Forecaster
}

func OptionsFromConfig(cfg config.ForecastConfig) Options {
	return Options{
		FitTimeout:      cfg.FitTimeout(),
		FitWorkers:      cfg.FitWorkers,
		MaxIterations:   cfg.MaxIterations,
		FallbackEnabled: cfg.FallbackEnabled,
		MaxHorizonDays:  cfg.MaxHorizonDays,
		BatchWorkers:    cfg.BatchWorkers,
		Policy:          inventory.DefaultPolicyConfig(),
	}
}

// ForecastService runs the forecast pipeline: prepare the series, fit the
// model on a bounded worker, derive the inventory policy and memoize.
type ForecastService struct {
	datasets   *DatasetService
	forecasts  *cache.ForecastCache
	store      cache.ForecastStore
	dashboards cache.DashboardSummaryCache

	model    forecast.Forecaster
	fallback forecast.Forecaster
	policy   *inventory.PolicyCalculator

	fitSlots        *semaphore.Weighted
	inflight        singleflight.Group
	fitTimeout      time.Duration
	fallbackEnabled bool
	maxHorizon      int
	batchWorkers    int
	now             func() time.Time
}

func NewForecastService(datasets *DatasetService, forecasts *cache.ForecastCache, store cache.ForecastStore, dashboards cache.DashboardSummaryCache, opts Options) *ForecastService {
	if store == nil {
		store = cache.NewNoopForecastStore()
	}
	if dashboards == nil {
		dashboards = cache.NewNoopDashboardCache()
	}
	if opts.FitTimeout <= 0 {
		opts.FitTimeout = defaultFitTimeout
	}
	if opts.FitWorkers <= 0 {
		opts.FitWorkers = runtime.NumCPU()
	}
	if opts.MaxHorizonDays <= 0 {
		opts.MaxHorizonDays = defaultMaxHorizonDays
	}
	if opts.BatchWorkers <= 0 {
		opts.BatchWorkers = defaultBatchWorkers
	}
	if opts.Model == nil {
		opts.Model = forecast.NewSARIMA(opts.MaxIterations)
	}
	if opts.Fallback == nil {
		opts.Fallback = forecast.NewTrailingMean(forecast.DefaultTrailingWindow)
	}

	return &ForecastService{
		datasets:        datasets,
		forecasts:       forecasts,
		store:           store,
		dashboards:      dashboards,
		model:           opts.Model,
		fallback:        opts.Fallback,
		policy:          inventory.NewPolicyCalculator(opts.Policy),
		fitSlots:        semaphore.NewWeighted(int64(opts.FitWorkers)),
		fitTimeout:      opts.FitTimeout,
		fallbackEnabled: opts.FallbackEnabled,
		maxHorizon:      opts.MaxHorizonDays,
		batchWorkers:    opts.BatchWorkers,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Forecast resolves the request's dataset and forecasts one product.
func (s *ForecastService) Forecast(ctx context.Context, req domain.ForecastRequest) (*domain.ForecastResult, error) {
	if err := s.validateHorizon(req.HorizonDays); err != nil {
		return nil, err
	}
	ds, err := s.datasets.Resolve(req.DatasetID)
	if err != nil {
		return nil, err
	}
	return s.ForecastDataset(ctx, ds, req.Product, req.HorizonDays)
}

// ForecastDataset forecasts product from ds, serving from cache when the
// dataset has a fingerprint. Concurrent identical misses share one fit.
func (s *ForecastService) ForecastDataset(ctx context.Context, ds *domain.Dataset, product string, horizon int) (*domain.ForecastResult, error) {
	if err := s.validateHorizon(horizon); err != nil {
		return nil, err
	}

	key := cache.ForecastKey{Product: product, Horizon: horizon, Fingerprint: ds.Fingerprint}
	if !key.Cacheable() {
		return s.compute(ctx, ds, product, horizon)
	}

	if res, ok := s.forecasts.Get(key); ok {
		return res, nil
	}

	if res, ok, err := s.store.Get(ctx, key); err == nil && ok {
		s.forecasts.Set(key, res)
		return res, nil
	} else if err != nil {
		log.Warn().Err(err).Str("product", product).Msg("forecast: store get failed")
	}

	flightKey := fmt.Sprintf("%s|%d|%s", product, horizon, ds.Fingerprint)
	ch := s.inflight.DoChan(flightKey, func() (interface{}, error) {
		// Waiters share this fit, so it must not die with the first caller.
		detached := context.WithoutCancel(ctx)
		res, err := s.compute(detached, ds, product, horizon)
		if err != nil {
			return nil, err
		}
		if !res.Fallback {
			s.forecasts.Set(key, res)
			if err := s.store.Set(detached, key, res); err != nil {
				log.Warn().Err(err).Str("product", product).Msg("forecast: store set failed")
			}
		}
		return res, nil
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		if r.Shared {
			log.Debug().Str("product", product).Int("horizon", horizon).Msg("forecast shared with concurrent request")
		}
		return r.Val.(*domain.ForecastResult), nil
	case <-ctx.Done():
		// The fit carries on for other waiters and still fills the cache.
		return nil, ctx.Err()
	}
}

func (s *ForecastService) compute(ctx context.Context, ds *domain.Dataset, product string, horizon int) (*domain.ForecastResult, error) {
	start := time.Now()

	ts, err := forecast.PrepareSeries(ds, product)
	if err != nil {
		return nil, err
	}

	points, method, fallback, err := s.fit(ctx, ts, horizon)
	if err != nil {
		return nil, err
	}

	policy := s.policy.Calculate(pointValues(points), ts.CurrentInventory)
	res, err := assembleResult(ts, points, policy, resultMeta{
		horizon:     horizon,
		method:      method,
		fallback:    fallback,
		generatedAt: s.now(),
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("product", product).
		Int("horizon", horizon).
		Str("dataset", ds.ID).
		Str("method", method).
		Dur("duration", time.Since(start)).
		Msg("forecast computed")

	return res, nil
}

// fit runs the model and, when enabled, substitutes the fallback for a fit
// failure or timeout.
func (s *ForecastService) fit(ctx context.Context, ts domain.TimeSeries, horizon int) ([]domain.Point, string, bool, error) {
	points, err := s.fitWithTimeout(ctx, ts, horizon)
	if err == nil {
		return points, s.model.Name(), false, nil
	}

	var fitErr *domain.ModelFitError
	var timeoutErr *domain.TimeoutError
	if !s.fallbackEnabled || !(errors.As(err, &fitErr) || errors.As(err, &timeoutErr)) {
		return nil, "", false, err
	}

	log.Warn().Err(err).Str("product", ts.Product).Msg("forecast: model failed, using fallback")
	points, fbErr := s.fallback.Forecast(ctx, ts, horizon)
	if fbErr != nil {
		log.Error().Err(fbErr).Str("product", ts.Product).Msg("forecast: fallback failed")
		return nil, "", false, err
	}
	fallbackForecastsTotal.Inc()
	return points, s.fallback.Name(), true, nil
}

// fitWithTimeout runs the model on its own goroutine, bounded by the worker
// semaphore and the fit timeout. Waiting for a worker counts toward the
// timeout. On timeout the caller returns at once; the worker sees the
// cancelled context, finishes into a buffered channel and frees its slot.
func (s *ForecastService) fitWithTimeout(ctx context.Context, ts domain.TimeSeries, horizon int) ([]domain.Point, error) {
	fitCtx, cancel := context.WithTimeout(ctx, s.fitTimeout)
	defer cancel()

	if err := s.fitSlots.Acquire(fitCtx, 1); err != nil {
		return nil, s.fitContextError(ctx, ts.Product)
	}

	type outcome struct {
		points []domain.Point
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		defer s.fitSlots.Release(1)
		points, err := s.model.Forecast(fitCtx, ts, horizon)
		done <- outcome{points: points, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil && fitCtx.Err() != nil {
			return nil, s.fitContextError(ctx, ts.Product)
		}
		return out.points, out.err
	case <-fitCtx.Done():
		return nil, s.fitContextError(ctx, ts.Product)
	}
}

// fitContextError distinguishes the caller going away from the fit timeout.
func (s *ForecastService) fitContextError(parent context.Context, product string) error {
	if err := parent.Err(); err != nil {
		return err
	}
	fitTimeoutsTotal.Inc()
	log.Warn().Str("product", product).Dur("timeout", s.fitTimeout).Msg("forecast: model fit timed out")
	return &domain.TimeoutError{Product: product, After: s.fitTimeout}
}

func (s *ForecastService) validateHorizon(horizon int) error {
	if horizon <= 0 || horizon > s.maxHorizon {
		return &domain.DataError{
			Kind: domain.KindBadRequest,
			Msg:  fmt.Sprintf("horizon_days must be between 1 and %d, got %d", s.maxHorizon, horizon),
		}
	}
	return nil
}

// Datasets exposes the dataset registry the service resolves handles from.
func (s *ForecastService) Datasets() *DatasetService {
	return s.datasets
}

func pointValues(points []domain.Point) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}
