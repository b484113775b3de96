package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/config"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

// ForecastStore is a shared second-level store for forecast results. Keys are
// derived from content fingerprints, so replicas can share entries safely.
type ForecastStore interface {
	Get(ctx context.Context, key ForecastKey) (*domain.ForecastResult, bool, error)
	Set(ctx context.Context, key ForecastKey, res *domain.ForecastResult) error
	InvalidateDataset(ctx context.Context, fingerprint string) error
	Close() error
}

type redisForecastStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

type noopForecastStore struct{}

// NewForecastStore returns a redis-backed store when caching is enabled and
// a noop store otherwise.
func NewForecastStore(cfg config.CacheConfig) (ForecastStore, error) {
	if !cfg.Enabled {
		return &noopForecastStore{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return NewRedisForecastStore(client, ttl), nil
}

func NewRedisForecastStore(client redis.UniversalClient, ttl time.Duration) ForecastStore {
	if ttl <= 0 {
		ttl = defaultStoreTTL
	}
	return &redisForecastStore{
		client: client,
		ttl:    ttl,
	}
}

func NewNoopForecastStore() ForecastStore {
	return &noopForecastStore{}
}

func (s *redisForecastStore) Get(ctx context.Context, key ForecastKey) (*domain.ForecastResult, bool, error) {
	if !key.Cacheable() {
		return nil, false, nil
	}

	payload, err := s.client.Get(ctx, buildForecastResultKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var res domain.ForecastResult
	if err := msgpack.Unmarshal(payload, &res); err != nil {
		return nil, false, fmt.Errorf("decode forecast result cache: %w", err)
	}
	normalizeDates(&res)

	return &res, true, nil
}

func (s *redisForecastStore) Set(ctx context.Context, key ForecastKey, res *domain.ForecastResult) error {
	if !key.Cacheable() || res == nil {
		return nil
	}

	payload, err := msgpack.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode forecast result cache: %w", err)
	}

	if err := s.client.Set(ctx, buildForecastResultKey(key), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *redisForecastStore) InvalidateDataset(ctx context.Context, fingerprint string) error {
	if fingerprint == "" {
		return nil
	}
	return deleteKeysWithPrefix(ctx, s.client, datasetPrefix(forecastResultKeyPrefix, fingerprint), scanBatchSize)
}

func (s *redisForecastStore) Close() error {
	return s.client.Close()
}

func (n *noopForecastStore) Get(ctx context.Context, key ForecastKey) (*domain.ForecastResult, bool, error) {
	return nil, false, nil
}

func (n *noopForecastStore) Set(ctx context.Context, key ForecastKey, res *domain.ForecastResult) error {
	return nil
}

func (n *noopForecastStore) InvalidateDataset(ctx context.Context, fingerprint string) error {
	return nil
}

func (n *noopForecastStore) Close() error {
	return nil
}

// normalizeDates keeps decoded dates in UTC like freshly computed results.
func normalizeDates(res *domain.ForecastResult) {
	for i := range res.Historical {
		res.Historical[i].Date = res.Historical[i].Date.UTC()
	}
	for i := range res.Forecast {
		res.Forecast[i].Date = res.Forecast[i].Date.UTC()
	}
	res.GeneratedAt = res.GeneratedAt.UTC()
}
