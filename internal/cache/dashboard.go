package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/config"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

// DashboardSummaryCache stores complete dashboard aggregates per dataset
// fingerprint and horizon.
type DashboardSummaryCache interface {
	GetSummary(ctx context.Context, fingerprint string, days int) (*domain.DashboardSummary, bool, error)
	SetSummary(ctx context.Context, fingerprint string, days int, summary *domain.DashboardSummary) error
	InvalidateDataset(ctx context.Context, fingerprint string) error
}

type redisDashboardCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

type noopDashboardCache struct{}

func NewDashboardCache(cfg config.CacheConfig) (DashboardSummaryCache, error) {
	if !cfg.Enabled {
		return &noopDashboardCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisDashboardCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopDashboardCache() DashboardSummaryCache {
	return &noopDashboardCache{}
}

func (c *redisDashboardCache) GetSummary(ctx context.Context, fingerprint string, days int) (*domain.DashboardSummary, bool, error) {
	if fingerprint == "" {
		return nil, false, nil
	}

	payload, err := c.client.Get(ctx, buildDashboardSummaryKey(fingerprint, days)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var summary domain.DashboardSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return nil, false, fmt.Errorf("decode dashboard summary cache: %w", err)
	}

	return &summary, true, nil
}

func (c *redisDashboardCache) SetSummary(ctx context.Context, fingerprint string, days int, summary *domain.DashboardSummary) error {
	if fingerprint == "" || summary == nil {
		return nil
	}

	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode dashboard summary cache: %w", err)
	}

	if err := c.client.Set(ctx, buildDashboardSummaryKey(fingerprint, days), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func (c *redisDashboardCache) InvalidateDataset(ctx context.Context, fingerprint string) error {
	if fingerprint == "" {
		return nil
	}
	return deleteKeysWithPrefix(ctx, c.client, datasetPrefix(dashboardSummaryKeyPrefix, fingerprint), scanBatchSize)
}

func (n *noopDashboardCache) GetSummary(ctx context.Context, fingerprint string, days int) (*domain.DashboardSummary, bool, error) {
	return nil, false, nil
}

func (n *noopDashboardCache) SetSummary(ctx context.Context, fingerprint string, days int, summary *domain.DashboardSummary) error {
	return nil
}

func (n *noopDashboardCache) InvalidateDataset(ctx context.Context, fingerprint string) error {
	return nil
}
