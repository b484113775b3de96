package service

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

// ForecastAll forecasts every product of ds with bounded concurrency. A
// product that fails is logged and reported in its outcome; the rest of the
// batch carries on. Outcomes follow the dataset's product order.
func (s *ForecastService) ForecastAll(ctx context.Context, ds *domain.Dataset, horizon int) ([]domain.ProductOutcome, error) {
	if err := s.validateHorizon(horizon); err != nil {
		return nil, err
	}

	outcomes := make([]domain.ProductOutcome, len(ds.Products))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchWorkers)

	for i, product := range ds.Products {
		g.Go(func() error {
			outcomes[i].Product = product
			if err := gctx.Err(); err != nil {
				outcomes[i].Err = err
				return nil
			}
			res, err := s.ForecastDataset(gctx, ds, product, horizon)
			if err != nil {
				log.Warn().Err(err).Str("product", product).Str("dataset", ds.ID).Msg("forecast: batch item skipped")
				outcomes[i].Err = err
				return nil
			}
			outcomes[i].Result = res
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

// Dashboard aggregates forecasts across all products of a dataset: total
// forecasted demand and the recommended order quantity per product.
func (s *ForecastService) Dashboard(ctx context.Context, datasetID string, days int) (*domain.DashboardSummary, error) {
	if err := s.validateHorizon(days); err != nil {
		return nil, err
	}
	ds, err := s.datasets.Resolve(datasetID)
	if err != nil {
		return nil, err
	}

	if summary, ok, err := s.dashboards.GetSummary(ctx, ds.Fingerprint, days); err == nil && ok {
		summary.DatasetID = ds.ID
		return summary, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("forecast: dashboard cache get failed")
	}

	outcomes, err := s.ForecastAll(ctx, ds, days)
	if err != nil {
		return nil, err
	}

	summary := summarize(ds.ID, days, outcomes)
	if len(summary.Failed) == 0 && len(summary.FallbackProducts) == 0 {
		if err := s.dashboards.SetSummary(ctx, ds.Fingerprint, days, summary); err != nil {
			log.Warn().Err(err).Msg("forecast: dashboard cache set failed")
		}
	}
	return summary, nil
}

func summarize(datasetID string, days int, outcomes []domain.ProductOutcome) *domain.DashboardSummary {
	summary := &domain.DashboardSummary{
		DatasetID:        datasetID,
		HorizonDays:      days,
		OrderQuantities:  make(map[string]int, len(outcomes)),
		FallbackProducts: make([]string, 0),
		Failed:           make([]domain.FailedProduct, 0),
	}

	for _, o := range outcomes {
		if !o.OK() {
			reason := "not computed"
			if o.Err != nil {
				reason = o.Err.Error()
			}
			summary.Failed = append(summary.Failed, domain.FailedProduct{Product: o.Product, Reason: reason})
			continue
		}
		for _, p := range o.Result.Forecast {
			summary.TotalForecastedDemand += p.Value
		}
		summary.OrderQuantities[o.Product] = o.Result.OrderQuantity
		if o.Result.Fallback {
			summary.FallbackProducts = append(summary.FallbackProducts, o.Product)
		}
	}
	return summary
}
