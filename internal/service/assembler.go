package service

import (
	"fmt"
	"time"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/inventory"
)

type resultMeta struct {
	horizon     int
	method      string
	fallback    bool
	generatedAt time.Time
}

// assembleResult packages history, forecast and policy into a result that
// shares no memory with its inputs. Both sequences must be strictly daily
// ascending where required, and the forecast must start the day after the
// last observation.
func assembleResult(ts domain.TimeSeries, forecastPoints []domain.Point, policy inventory.Policy, meta resultMeta) (*domain.ForecastResult, error) {
	if len(forecastPoints) != meta.horizon {
		return nil, fmt.Errorf("assemble %s: got %d forecast points for horizon %d", ts.Product, len(forecastPoints), meta.horizon)
	}
	if len(ts.Points) == 0 {
		return nil, fmt.Errorf("assemble %s: empty history", ts.Product)
	}

	historical := make([]domain.Point, len(ts.Points))
	copy(historical, ts.Points)
	for i := 1; i < len(historical); i++ {
		if !historical[i].Date.After(historical[i-1].Date) {
			return nil, fmt.Errorf("assemble %s: history not ascending at %s", ts.Product, historical[i].Date.Format("2006-01-02"))
		}
	}

	predicted := make([]domain.Point, len(forecastPoints))
	copy(predicted, forecastPoints)
	expected := historical[len(historical)-1].Date
	for _, p := range predicted {
		expected = expected.AddDate(0, 0, 1)
		if !p.Date.Equal(expected) {
			return nil, fmt.Errorf("assemble %s: forecast date %s, want %s", ts.Product, p.Date.Format("2006-01-02"), expected.Format("2006-01-02"))
		}
	}

	return &domain.ForecastResult{
		Product:       ts.Product,
		HorizonDays:   meta.horizon,
		Historical:    historical,
		Forecast:      predicted,
		OrderQuantity: policy.OrderQuantity,
		ReorderPoint:  policy.ReorderPoint,
		SafetyStock:   policy.SafetyStock,
		TotalCost:     policy.TotalCost,
		GeneratedAt:   meta.generatedAt,
		Method:        meta.method,
		Fallback:      meta.fallback,
	}, nil
}
