package forecast

import (
	"context"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

// DefaultTrailingWindow is one seasonal cycle.
const DefaultTrailingWindow = SeasonalPeriod

// TrailingMean forecasts every future day as the mean of the last Window
// observations. It is deterministic and never fails on a non-empty series.
type TrailingMean struct {
	Window int
}

func NewTrailingMean(window int) *TrailingMean {
	if window <= 0 {
		window = DefaultTrailingWindow
	}
	return &TrailingMean{Window: window}
}

func (m *TrailingMean) Name() string { return domain.MethodTrailingMean }

func (m *TrailingMean) Forecast(ctx context.Context, ts domain.TimeSeries, horizon int) ([]domain.Point, error) {
	if horizon <= 0 {
		return nil, &domain.DataError{Kind: domain.KindBadRequest, Product: ts.Product, Msg: "horizon must be a positive number of days"}
	}
	values := ts.Values()
	if len(values) == 0 {
		return nil, &domain.ModelFitError{Product: ts.Product, Reason: "series is empty"}
	}

	start := len(values) - m.Window
	if start < 0 {
		start = 0
	}
	level := math.Max(0, math.Trunc(stat.Mean(values[start:], nil)))

	points := futureDates(ts.LastDate(), horizon)
	for i := range points {
		points[i].Value = level
	}
	return points, nil
}
