package forecast

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func series(product string, values ...float64) domain.TimeSeries {
	ts := domain.TimeSeries{Product: product}
	for i, v := range values {
		ts.Points = append(ts.Points, domain.Point{Date: day0.AddDate(0, 0, i), Value: v})
	}
	return ts
}

func datasetOf(records ...domain.DemandRecord) *domain.Dataset {
	return &domain.Dataset{ID: "test", Records: records}
}

func rec(product string, day int, demand, inventory float64) domain.DemandRecord {
	return domain.DemandRecord{Date: day0.AddDate(0, 0, day), Product: product, Demand: demand, Inventory: inventory}
}

func TestPrepareSeriesSortsAndDeduplicates(t *testing.T) {
	var records []domain.DemandRecord
	for d := 9; d >= 0; d-- {
		records = append(records, rec("Widget", d, float64(d), float64(100+d)))
	}
	records = append(records, rec("Widget", 3, 42, 7))
	records = append(records, rec("Other", 0, 1, 1))

	ts, err := PrepareSeries(datasetOf(records...), "Widget")
	require.NoError(t, err)

	require.Len(t, ts.Points, 10)
	for i := 1; i < len(ts.Points); i++ {
		assert.True(t, ts.Points[i-1].Date.Before(ts.Points[i].Date))
	}
	assert.Equal(t, 42.0, ts.Points[3].Value, "last written record wins")
	assert.Equal(t, 109.0, ts.CurrentInventory)
}

func TestPrepareSeriesErrors(t *testing.T) {
	var records []domain.DemandRecord
	for d := 0; d < 9; d++ {
		records = append(records, rec("Short", d, 1, 1))
	}
	ds := datasetOf(records...)

	_, err := PrepareSeries(ds, "Missing")
	var de *domain.DataError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.KindUnknownProduct, de.Kind)
	assert.Contains(t, de.Error(), "Missing")

	_, err = PrepareSeries(ds, "Short")
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.KindInsufficientRows, de.Kind)
	assert.Contains(t, de.Error(), "10")
}

func TestSARIMAWidgetForecast(t *testing.T) {
	ts := series("Widget", 10, 12, 11, 13, 12, 14, 13, 15, 14, 16)

	points, err := NewSARIMA(0).Forecast(context.Background(), ts, 5)
	require.NoError(t, err)
	require.Len(t, points, 5)

	last := ts.LastDate()
	for i, p := range points {
		assert.Equal(t, last.AddDate(0, 0, i+1), p.Date)
		assert.GreaterOrEqual(t, p.Value, 0.0)
		assert.Equal(t, math.Trunc(p.Value), p.Value)
	}
}

func TestSARIMAContinuesTrend(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = float64(i + 1)
	}

	points, err := NewSARIMA(0).Forecast(context.Background(), series("Trend", values...), 5)
	require.NoError(t, err)
	for i, p := range points {
		assert.Equal(t, float64(21+i), p.Value)
	}
}

func TestSARIMARepeatsWeeklyPattern(t *testing.T) {
	week := []float64{5, 10, 15, 10, 5, 20, 30}
	var values []float64
	for i := 0; i < 3; i++ {
		values = append(values, week...)
	}

	points, err := NewSARIMA(0).Forecast(context.Background(), series("Weekly", values...), 7)
	require.NoError(t, err)
	for i, p := range points {
		assert.Equal(t, week[i], p.Value)
	}
}

func TestSARIMAFloorsAtZero(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = float64(20 - i)
	}

	points, err := NewSARIMA(0).Forecast(context.Background(), series("Falling", values...), 10)
	require.NoError(t, err)
	for _, p := range points {
		assert.Equal(t, 0.0, p.Value)
	}
}

func TestSARIMAZeroVariance(t *testing.T) {
	ts := series("Flat", 5, 5, 5, 5, 5, 5, 5, 5, 5, 5)

	_, err := NewSARIMA(0).Forecast(context.Background(), ts, 3)
	var fe *domain.ModelFitError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "Flat", fe.Product)
}

func TestSARIMARejectsBadHorizon(t *testing.T) {
	_, err := NewSARIMA(0).Forecast(context.Background(), series("Widget", 1, 2, 3, 4, 5, 6, 7, 8, 9, 10), 0)
	var de *domain.DataError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.KindBadRequest, de.Kind)
}

func TestSARIMAHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSARIMA(0).Fit(ctx, series("Widget", 10, 12, 11, 13, 12, 14, 13, 15, 14, 16))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResidualsWithZeroParamsEqualDifferences(t *testing.T) {
	y := []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5, 8}
	w := difference(y)
	require.Len(t, w, len(y)-diffLag)
	assert.Equal(t, y[8]-y[7]-y[1]+y[0], w[0])

	e := make([]float64, len(w))
	sse := residuals(w, Params{}, e)
	assert.Equal(t, w, e)

	want := 0.0
	for _, v := range w {
		want += v * v
	}
	assert.InDelta(t, want, sse, 1e-12)
}

func TestTrailingMean(t *testing.T) {
	ts := series("Widget", 100, 100, 100, 1, 2, 3, 4, 5, 6, 8)

	points, err := NewTrailingMean(0).Forecast(context.Background(), ts, 3)
	require.NoError(t, err)
	require.Len(t, points, 3)
	for i, p := range points {
		// mean(1..6, 8) = 29/7 = 4.14
		assert.Equal(t, 4.0, p.Value)
		assert.Equal(t, ts.LastDate().AddDate(0, 0, i+1), p.Date)
	}

	_, err = NewTrailingMean(7).Forecast(context.Background(), domain.TimeSeries{Product: "Empty"}, 3)
	var fe *domain.ModelFitError
	assert.True(t, errors.As(err, &fe))
}
