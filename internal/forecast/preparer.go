package forecast

import (
	"sort"
	"time"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

// PrepareSeries extracts one product's demand series from ds, sorted by date.
// When a date appears more than once the last record in load order wins.
func PrepareSeries(ds *domain.Dataset, product string) (domain.TimeSeries, error) {
	var rows []domain.DemandRecord
	for _, r := range ds.Records {
		if r.Product == product {
			rows = append(rows, r)
		}
	}
	if len(rows) == 0 {
		return domain.TimeSeries{}, domain.UnknownProductError(product)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date)
	})

	points := make([]domain.Point, 0, len(rows))
	inventory := 0.0
	for _, r := range rows {
		if n := len(points); n > 0 && points[n-1].Date.Equal(r.Date) {
			points[n-1].Value = r.Demand
		} else {
			points = append(points, domain.Point{Date: r.Date, Value: r.Demand})
		}
		inventory = r.Inventory
	}

	if len(points) < domain.MinRowsPerProduct {
		return domain.TimeSeries{}, domain.InsufficientRowsError(product, len(points))
	}

	return domain.TimeSeries{
		Product:          product,
		Points:           points,
		CurrentInventory: inventory,
	}, nil
}

// futureDates returns the horizon consecutive days after last.
func futureDates(last time.Time, horizon int) []domain.Point {
	out := make([]domain.Point, horizon)
	for i := range out {
		out[i].Date = last.AddDate(0, 0, i+1)
	}
	return out
}
