package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

const dateLayout = "2006-01-02"

// Row types of the typed export.
const (
	TypeHistorical = "Historical"
	TypeForecast   = "Forecast"
)

// Write renders res in the requested single-product framing.
func Write(w io.Writer, res *domain.ForecastResult, format domain.ExportFormat) error {
	switch format {
	case domain.ExportTyped:
		return WriteTyped(w, res)
	default:
		return WriteCombined(w, res)
	}
}

// WriteCombined writes a Date,Value header followed by every historical then
// every forecast point.
func WriteCombined(w io.Writer, res *domain.ForecastResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", "Value"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, series := range [][]domain.Point{res.Historical, res.Forecast} {
		for _, p := range series {
			if err := cw.Write([]string{p.Date.Format(dateLayout), formatValue(p.Value)}); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTyped writes a Date,Type,Value header with each row tagged Historical
// or Forecast.
func WriteTyped(w io.Writer, res *domain.ForecastResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", "Type", "Value"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	write := func(points []domain.Point, kind string) error {
		for _, p := range points {
			if err := cw.Write([]string{p.Date.Format(dateLayout), kind, formatValue(p.Value)}); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
		return nil
	}
	if err := write(res.Historical, TypeHistorical); err != nil {
		return err
	}
	if err := write(res.Forecast, TypeForecast); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// WriteBatch writes a Date,Product,Forecast header and the forecast rows of
// every successful outcome. Failed outcomes are skipped.
func WriteBatch(w io.Writer, outcomes []domain.ProductOutcome) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", "Product", "Forecast"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, o := range outcomes {
		if !o.OK() {
			continue
		}
		for _, p := range o.Result.Forecast {
			if err := cw.Write([]string{p.Date.Format(dateLayout), o.Product, formatValue(p.Value)}); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// Filename returns the download name for a single-product export.
func Filename(product string, format domain.ExportFormat) string {
	return fmt.Sprintf("forecast_%s_%s.csv", sanitize(product), format)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func sanitize(s string) string {
	out := []rune(s)
	for i, r := range out {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			out[i] = '_'
		}
	}
	return string(out)
}
