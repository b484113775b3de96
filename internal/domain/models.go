// forecast-go/internal/domain/models.go
package domain

import "time"

// MinRowsPerProduct is the smallest history a product needs to be forecast.
const MinRowsPerProduct = 10

// DemandRecord is one validated row of a dataset.
type DemandRecord struct {
	Date      time.Time `json:"date" db:"date" msgpack:"date"`
	Product   string    `json:"product" db:"product" msgpack:"product"`
	Demand    float64   `json:"demand" db:"demand" msgpack:"demand"`
	Inventory float64   `json:"inventory" db:"inventory" msgpack:"inventory"`
}

// Dataset is an immutable snapshot of loaded records. Dates are coerced to
// UTC midnight once, at load time; nothing mutates a published Dataset.
type Dataset struct {
	ID          string         `json:"dataset_id"`
	Fingerprint string         `json:"fingerprint"`
	Source      string         `json:"source"`
	Records     []DemandRecord `json:"-"`
	Products    []string       `json:"products"`
	LoadedAt    time.Time      `json:"loaded_at"`
}

// HasProduct reports whether any record belongs to product.
func (d *Dataset) HasProduct(product string) bool {
	for _, p := range d.Products {
		if p == product {
			return true
		}
	}
	return false
}

// Point is a single (date, value) observation.
type Point struct {
	Date  time.Time `json:"date" msgpack:"date"`
	Value float64   `json:"value" msgpack:"value"`
}

// TimeSeries is one product's demand history, strictly ascending by date.
// CurrentInventory is the on-hand quantity at the last date.
type TimeSeries struct {
	Product          string
	Points           []Point
	CurrentInventory float64
}

// Values returns the series values in date order.
func (ts TimeSeries) Values() []float64 {
	out := make([]float64, len(ts.Points))
	for i, p := range ts.Points {
		out[i] = p.Value
	}
	return out
}

// LastDate returns the date of the final observation.
func (ts TimeSeries) LastDate() time.Time {
	if len(ts.Points) == 0 {
		return time.Time{}
	}
	return ts.Points[len(ts.Points)-1].Date
}

// ForecastResult is produced once per cache miss and shared read-only afterwards.
type ForecastResult struct {
	Product       string    `json:"product" msgpack:"product"`
	HorizonDays   int       `json:"horizon_days" msgpack:"horizon_days"`
	Historical    []Point   `json:"historical" msgpack:"historical"`
	Forecast      []Point   `json:"forecast" msgpack:"forecast"`
	OrderQuantity int       `json:"order_quantity" msgpack:"order_quantity"`
	ReorderPoint  float64   `json:"reorder_point" msgpack:"reorder_point"`
	SafetyStock   float64   `json:"safety_stock" msgpack:"safety_stock"`
	TotalCost     float64   `json:"total_cost" msgpack:"total_cost"`
	GeneratedAt   time.Time `json:"generated_at" msgpack:"generated_at"`
	Method        string    `json:"method" msgpack:"method"`
	Fallback      bool      `json:"fallback" msgpack:"fallback"`
}

// ForecastValues returns the predicted values in date order.
func (r *ForecastResult) ForecastValues() []float64 {
	out := make([]float64, len(r.Forecast))
	for i, p := range r.Forecast {
		out[i] = p.Value
	}
	return out
}

// ForecastRequest is what callers ask the engine for.
type ForecastRequest struct {
	Product     string `json:"product" binding:"required"`
	HorizonDays int    `json:"horizon_days" binding:"required"`
	DatasetID   string `json:"dataset_id"`
}

// ProductOutcome carries either a result or the error that prevented it.
type ProductOutcome struct {
	Product string
	Result  *ForecastResult
	Err     error
}

// OK reports whether the outcome holds a result.
func (o ProductOutcome) OK() bool {
	return o.Err == nil && o.Result != nil
}
