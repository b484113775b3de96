package domain

// DashboardSummary aggregates forecasts across every product of a dataset.
type DashboardSummary struct {
	DatasetID             string          `json:"dataset_id"`
	HorizonDays           int             `json:"horizon_days"`
	TotalForecastedDemand float64         `json:"total_forecasted_demand"`
	OrderQuantities       map[string]int  `json:"order_quantities"`
	FallbackProducts      []string        `json:"fallback_products"`
	Failed                []FailedProduct `json:"failed"`
}

// FailedProduct is a product skipped by a batch run and the reason why.
type FailedProduct struct {
	Product string `json:"product"`
	Reason  string `json:"reason"`
}

// DatasetSummary is returned after a dataset is loaded.
type DatasetSummary struct {
	DatasetID   string         `json:"dataset_id"`
	Fingerprint string         `json:"fingerprint"`
	Rows        int            `json:"rows"`
	Products    []string       `json:"products"`
	Preview     []DemandRecord `json:"preview"`
}
