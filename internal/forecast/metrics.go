package forecast

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fitDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "forecast_model_fit_duration_seconds",
		Help:    "Wall time spent fitting the seasonal model.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})
	fitFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forecast_model_fit_failures_total",
		Help: "Model fits that did not produce a forecast, by reason.",
	}, []string{"reason"})
)
