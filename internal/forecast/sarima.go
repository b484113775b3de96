// forecast-go/internal/forecast/sarima.go
package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

const (
	// SeasonalPeriod is the weekly cycle of daily demand.
	SeasonalPeriod = 7

	DefaultMaxIterations = 1000

	// differencing consumes one regular and one seasonal lag.
	diffLag = SeasonalPeriod + 1

	minVariance   = 1e-10
	sigma2Floor   = 1e-12
	ridgePenalty  = 1e-2
	convergeTol   = 1e-9
	convergeIters = 25
)

// Forecaster produces horizon point predictions for a prepared series.
type Forecaster interface {
	Name() string
	Forecast(ctx context.Context, ts domain.TimeSeries, horizon int) ([]domain.Point, error)
}

// SARIMA is a SARIMA(1,1,1)(1,1,1)_7 model fitted by conditional sum of
// squares. Parameters are left unconstrained, so short or irregular series
// yield a forecast instead of a stationarity error.
type SARIMA struct {
	MaxIterations int
}

func NewSARIMA(maxIterations int) *SARIMA {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &SARIMA{MaxIterations: maxIterations}
}

func (m *SARIMA) Name() string { return domain.MethodSARIMA }

// Params are the fitted coefficients.
type Params struct {
	AR, MA, SAR, SMA float64
}

func paramsFromVec(x []float64) Params {
	return Params{AR: x[0], MA: x[1], SAR: x[2], SMA: x[3]}
}

// Fitted is a model fitted to one series.
type Fitted struct {
	Params     Params
	Sigma2     float64
	Iterations int
	history    []float64
	diffed     []float64
	resid      []float64
}

// Forecast fits the model and predicts horizon days past the last observation.
func (m *SARIMA) Forecast(ctx context.Context, ts domain.TimeSeries, horizon int) ([]domain.Point, error) {
	if horizon <= 0 {
		return nil, &domain.DataError{Kind: domain.KindBadRequest, Product: ts.Product, Msg: "horizon must be a positive number of days"}
	}

	fitted, err := m.Fit(ctx, ts)
	if err != nil {
		return nil, err
	}

	values := fitted.Predict(horizon)
	points := futureDates(ts.LastDate(), horizon)
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			fitFailuresTotal.WithLabelValues("non_finite_forecast").Inc()
			return nil, &domain.ModelFitError{Product: ts.Product, Reason: "forecast is not finite"}
		}
		points[i].Value = math.Max(0, math.Trunc(v))
	}
	return points, nil
}

// Fit estimates the model parameters. It returns ctx.Err() if the context is
// done before the optimizer finishes.
func (m *SARIMA) Fit(ctx context.Context, ts domain.TimeSeries) (*Fitted, error) {
	y := ts.Values()
	if len(y) <= diffLag {
		fitFailuresTotal.WithLabelValues("too_short").Inc()
		return nil, &domain.ModelFitError{
			Product: ts.Product,
			Reason:  fmt.Sprintf("series has %d observations, more than %d are required", len(y), diffLag),
		}
	}
	if stat.Variance(y, nil) < minVariance {
		fitFailuresTotal.WithLabelValues("zero_variance").Inc()
		return nil, &domain.ModelFitError{Product: ts.Product, Reason: "series has near-zero variance"}
	}

	w := difference(y)
	n := float64(len(w))

	objective := func(x []float64) float64 {
		if ctx.Err() != nil {
			return math.Inf(1)
		}
		sse := residuals(w, paramsFromVec(x), make([]float64, len(w)))
		if math.IsNaN(sse) || math.IsInf(sse, 0) {
			return math.Inf(1)
		}
		penalty := 0.0
		for _, v := range x {
			penalty += v * v
		}
		return 0.5*n*math.Log(math.Max(sse/n, sigma2Floor)) + ridgePenalty*penalty
	}

	settings := &optimize.Settings{
		MajorIterations: m.MaxIterations,
		FuncEvaluations: 20 * m.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   convergeTol,
			Iterations: convergeIters,
		},
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 {
			settings.Runtime = remaining
		}
	}

	start := time.Now()
	result, err := optimize.Minimize(optimize.Problem{Func: objective}, make([]float64, 4), settings, &optimize.NelderMead{})
	fitDurationSeconds.Observe(time.Since(start).Seconds())

	if ctxErr := ctx.Err(); ctxErr != nil {
		fitFailuresTotal.WithLabelValues("cancelled").Inc()
		return nil, ctxErr
	}
	if err != nil {
		fitFailuresTotal.WithLabelValues("optimizer_error").Inc()
		return nil, &domain.ModelFitError{Product: ts.Product, Reason: "optimizer failed", Err: err}
	}
	if !converged(result.Status) {
		fitFailuresTotal.WithLabelValues("not_converged").Inc()
		return nil, &domain.ModelFitError{Product: ts.Product, Reason: "optimizer did not converge: " + result.Status.String()}
	}
	if math.IsInf(result.F, 0) || math.IsNaN(result.F) {
		fitFailuresTotal.WithLabelValues("non_finite_objective").Inc()
		return nil, &domain.ModelFitError{Product: ts.Product, Reason: "likelihood is not finite"}
	}

	params := paramsFromVec(result.X)
	resid := make([]float64, len(w))
	sse := residuals(w, params, resid)

	log.Debug().
		Str("product", ts.Product).
		Float64("ar", params.AR).
		Float64("ma", params.MA).
		Float64("sar", params.SAR).
		Float64("sma", params.SMA).
		Int("iterations", result.MajorIterations).
		Dur("duration", time.Since(start)).
		Msg("sarima fitted")

	return &Fitted{
		Params:     params,
		Sigma2:     sse / n,
		Iterations: result.MajorIterations,
		history:    y,
		diffed:     w,
		resid:      resid,
	}, nil
}

func converged(s optimize.Status) bool {
	switch s {
	case optimize.NotTerminated, optimize.Failure, optimize.IterationLimit,
		optimize.FunctionEvaluationLimit, optimize.RuntimeLimit:
		return false
	}
	return true
}

// Predict returns horizon values on the original scale. Future shocks are
// zero, and the differenced forecast is integrated back through both lags.
func (f *Fitted) Predict(horizon int) []float64 {
	p := f.Params
	m := len(f.diffed)

	w := make([]float64, m+horizon)
	copy(w, f.diffed)
	e := make([]float64, m+horizon)
	copy(e, f.resid)

	at := func(s []float64, i int) float64 {
		if i < 0 {
			return 0
		}
		return s[i]
	}

	for t := m; t < m+horizon; t++ {
		w[t] = p.AR*at(w, t-1) + p.SAR*at(w, t-SeasonalPeriod) - p.AR*p.SAR*at(w, t-diffLag) +
			p.MA*at(e, t-1) + p.SMA*at(e, t-SeasonalPeriod) + p.MA*p.SMA*at(e, t-diffLag)
	}

	y := make([]float64, len(f.history)+horizon)
	copy(y, f.history)
	n := len(f.history)
	for h := 0; h < horizon; h++ {
		t := n + h
		y[t] = w[m+h] + y[t-1] + y[t-SeasonalPeriod] - y[t-diffLag]
	}
	return y[n:]
}

// difference applies (1-B)(1-B^7) to y.
func difference(y []float64) []float64 {
	w := make([]float64, len(y)-diffLag)
	for t := diffLag; t < len(y); t++ {
		w[t-diffLag] = y[t] - y[t-1] - y[t-SeasonalPeriod] + y[t-diffLag]
	}
	return w
}

// residuals fills e with the one-step errors of the differenced series under
// p, treating pre-sample values as zero, and returns their sum of squares.
func residuals(w []float64, p Params, e []float64) float64 {
	at := func(s []float64, i int) float64 {
		if i < 0 {
			return 0
		}
		return s[i]
	}

	sse := 0.0
	for t := range w {
		e[t] = w[t] -
			p.AR*at(w, t-1) - p.SAR*at(w, t-SeasonalPeriod) + p.AR*p.SAR*at(w, t-diffLag) -
			p.MA*at(e, t-1) - p.SMA*at(e, t-SeasonalPeriod) - p.MA*p.SMA*at(e, t-diffLag)
		sse += e[t] * e[t]
	}
	return sse
}
