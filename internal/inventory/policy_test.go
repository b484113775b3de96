package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafetyFactorIsNormalQuantile(t *testing.T) {
	pc := NewPolicyCalculator(DefaultPolicyConfig())
	assert.InDelta(t, 1.6449, pc.SafetyFactor(), 1e-4)
}

func TestCalculate(t *testing.T) {
	pc := NewPolicyCalculator(DefaultPolicyConfig())

	p := pc.Calculate([]float64{17, 16, 18, 17, 19}, 50)

	assert.Equal(t, 17.4, p.ForecastMean)
	assert.Equal(t, 5.0, p.ForecastStd, "sample std of 1.14 is floored")
	assert.Equal(t, 44, p.OrderQuantity)
	assert.Equal(t, 25.62, p.ReorderPoint)
	assert.Equal(t, 8.22, p.SafetyStock)
	assert.Equal(t, 7.2, p.HoldingCost)
	assert.Equal(t, 8.7, p.StockoutCost)
	assert.Equal(t, 15.9, p.TotalCost)
}

func TestCalculateEdgeCases(t *testing.T) {
	pc := NewPolicyCalculator(DefaultPolicyConfig())

	tests := []struct {
		name     string
		forecast []float64
		wantQty  int
	}{
		{"constant forecast", []float64{10, 10, 10}, 29},
		{"single day horizon", []float64{7}, 23},
		{"all zero", []float64{0, 0, 0, 0}, 9},
		{"wide spread", []float64{0, 100}, 217},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := pc.Calculate(tt.forecast, 0)
			assert.Equal(t, tt.wantQty, p.OrderQuantity)
			assert.GreaterOrEqual(t, p.ReorderPoint, 0.0)
			assert.InDelta(t, p.ReorderPoint-p.ForecastMean, p.SafetyStock, 1e-9)
		})
	}
}

func TestCalculateWithCustomConfig(t *testing.T) {
	cfg := DefaultPolicyConfig()
	cfg.LeadTimeDays = 4
	pc := NewPolicyCalculator(cfg)

	p := pc.Calculate([]float64{10, 10}, 0)

	// z × 5 × √4
	assert.Equal(t, 16.45, p.SafetyStock)
	assert.Equal(t, 56.45, p.ReorderPoint)
	assert.Equal(t, 20.0, p.StockoutCost)
}

func TestReorderPointRoundsTheSum(t *testing.T) {
	pc := NewPolicyCalculator(DefaultPolicyConfig())

	// mean 10.333 + buffer 8.224 = 18.557; rounding the parts would give 18.55
	p := pc.Calculate([]float64{10, 10, 11}, 0)

	assert.Equal(t, 10.33, p.ForecastMean)
	assert.Equal(t, 18.56, p.ReorderPoint)
	assert.Equal(t, 8.23, p.SafetyStock)
	assert.InDelta(t, p.ReorderPoint-p.ForecastMean, p.SafetyStock, 1e-9)
}
