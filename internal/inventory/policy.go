package inventory

import (
	"math"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// PolicyConfig holds the replenishment constants.
type PolicyConfig struct {
	LeadTimeDays     float64
	ServiceLevel     float64
	HoldingCostRate  float64
	StockoutCostRate float64
	MinForecastStd   float64
}

// DefaultPolicyConfig returns the standard policy: one day lead time and a
// 95% service level.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		LeadTimeDays:     1,
		ServiceLevel:     0.95,
		HoldingCostRate:  0.1,
		StockoutCostRate: 10,
		MinForecastStd:   5,
	}
}

// Policy is the recommended replenishment for one product.
type Policy struct {
	OrderQuantity int
	ReorderPoint  float64
	SafetyStock   float64
	HoldingCost   float64
	StockoutCost  float64
	TotalCost     float64
	ForecastMean  float64
	ForecastStd   float64
	SafetyFactor  float64
}

// PolicyCalculator derives order quantity, reorder point, safety stock and
// expected cost from a demand forecast.
type PolicyCalculator struct {
	cfg PolicyConfig
	z   float64
}

// NewPolicyCalculator creates a calculator. The safety factor is the
// standard normal quantile at the configured service level.
func NewPolicyCalculator(cfg PolicyConfig) *PolicyCalculator {
	def := DefaultPolicyConfig()
	if cfg.LeadTimeDays <= 0 {
		cfg.LeadTimeDays = def.LeadTimeDays
	}
	if cfg.ServiceLevel <= 0 || cfg.ServiceLevel >= 1 {
		cfg.ServiceLevel = def.ServiceLevel
	}
	if cfg.MinForecastStd <= 0 {
		cfg.MinForecastStd = def.MinForecastStd
	}
	return &PolicyCalculator{
		cfg: cfg,
		z:   distuv.UnitNormal.Quantile(cfg.ServiceLevel),
	}
}

func (pc *PolicyCalculator) SafetyFactor() float64 {
	return pc.z
}

// Calculate computes the policy for forecast values and the current on-hand
// inventory.
func (pc *PolicyCalculator) Calculate(forecast []float64, currentInventory float64) Policy {
	L := pc.cfg.LeadTimeDays

	// 1. Forecast mean and spread; the spread is floored so the interval
	// never collapses, including for single-day horizons.
	mean := 0.0
	if len(forecast) > 0 {
		mean = stat.Mean(forecast, nil)
	}
	std := 0.0
	if len(forecast) > 1 {
		std = stat.StdDev(forecast, nil)
	}
	if math.IsNaN(std) || std < pc.cfg.MinForecastStd {
		std = pc.cfg.MinForecastStd
	}

	// 2. Order quantity = ceil(2 × mean + z × std)
	orderQty := int(math.Ceil(2*mean + pc.z*std))
	if orderQty < 0 {
		orderQty = 0
	}

	// 3. Reorder point = mean × L + z × std × √L, rounded once
	leadDemand := mean * L
	reorderPointD := decimal.NewFromFloat(leadDemand + pc.z*std*math.Sqrt(L)).Round(2)

	// 4. Safety stock = reorder point − lead time demand, both as reported
	leadDemandD := decimal.NewFromFloat(leadDemand).Round(2)
	safetyStockD := reorderPointD.Sub(leadDemandD)

	// 5. Costs
	holding := pc.cfg.HoldingCostRate * (currentInventory + 0.5*float64(orderQty))
	stockout := pc.cfg.StockoutCostRate * (1 - pc.cfg.ServiceLevel) * leadDemand

	return Policy{
		OrderQuantity: orderQty,
		ReorderPoint:  reorderPointD.InexactFloat64(),
		SafetyStock:   safetyStockD.InexactFloat64(),
		HoldingCost:   round2(holding),
		StockoutCost:  round2(stockout),
		TotalCost:     round2(holding + stockout),
		ForecastMean:  round2(mean),
		ForecastStd:   round2(std),
		SafetyFactor:  pc.z,
	}
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
