package analysis

import (
	"math"

	"battery-sizing/internal/model"

	"github.com/samber/lo"
)

// Inputs are the scalars the metrics are computed from.
type Inputs struct {
	ConstructionCost   float64
	AnnualSavings      float64
	BaselineAnnualCost float64
	Years              int
	DiscountRate       float64
	SellEnergyProfit   float64
}

// Compute derives the economic metrics. Undefined values are left nil.
func Compute(in Inputs) model.EconomicMetrics {
	m := model.EconomicMetrics{
		NPV:              NPV(in.ConstructionCost, in.AnnualSavings, in.Years, in.DiscountRate),
		SellEnergyProfit: in.SellEnergyProfit,
	}
	if payback, ok := PaybackPeriod(in.ConstructionCost, in.AnnualSavings); ok {
		m.PaybackPeriod = lo.ToPtr(payback)
	}
	if irr, err := IRR(in.ConstructionCost, in.AnnualSavings, in.Years); err == nil {
		m.IRR = lo.ToPtr(irr)
	}
	m.OperationalCostSavingRatio = Ratio(in.AnnualSavings, in.BaselineAnnualCost)
	return m
}

// MetricsFor recomputes the metrics of a result.
func MetricsFor(r *model.OptimizationResult, cfg model.OptimizerConfig) model.EconomicMetrics {
	return Compute(Inputs{
		ConstructionCost:   r.BatteryConstructionCost,
		AnnualSavings:      r.AnnualSavings,
		BaselineAnnualCost: r.BaselineAnnualCost,
		Years:              cfg.Years,
		DiscountRate:       cfg.DiscountRate,
		SellEnergyProfit:   r.SellEnergyProfit,
	})
}

// Ratio is num / den, or nil when den is zero.
func Ratio(num, den float64) *float64 {
	if math.Abs(den) < 1e-12 {
		return nil
	}
	return lo.ToPtr(num / den)
}
