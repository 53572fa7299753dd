package dispatch

import (
	"math"

	"battery-sizing/internal/model"
)

// Settlement prices one schedule against the tariff. All costs cover the
// span of the series.
type Settlement struct {
	ImportCost float64
	SellProfit float64
	// EnergyCost is ImportCost - SellProfit.
	EnergyCost float64
	DemandCost float64
	Peaks      map[string]float64
}

// OperatingCost is energy plus demand charges.
func (s Settlement) OperatingCost() float64 {
	return s.EnergyCost + s.DemandCost
}

// Settle prices a dispatch. Peaks are reported per billing period; they are
// only charged when the config has a demand rate.
func Settle(series model.NetLoadSeries, prices []float64, d model.DispatchSolution, cfg model.OptimizerConfig) Settlement {
	dt := cfg.DecisionStep
	s := Settlement{Peaks: make(map[string]float64)}
	for t := range series {
		s.ImportCost += prices[t] * d.GridImport[t] * dt
		s.SellProfit += cfg.SellPriceRatio * prices[t] * d.GridExport[t] * dt

		k := PeriodKey(series[t].Time, cfg.BillingPeriod)
		s.Peaks[k] = math.Max(s.Peaks[k], d.GridImport[t])
	}
	s.EnergyCost = s.ImportCost - s.SellProfit
	if cfg.DemandChargeRate > 0 {
		for _, peak := range s.Peaks {
			s.DemandCost += cfg.DemandChargeRate * peak
		}
	}
	return s
}

// BaselineDispatch is the schedule without a battery: deficits are imported,
// surplus is exported.
func BaselineDispatch(series model.NetLoadSeries) model.DispatchSolution {
	d := model.NewDispatchSolution(len(series))
	for t, p := range series {
		d.GridImport[t] = math.Max(p.Value, 0)
		d.GridExport[t] = math.Max(-p.Value, 0)
	}
	return d
}

// Baseline settles the zero-battery schedule. It equals the optimum of the
// program with capacity fixed at 0 whenever SellPriceRatio <= 1.
func Baseline(series model.NetLoadSeries, prices []float64, cfg model.OptimizerConfig) Settlement {
	return Settle(series, prices, BaselineDispatch(series), cfg)
}
