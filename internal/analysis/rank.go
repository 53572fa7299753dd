package analysis

import (
	"sort"

	"battery-sizing/internal/model"
)

// RankedPlot is one row of a savings ranking.
type RankedPlot struct {
	Plot            string   `json:"plot"`
	BatteryCapacity float64  `json:"battery_capacity"`
	AnnualSavings   float64  `json:"annual_savings"`
	PaybackPeriod   *float64 `json:"payback_period"`
	NPV             float64  `json:"npv"`
}

// RankBySavings sorts plots descending by annual savings, ties by plot id.
func RankBySavings(results map[string]*model.OptimizationResult) []RankedPlot {
	out := make([]RankedPlot, 0, len(results))
	for id, r := range results {
		if r == nil {
			continue
		}
		out = append(out, RankedPlot{
			Plot:            id,
			BatteryCapacity: r.BatteryCapacity,
			AnnualSavings:   r.AnnualSavings,
			PaybackPeriod:   r.Metrics.PaybackPeriod,
			NPV:             r.Metrics.NPV,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AnnualSavings != out[j].AnnualSavings {
			return out[i].AnnualSavings > out[j].AnnualSavings
		}
		return out[i].Plot < out[j].Plot
	})
	return out
}
