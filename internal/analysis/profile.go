package analysis

import (
	"math"
	"sort"
	"time"

	"battery-sizing/internal/model"
	"battery-sizing/internal/tariff"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// LoadProfile is a plot-level summary of a net-load series and its tariff.
// It does not depend on a battery size.
type LoadProfile struct {
	Plot  string    `json:"plot,omitempty"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Count int       `json:"count"`

	MinKW  float64 `json:"min_kw"`
	MaxKW  float64 `json:"max_kw"`
	MeanKW float64 `json:"mean_kw"`
	P05KW  float64 `json:"p05_kw"`
	P95KW  float64 `json:"p95_kw"`

	DeficitKWh float64 `json:"deficit_kwh"`
	SurplusKWh float64 `json:"surplus_kwh"`

	MinPrice    float64 `json:"min_price"`
	MaxPrice    float64 `json:"max_price"`
	PriceSpread float64 `json:"price_spread"`
	// TierSteps counts steps per tariff tier.
	TierSteps map[tariff.Tier]int `json:"tier_steps"`
}

// Profile summarizes a series. stepHours converts kW to kWh.
func Profile(plot string, series model.NetLoadSeries, c tariff.Classifier, stepHours float64) LoadProfile {
	p := LoadProfile{Plot: plot, TierSteps: map[tariff.Tier]int{}}
	if len(series) == 0 {
		return p
	}
	p.Count = len(series)
	p.Start = series[0].Time
	p.End = series[len(series)-1].Time

	vals := series.Values()
	p.MinKW = floats.Min(vals)
	p.MaxKW = floats.Max(vals)
	p.MeanKW = stat.Mean(vals, nil)
	for _, v := range vals {
		p.DeficitKWh += math.Max(v, 0) * stepHours
		p.SurplusKWh += math.Max(-v, 0) * stepHours
	}
	sort.Float64s(vals)
	p.P05KW = percentileSorted(vals, 0.05)
	p.P95KW = percentileSorted(vals, 0.95)

	p.MinPrice = math.Inf(1)
	p.MaxPrice = math.Inf(-1)
	for _, pt := range series {
		price, tier := c.PriceAt(pt.Time)
		p.MinPrice = math.Min(p.MinPrice, price)
		p.MaxPrice = math.Max(p.MaxPrice, price)
		p.TierSteps[tier]++
	}
	p.PriceSpread = p.MaxPrice - p.MinPrice
	return p
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
