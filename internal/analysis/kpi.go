package analysis

import (
	"math"

	"battery-sizing/internal/model"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SystemKPIs describe how the battery was used. Nil means undefined, for
// example cycles of a zero-capacity battery.
type SystemKPIs struct {
	// SelfSufficiency is the share of the deficit energy not bought from the grid.
	SelfSufficiency *float64 `json:"self_sufficiency"`
	// SurplusSelfConsumption is the share of the surplus energy not exported.
	SurplusSelfConsumption *float64 `json:"surplus_self_consumption"`
	ThroughputKWh          float64  `json:"throughput_kwh"`
	EquivalentFullCycles   *float64 `json:"equivalent_full_cycles"`
	AverageSOC             *float64 `json:"average_soc"`
}

// ComputeKPIs derives usage KPIs from a solved result.
func ComputeKPIs(r *model.OptimizationResult, cfg model.OptimizerConfig) SystemKPIs {
	dt := cfg.DecisionStep
	var deficit, surplus float64
	for _, v := range r.NetLoad {
		deficit += math.Max(v, 0) * dt
		surplus += math.Max(-v, 0) * dt
	}
	d := r.Dispatch
	imported := floats.Sum(d.GridImport) * dt
	exported := floats.Sum(d.GridExport) * dt

	k := SystemKPIs{ThroughputKWh: floats.Sum(d.Discharge) * dt}
	if deficit > 0 {
		k.SelfSufficiency = Ratio(deficit-imported, deficit)
	}
	if surplus > 0 {
		k.SurplusSelfConsumption = Ratio(surplus-exported, surplus)
	}
	if usable := r.BatteryCapacity * (cfg.SOCMax - cfg.SOCMin); usable > 1e-9 {
		k.EquivalentFullCycles = Ratio(k.ThroughputKWh, usable)
		if len(d.StoredEnergy) > 0 {
			k.AverageSOC = Ratio(stat.Mean(d.StoredEnergy, nil), r.BatteryCapacity)
		}
	}
	return k
}
