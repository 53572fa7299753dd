// Package dispatch builds the battery sizing and dispatch linear program for
// one plot and prices the resulting schedules.
package dispatch

import (
	"fmt"

	"battery-sizing/internal/analysis"
	"battery-sizing/internal/lp"
	"battery-sizing/internal/model"
)

// BlockInput is everything needed to add one plot to a problem.
type BlockInput struct {
	Plot   string
	Series model.NetLoadSeries
	Prices []float64
	Config model.OptimizerConfig

	// MaxCapacity overrides Config.MaxBatteryCapacity when set.
	MaxCapacity *float64
	// FixedCapacity turns sizing off: the capacity becomes a constant.
	FixedCapacity *float64
}

// Block records the variables one plot contributed to a problem.
//
// Stored energy is modelled as headroom above the SOC floor,
// E(t) = SOCMin × capacity + Headroom(t), so every variable stays >= 0 and
// the floor bound holds by construction.
type Block struct {
	Plot string

	Capacity      lp.Var
	fixed         bool
	fixedCapacity float64

	// CapitalCoef is the objective coefficient of the capacity, per kWh.
	CapitalCoef float64

	Import    []lp.Var
	Export    []lp.Var
	Charge    []lp.Var
	Discharge []lp.Var
	Headroom  []lp.Var

	Periods []string
	Peaks   map[string]lp.Var

	socMin float64
}

// CapitalFactor scales the per-kWh battery cost in the objective. It is 1
// unless capital is annualized, in which case the lump sum is spread with
// the capital recovery factor and pro-rated to the span of the series.
func CapitalFactor(cfg model.OptimizerConfig, seriesYears float64) float64 {
	if !cfg.AnnualizeCapital {
		return 1
	}
	return analysis.CRF(cfg.DiscountRate, cfg.Years) * seriesYears
}

func (b *Block) name(kind string, i int) string {
	if b.Plot == "" {
		return fmt.Sprintf("%s[%d]", kind, i)
	}
	return fmt.Sprintf("%s.%s[%d]", b.Plot, kind, i)
}

// Build adds one plot's variables and constraints to p.
func Build(p *lp.Problem, in BlockInput) (*Block, error) {
	n := len(in.Series)
	if n == 0 {
		return nil, &model.DataError{Plot: in.Plot, Index: -1, Reason: "empty series"}
	}
	if len(in.Prices) != n {
		return nil, fmt.Errorf("plot %q: %d prices for %d steps", in.Plot, len(in.Prices), n)
	}
	cfg := in.Config
	dt := cfg.DecisionStep
	maxCap := cfg.MaxBatteryCapacity
	if in.MaxCapacity != nil {
		maxCap = *in.MaxCapacity
	}

	b := &Block{
		Plot:      in.Plot,
		Capacity:  -1,
		Import:    make([]lp.Var, n),
		Export:    make([]lp.Var, n),
		Charge:    make([]lp.Var, n),
		Discharge: make([]lp.Var, n),
		Headroom:  make([]lp.Var, n),
		socMin:    cfg.SOCMin,
	}
	b.CapitalCoef = cfg.BatteryCostPerKWh * CapitalFactor(cfg, in.Series.Years(dt))

	if in.FixedCapacity != nil {
		if *in.FixedCapacity < 0 {
			return nil, &model.ConfigurationError{Field: "capacity", Reason: fmt.Sprintf("must be >= 0, got %v", *in.FixedCapacity)}
		}
		b.fixed = true
		b.fixedCapacity = *in.FixedCapacity
	} else {
		if maxCap < 0 {
			return nil, &model.ConfigurationError{Field: "max_battery_capacity", Reason: fmt.Sprintf("plot %q: must be >= 0, got %v", in.Plot, maxCap)}
		}
		b.Capacity = p.AddVar(b.name("capacity", 0), b.CapitalCoef)
		p.SetUpper(b.Capacity, maxCap)
	}

	span := cfg.SOCMax - cfg.SOCMin
	retain := 1 - cfg.SelfDischargeRate
	for t := 0; t < n; t++ {
		price := in.Prices[t] * dt
		b.Import[t] = p.AddVar(b.name("import", t), price)
		b.Export[t] = p.AddVar(b.name("export", t), -cfg.SellPriceRatio*price)
		b.Charge[t] = p.AddVar(b.name("charge", t), 0)
		b.Discharge[t] = p.AddVar(b.name("discharge", t), 0)
		b.Headroom[t] = p.AddVar(b.name("headroom", t), 0)

		p.AddConstraint(b.name("balance", t), lp.EQ, in.Series[t].Value,
			lp.T(b.Import[t], 1), lp.T(b.Export[t], -1),
			lp.T(b.Discharge[t], 1), lp.T(b.Charge[t], -1))

		// y(t) - retain*y(t-1) - ηc·Δt·charge + Δt/ηd·discharge = -sd·SOCMin·capacity
		soc := []lp.Term{
			lp.T(b.Headroom[t], 1),
			lp.T(b.Charge[t], -cfg.ChargeEfficiency*dt),
			lp.T(b.Discharge[t], dt/cfg.DischargeEfficiency),
		}
		if t > 0 {
			soc = append(soc, lp.T(b.Headroom[t-1], -retain))
		}
		floorLoss := cfg.SelfDischargeRate * cfg.SOCMin

		if b.fixed {
			c := b.fixedCapacity
			p.SetUpper(b.Charge[t], cfg.ChargePowerRatio*c)
			p.SetUpper(b.Discharge[t], cfg.DischargePowerRatio*c)
			p.SetUpper(b.Headroom[t], span*c)
			p.AddConstraint(b.name("soc", t), lp.EQ, -floorLoss*c, soc...)
			continue
		}
		p.AddConstraint(b.name("charge_limit", t), lp.LE, 0,
			lp.T(b.Charge[t], 1), lp.T(b.Capacity, -cfg.ChargePowerRatio))
		p.AddConstraint(b.name("discharge_limit", t), lp.LE, 0,
			lp.T(b.Discharge[t], 1), lp.T(b.Capacity, -cfg.DischargePowerRatio))
		p.AddConstraint(b.name("soc_max", t), lp.LE, 0,
			lp.T(b.Headroom[t], 1), lp.T(b.Capacity, -span))
		if floorLoss > 0 {
			soc = append(soc, lp.T(b.Capacity, floorLoss))
		}
		p.AddConstraint(b.name("soc", t), lp.EQ, 0, soc...)
	}

	if cfg.DemandChargeRate > 0 {
		keys, steps := Partition(in.Series, cfg.BillingPeriod)
		b.Periods = keys
		b.Peaks = make(map[string]lp.Var, len(keys))
		for _, k := range keys {
			peak := p.AddVar(b.name("peak_"+k, 0), cfg.DemandChargeRate)
			b.Peaks[k] = peak
			for _, t := range steps[k] {
				p.AddConstraint(b.name("peak_"+k, t), lp.LE, 0,
					lp.T(b.Import[t], 1), lp.T(peak, -1))
			}
		}
	}
	return b, nil
}

// CapacityValue returns the solved (or fixed) capacity.
func (b *Block) CapacityValue(sol *lp.Solution) float64 {
	if b.fixed {
		return b.fixedCapacity
	}
	return clampZero(sol.Value(b.Capacity))
}

// Extract reads the block's schedule out of an optimal solution.
func (b *Block) Extract(sol *lp.Solution) (model.DispatchSolution, float64) {
	capacity := b.CapacityValue(sol)
	d := model.NewDispatchSolution(len(b.Import))
	for t := range b.Import {
		d.GridImport[t] = clampZero(sol.Value(b.Import[t]))
		d.GridExport[t] = clampZero(sol.Value(b.Export[t]))
		d.Charge[t] = clampZero(sol.Value(b.Charge[t]))
		d.Discharge[t] = clampZero(sol.Value(b.Discharge[t]))
		d.StoredEnergy[t] = b.socMin*capacity + clampZero(sol.Value(b.Headroom[t]))
	}
	return d, capacity
}

// clampZero removes tiny negative values left by the solver.
func clampZero(x float64) float64 {
	if x < 0 && x > -1e-7 {
		return 0
	}
	return x
}
