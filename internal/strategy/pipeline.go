package strategy

import (
	"context"
	"errors"
	"time"

	"battery-sizing/internal/analysis"
	"battery-sizing/internal/dispatch"
	"battery-sizing/internal/lp"
	"battery-sizing/internal/model"
	"battery-sizing/internal/tariff"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// plotInput is a validated series with its prices.
type plotInput struct {
	plot   string
	series model.NetLoadSeries
	prices []float64
	tiers  []tariff.Tier
}

func prepare(plot string, series model.NetLoadSeries, cfg model.OptimizerConfig, c tariff.Classifier) (plotInput, error) {
	if err := series.Validate(cfg.DecisionStep); err != nil {
		var dataErr *model.DataError
		if errors.As(err, &dataErr) {
			dataErr.Plot = plot
		}
		return plotInput{}, err
	}
	times := lo.Map(series, func(p model.Point, _ int) time.Time { return p.Time })
	prices, tiers := tariff.Series(c, times)
	return plotInput{plot: plot, series: series, prices: prices, tiers: tiers}, nil
}

func (in plotInput) block(cfg model.OptimizerConfig) dispatch.BlockInput {
	return dispatch.BlockInput{Plot: in.plot, Series: in.series, Prices: in.prices, Config: cfg}
}

// solve runs the solver and maps every non-optimal status onto the error taxonomy.
func solve(ctx context.Context, o options, p *lp.Problem, plot string, cfg model.OptimizerConfig) (*lp.Solution, time.Duration, error) {
	log := o.logger.With(zap.String("plot", plot))
	log.Debug("solving", zap.Int("variables", p.NumVars()), zap.Int("constraints", p.NumConstraints()))

	began := time.Now()
	sol, err := o.solver.Solve(ctx, p)
	elapsed := time.Since(began)
	if err != nil {
		log.Error("solver rejected problem", zap.Error(err))
		return nil, elapsed, &model.SolverError{Plot: plot, Status: string(lp.StatusError), Err: err}
	}
	log.Info("solve finished",
		zap.String("status", string(sol.Status)),
		zap.Duration("elapsed", elapsed),
		zap.Int("rows", sol.Rows),
		zap.Int("cols", sol.Cols),
	)
	switch sol.Status {
	case lp.StatusOptimal:
		return sol, elapsed, nil
	case lp.StatusInfeasible:
		return nil, elapsed, &model.InfeasibleError{Plot: plot, Params: cfg.Params()}
	default:
		return nil, elapsed, &model.SolverError{Plot: plot, Status: string(sol.Status), Err: sol.Cause}
	}
}

// assemble prices the solved schedule of one block and derives its metrics.
func assemble(name string, in plotInput, b *dispatch.Block, sol *lp.Solution, cfg model.OptimizerConfig) *model.OptimizationResult {
	d, capacity := b.Extract(sol)
	settled := dispatch.Settle(in.series, in.prices, d, cfg)
	base := dispatch.Baseline(in.series, in.prices, cfg)
	years := in.series.Years(cfg.DecisionStep)

	capital := capacity * b.CapitalCoef
	r := &model.OptimizationResult{
		Plot:            in.plot,
		Strategy:        name,
		BatteryCapacity: capacity,

		TotalCost:     capital + settled.OperatingCost(),
		CapitalCost:   capital,
		OperatingCost: settled.OperatingCost(),
		EnergyCost:    settled.EnergyCost,
		DemandCost:    settled.DemandCost,

		BaselineCost:       base.OperatingCost(),
		BaselineEnergyCost: base.EnergyCost,
		BaselineDemandCost: base.DemandCost,

		SeriesYears:             years,
		AnnualSavings:           (base.OperatingCost() - settled.OperatingCost()) / years,
		BaselineAnnualCost:      base.OperatingCost() / years,
		BatteryConstructionCost: capacity * cfg.BatteryCostPerKWh,

		SellEnergyProfit:           settled.SellProfit,
		SellEnergyProfitRatio:      analysis.Ratio(settled.SellProfit, base.OperatingCost()),
		OperationalCostSavingRatio: analysis.Ratio(base.OperatingCost()-settled.OperatingCost(), base.OperatingCost()),

		Times:    lo.Map(in.series, func(p model.Point, _ int) time.Time { return p.Time }),
		NetLoad:  in.series.Values(),
		Prices:   in.prices,
		Tiers:    lo.Map(in.tiers, func(t tariff.Tier, _ int) string { return string(t) }),
		Dispatch: d,
	}
	if cfg.DemandChargeRate > 0 {
		r.PeakDemand = settled.Peaks
		r.BaselinePeakDemand = base.Peaks
	}
	r.Metrics = analysis.MetricsFor(r, cfg)
	return r
}
