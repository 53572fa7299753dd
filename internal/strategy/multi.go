package strategy

import (
	"context"
	"fmt"
	"math"
	"sort"

	"battery-sizing/internal/analysis"
	"battery-sizing/internal/dispatch"
	"battery-sizing/internal/lp"
	"battery-sizing/internal/model"
	"battery-sizing/internal/tariff"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

const MultiPlotName = "multi_plot"

// singlePlotID names the only plot when MultiPlot runs as an Optimizer.
const singlePlotID = "plot"

// MultiPlot splits a capacity budget across plots with one joint LP: every
// plot contributes its own block and a single row caps the summed capacity.
type MultiPlot struct {
	Budget float64
	// Force requires the allocation to use the whole budget.
	Force bool
	// PlotMax caps individual plots; missing plots use MaxBatteryCapacity.
	PlotMax map[string]float64

	opts options
}

func NewMultiPlot(budget float64, opts ...Option) *MultiPlot {
	return &MultiPlot{Budget: budget, opts: buildOptions(opts)}
}

func (m *MultiPlot) Name() string { return MultiPlotName }

// Optimize treats the series as the only plot under the budget.
func (m *MultiPlot) Optimize(ctx context.Context, series model.NetLoadSeries, cfg model.OptimizerConfig) (*model.OptimizationResult, error) {
	res, err := m.OptimizeMultiPlots(ctx, map[string]model.NetLoadSeries{singlePlotID: series}, cfg)
	if err != nil {
		return nil, err
	}
	r := res.Plots[singlePlotID]
	r.Plot = ""
	return r, nil
}

// OptimizeMultiPlots solves all plots jointly. Any failure fails the whole
// solve; no partial allocation is returned.
func (m *MultiPlot) OptimizeMultiPlots(ctx context.Context, plots map[string]model.NetLoadSeries, cfg model.OptimizerConfig) (*model.MultiPlotResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(m.Budget) || math.IsInf(m.Budget, 0) || m.Budget < 0 {
		return nil, &model.ConfigurationError{Field: "total_capacity_budget", Reason: fmt.Sprintf("must be a finite value >= 0, got %v", m.Budget)}
	}
	if len(plots) == 0 {
		return nil, &model.DataError{Index: -1, Reason: "no plots"}
	}
	for id, limit := range m.PlotMax {
		if _, ok := plots[id]; !ok {
			return nil, &model.ConfigurationError{Field: "plot_max", Reason: fmt.Sprintf("unknown plot %q", id)}
		}
		if math.IsNaN(limit) || limit < 0 {
			return nil, &model.ConfigurationError{Field: "plot_max", Reason: fmt.Sprintf("plot %q: must be >= 0, got %v", id, limit)}
		}
	}
	classifier, err := tariff.New(cfg.Pricing)
	if err != nil {
		return nil, err
	}

	ids := lo.Keys(plots)
	sort.Strings(ids)
	reference := plots[ids[0]]
	inputs := make([]plotInput, 0, len(ids))
	for _, id := range ids {
		in, err := prepare(id, plots[id], cfg, classifier)
		if err != nil {
			return nil, err
		}
		if !in.series.SameIndex(reference) {
			return nil, &model.DataError{Plot: id, Index: -1, Reason: fmt.Sprintf("time index differs from plot %q", ids[0])}
		}
		inputs = append(inputs, in)
	}

	maxTotal := 0.0
	p := lp.NewProblem()
	blocks := make([]*dispatch.Block, len(inputs))
	budgetRow := make([]lp.Term, len(inputs))
	for i, in := range inputs {
		bi := in.block(cfg)
		if limit, ok := m.PlotMax[in.plot]; ok {
			bi.MaxCapacity = lo.ToPtr(limit)
			maxTotal += limit
		} else {
			maxTotal += cfg.MaxBatteryCapacity
		}
		b, err := dispatch.Build(p, bi)
		if err != nil {
			return nil, fmt.Errorf("build plot %q: %w", in.plot, err)
		}
		blocks[i] = b
		budgetRow[i] = lp.T(b.Capacity, 1)
	}
	if m.Force {
		if m.Budget > maxTotal {
			return nil, &model.ConfigurationError{
				Field:  "total_capacity_budget",
				Reason: fmt.Sprintf("forced budget %v exceeds the summed plot maxima %v", m.Budget, maxTotal),
			}
		}
		p.AddConstraint("budget", lp.EQ, m.Budget, budgetRow...)
	} else {
		p.AddConstraint("budget", lp.LE, m.Budget, budgetRow...)
	}

	m.opts.logger.Debug("joint program built",
		zap.Int("plots", len(inputs)),
		zap.Float64("budget", m.Budget),
		zap.Bool("force", m.Force),
	)
	sol, elapsed, err := solve(ctx, m.opts, p, "", cfg)
	if err != nil {
		return nil, err
	}

	res := &model.MultiPlotResult{
		Budget:     m.Budget,
		Forced:     m.Force,
		Allocation: make(model.PlotAllocation, len(inputs)),
		Plots:      make(map[string]*model.OptimizationResult, len(inputs)),
		SolveTime:  elapsed,
	}
	var construction, baselineAnnual, sellProfit float64
	for i, in := range inputs {
		r := assemble(m.Name(), in, blocks[i], sol, cfg)
		r.SolveTime = elapsed
		res.Plots[in.plot] = r
		res.Allocation[in.plot] = r.BatteryCapacity
		res.TotalCost += r.TotalCost
		res.AnnualSavings += r.AnnualSavings
		construction += r.BatteryConstructionCost
		baselineAnnual += r.BaselineAnnualCost
		sellProfit += r.SellEnergyProfit
	}
	res.TotalCapacity = res.Allocation.Total()
	res.Metrics = analysis.Compute(analysis.Inputs{
		ConstructionCost:   construction,
		AnnualSavings:      res.AnnualSavings,
		BaselineAnnualCost: baselineAnnual,
		Years:              cfg.Years,
		DiscountRate:       cfg.DiscountRate,
		SellEnergyProfit:   sellProfit,
	})
	m.opts.logger.Info("plots allocated",
		zap.Any("allocation", res.Allocation),
		zap.Float64("total_capacity", res.TotalCapacity),
		zap.Duration("elapsed", elapsed),
	)
	return res, nil
}
