package strategy

import (
	"context"
	"fmt"

	"battery-sizing/internal/dispatch"
	"battery-sizing/internal/lp"
	"battery-sizing/internal/model"
	"battery-sizing/internal/tariff"

	"go.uber.org/zap"
)

const LinearProgramName = "linear_program"

// LinearProgram sizes and dispatches one plot with a single LP solve.
type LinearProgram struct {
	opts options
}

func NewLinearProgram(opts ...Option) *LinearProgram {
	return &LinearProgram{opts: buildOptions(opts)}
}

func (o *LinearProgram) Name() string { return LinearProgramName }

// Optimize chooses the capacity in [0, MaxBatteryCapacity] and the dispatch
// that together minimize capital plus operating cost.
func (o *LinearProgram) Optimize(ctx context.Context, series model.NetLoadSeries, cfg model.OptimizerConfig) (*model.OptimizationResult, error) {
	return o.run(ctx, series, cfg, nil)
}

// OptimizeDispatch schedules a battery of known capacity.
func (o *LinearProgram) OptimizeDispatch(ctx context.Context, series model.NetLoadSeries, cfg model.OptimizerConfig, capacity float64) (*model.OptimizationResult, error) {
	return o.run(ctx, series, cfg, &capacity)
}

func (o *LinearProgram) run(ctx context.Context, series model.NetLoadSeries, cfg model.OptimizerConfig, fixed *float64) (*model.OptimizationResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	classifier, err := tariff.New(cfg.Pricing)
	if err != nil {
		return nil, err
	}
	in, err := prepare("", series, cfg, classifier)
	if err != nil {
		return nil, err
	}

	p := lp.NewProblem()
	bi := in.block(cfg)
	bi.FixedCapacity = fixed
	b, err := dispatch.Build(p, bi)
	if err != nil {
		return nil, fmt.Errorf("build program: %w", err)
	}
	sol, elapsed, err := solve(ctx, o.opts, p, "", cfg)
	if err != nil {
		return nil, err
	}

	r := assemble(o.Name(), in, b, sol, cfg)
	r.SolveTime = elapsed
	o.opts.logger.Info("optimized",
		zap.Float64("battery_capacity", r.BatteryCapacity),
		zap.Float64("total_cost", r.TotalCost),
		zap.Float64("annual_savings", r.AnnualSavings),
	)
	return r, nil
}
