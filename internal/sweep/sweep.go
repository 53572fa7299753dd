// Package sweep runs independent optimizations across parameter grids on a
// bounded worker pool.
package sweep

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"battery-sizing/internal/model"
	"battery-sizing/internal/strategy"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Case is one point of a parameter grid.
type Case struct {
	Label  string
	Value  float64
	Config model.OptimizerConfig
}

// Outcome pairs a case with its result or its failure.
type Outcome struct {
	Case   Case
	Result *model.OptimizationResult
	Err    error
}

type Options struct {
	// Workers bounds concurrent solves; zero means GOMAXPROCS.
	Workers int
	// Progress is called once per finished case, from worker goroutines.
	Progress func()
}

// Run optimizes series once per case. Outcomes keep the order of cases and a
// failing case does not stop the others; only ctx cancellation stops
// dispatching, in which case the context error is returned along with the
// outcomes gathered so far.
func Run(ctx context.Context, opt strategy.Optimizer, series model.NetLoadSeries, cases []Case, o Options) ([]Outcome, error) {
	workers := o.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([]Outcome, len(cases))
	for i, c := range cases {
		out[i].Case = c
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, c := range cases {
		if gctx.Err() != nil {
			break
		}
		i, c := i, c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				out[i].Err = err
				return err
			}
			r, err := opt.Optimize(gctx, series, c.Config)
			out[i].Result, out[i].Err = r, err
			if o.Progress != nil {
				o.Progress()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, ctx.Err()
}

// Plots optimizes every plot on its own with the same config. The first
// failure cancels the remaining solves and is returned with its plot id.
func Plots(ctx context.Context, opt strategy.Optimizer, plots map[string]model.NetLoadSeries, cfg model.OptimizerConfig, o Options) (map[string]*model.OptimizationResult, error) {
	workers := o.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var mu sync.Mutex
	out := make(map[string]*model.OptimizationResult, len(plots))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, id := range lo.Keys(plots) {
		id := id
		g.Go(func() error {
			r, err := opt.Optimize(gctx, plots[id], cfg)
			if o.Progress != nil {
				o.Progress()
			}
			if err != nil {
				return fmt.Errorf("plot %s: %w", id, err)
			}
			r.Plot = id
			mu.Lock()
			out[id] = r
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func grid(name string, base model.OptimizerConfig, values []float64, set func(*model.OptimizerConfig, float64)) []Case {
	cases := make([]Case, 0, len(values))
	for _, v := range values {
		c := base
		set(&c, v)
		cases = append(cases, Case{Label: fmt.Sprintf("%s=%g", name, v), Value: v, Config: c})
	}
	return cases
}

// BatteryCostCases varies the battery cost per kWh.
func BatteryCostCases(base model.OptimizerConfig, values []float64) []Case {
	return grid("battery_cost_per_kwh", base, values, func(c *model.OptimizerConfig, v float64) { c.BatteryCostPerKWh = v })
}

// MaxCapacityCases varies the maximum battery capacity.
func MaxCapacityCases(base model.OptimizerConfig, values []float64) []Case {
	return grid("max_battery_capacity", base, values, func(c *model.OptimizerConfig, v float64) { c.MaxBatteryCapacity = v })
}

// SellRatioCases varies the export price ratio.
func SellRatioCases(base model.OptimizerConfig, values []float64) []Case {
	return grid("sell_price_ratio", base, values, func(c *model.OptimizerConfig, v float64) { c.SellPriceRatio = v })
}

// Range returns from, from+step, ... up to and including to.
func Range(from, to, step float64) ([]float64, error) {
	if step <= 0 || to < from {
		return nil, fmt.Errorf("invalid range %v..%v step %v", from, to, step)
	}
	n := int((to-from)/step+1e-9) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = from + float64(i)*step
	}
	return out, nil
}
