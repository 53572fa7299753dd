// Package strategy holds the optimizers that size and dispatch batteries.
package strategy

import (
	"context"
	"fmt"

	"battery-sizing/internal/lp"
	"battery-sizing/internal/model"

	"go.uber.org/zap"
)

// Optimizer sizes a battery and schedules it against one net-load series.
// Implementations share no mutable state between calls.
type Optimizer interface {
	Name() string
	Optimize(ctx context.Context, series model.NetLoadSeries, cfg model.OptimizerConfig) (*model.OptimizationResult, error)
}

// Info describes an optimizer for listings.
type Info struct {
	Name        string
	Description string
}

// Available lists the built-in optimizers.
func Available() []Info {
	return []Info{
		{
			Name:        LinearProgramName,
			Description: "Joint battery sizing and dispatch as one linear program with perfect foresight of the net load.",
		},
		{
			Name:        MultiPlotName,
			Description: "Splits a shared capacity budget across plots by solving all plots as one linear program.",
		},
	}
}

// New builds a single-series optimizer by name. The multi-plot optimizer
// needs a budget and is built with NewMultiPlot.
func New(name string, opts ...Option) (Optimizer, error) {
	switch name {
	case LinearProgramName, "lp", "":
		return NewLinearProgram(opts...), nil
	default:
		return nil, fmt.Errorf("unknown optimizer %q", name)
	}
}

type options struct {
	solver lp.Solver
	logger *zap.Logger
}

// Option configures an optimizer.
type Option func(*options)

// WithSolver replaces the default sparse bounded simplex solver.
func WithSolver(s lp.Solver) Option {
	return func(o *options) { o.solver = s }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{solver: lp.BoundedSimplex{}, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
