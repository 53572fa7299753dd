package lp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var solvers = []struct {
	name   string
	solver Solver
}{
	{"bounded", BoundedSimplex{}},
	{"dense", Simplex{}},
}

// eachSolver runs fn once per solver implementation.
func eachSolver(t *testing.T, fn func(t *testing.T, solve func(*Problem) *Solution)) {
	for _, s := range solvers {
		s := s
		t.Run(s.name, func(t *testing.T) {
			fn(t, func(p *Problem) *Solution {
				t.Helper()
				sol, err := s.solver.Solve(context.Background(), p)
				require.NoError(t, err)
				return sol
			})
		})
	}
}

func TestSolveInequalities(t *testing.T) {
	eachSolver(t, func(t *testing.T, solve func(*Problem) *Solution) {
		p := NewProblem()
		x := p.AddVar("x", -1)
		y := p.AddVar("y", -1)
		p.AddConstraint("c1", LE, 4, T(x, 1), T(y, 2))
		p.AddConstraint("c2", LE, 6, T(x, 3), T(y, 1))

		sol := solve(p)
		require.Equal(t, StatusOptimal, sol.Status)
		assert.InDelta(t, 1.6, sol.Value(x), 1e-7)
		assert.InDelta(t, 1.2, sol.Value(y), 1e-7)
		assert.InDelta(t, -2.8, sol.Objective, 1e-7)
	})
}

func TestSolveEqualityAndGreaterEqual(t *testing.T) {
	eachSolver(t, func(t *testing.T, solve func(*Problem) *Solution) {
		p := NewProblem()
		x := p.AddVar("x", 1)
		y := p.AddVar("y", 1)
		p.AddConstraint("sum", GE, 2, T(x, 1), T(y, 1))
		p.AddConstraint("tie", EQ, 0, T(x, 1), T(y, -1))

		sol := solve(p)
		require.Equal(t, StatusOptimal, sol.Status)
		assert.InDelta(t, 1, sol.Value(x), 1e-7)
		assert.InDelta(t, 1, sol.Value(y), 1e-7)
		assert.InDelta(t, 2, sol.Objective, 1e-7)
	})
}

func TestSolveUpperBoundAndNegativeRHS(t *testing.T) {
	eachSolver(t, func(t *testing.T, solve func(*Problem) *Solution) {
		p := NewProblem()
		x := p.AddVar("x", -1)
		y := p.AddVar("y", 1)
		p.SetUpper(x, 3)
		p.AddConstraint("floor", LE, -2, T(y, -1))

		sol := solve(p)
		require.Equal(t, StatusOptimal, sol.Status)
		assert.InDelta(t, 3, sol.Value(x), 1e-7)
		assert.InDelta(t, 2, sol.Value(y), 1e-7)
		assert.InDelta(t, -1, sol.Objective, 1e-7)
	})
}

func TestSolveUnusedColumns(t *testing.T) {
	eachSolver(t, func(t *testing.T, solve func(*Problem) *Solution) {
		p := NewProblem()
		x := p.AddVar("x", 1)
		idle := p.AddVar("idle", 5)
		p.AddConstraint("x", GE, 1, T(x, 1))

		sol := solve(p)
		require.Equal(t, StatusOptimal, sol.Status)
		assert.Zero(t, sol.Value(idle))
		assert.InDelta(t, 1, sol.Objective, 1e-7)

		p.AddVar("free_lunch", -1)
		sol = solve(p)
		assert.Equal(t, StatusUnbounded, sol.Status)
		assert.Error(t, sol.Cause)
	})
}

func TestSolveInfeasible(t *testing.T) {
	eachSolver(t, func(t *testing.T, solve func(*Problem) *Solution) {
		p := NewProblem()
		x := p.AddVar("x", 1)
		p.AddConstraint("low", LE, 1, T(x, 1))
		p.AddConstraint("high", GE, 2, T(x, 1))

		sol := solve(p)
		assert.Equal(t, StatusInfeasible, sol.Status)

		p = NewProblem()
		p.AddVar("x", 1)
		p.AddConstraint("empty", EQ, 1)
		sol = solve(p)
		assert.Equal(t, StatusInfeasible, sol.Status)
	})
}

func TestSolveUnbounded(t *testing.T) {
	eachSolver(t, func(t *testing.T, solve func(*Problem) *Solution) {
		p := NewProblem()
		x := p.AddVar("x", -1)
		y := p.AddVar("y", 0)
		p.AddConstraint("gap", LE, 1, T(x, 1), T(y, -1))

		sol := solve(p)
		assert.Equal(t, StatusUnbounded, sol.Status)
	})
}

func TestCancelledContextTimesOut(t *testing.T) {
	p := NewProblem()
	x := p.AddVar("x", 1)
	p.AddConstraint("x", GE, 1, T(x, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, s := range []Solver{Simplex{Timeout: time.Second}, BoundedSimplex{Timeout: time.Second}} {
		sol, err := s.Solve(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, StatusTimedOut, sol.Status)
		assert.ErrorIs(t, sol.Cause, context.Canceled)
	}
}

func TestRejectsMalformedProblem(t *testing.T) {
	p := NewProblem()
	p.AddVar("x", 1)
	p.AddConstraint("bad", LE, 1, T(Var(7), 1))
	for _, s := range solvers {
		_, err := s.solver.Solve(context.Background(), p)
		assert.Error(t, err, s.name)

		_, err = s.solver.Solve(context.Background(), nil)
		assert.Error(t, err, s.name)
	}
}

func TestDuplicateTermsAreSummed(t *testing.T) {
	eachSolver(t, func(t *testing.T, solve func(*Problem) *Solution) {
		p := NewProblem()
		x := p.AddVar("x", -1)
		p.AddConstraint("c", LE, 4, T(x, 1), T(x, 1))

		sol := solve(p)
		require.Equal(t, StatusOptimal, sol.Status)
		assert.InDelta(t, 2, sol.Value(x), 1e-7)
		assert.Equal(t, LE.String(), "<=")
	})
}
