// Package lp is a small linear-programming modelling layer. A Problem holds
// non-negative variables, linear constraints and a linear objective that is
// always minimized; a Solver turns it into a Solution.
package lp

import (
	"context"
	"fmt"
	"math"
)

// Sense is the relation of a constraint row to its right-hand side.
type Sense int

const (
	LE Sense = iota
	EQ
	GE
)

func (s Sense) String() string {
	switch s {
	case LE:
		return "<="
	case EQ:
		return "="
	case GE:
		return ">="
	default:
		return fmt.Sprintf("Sense(%d)", int(s))
	}
}

// Var indexes a variable of one Problem.
type Var int

// Term is coefficient × variable.
type Term struct {
	Var  Var
	Coef float64
}

// T is shorthand for a Term.
func T(v Var, coef float64) Term { return Term{Var: v, Coef: coef} }

type constraint struct {
	name  string
	sense Sense
	rhs   float64
	terms []Term
}

// Problem is minimize cᵀx subject to the constraints, x >= 0 and x <= upper
// where an upper bound is set.
type Problem struct {
	names []string
	cost  []float64
	upper []float64
	rows  []constraint
}

func NewProblem() *Problem {
	return &Problem{}
}

// AddVar adds a variable x >= 0 with the given objective coefficient.
func (p *Problem) AddVar(name string, cost float64) Var {
	p.names = append(p.names, name)
	p.cost = append(p.cost, cost)
	p.upper = append(p.upper, math.Inf(1))
	return Var(len(p.names) - 1)
}

// SetUpper bounds a variable from above.
func (p *Problem) SetUpper(v Var, ub float64) {
	p.upper[v] = ub
}

// SetCost replaces the objective coefficient of v.
func (p *Problem) SetCost(v Var, cost float64) {
	p.cost[v] = cost
}

// AddConstraint adds Σ terms (sense) rhs. Terms naming the same variable are summed.
func (p *Problem) AddConstraint(name string, sense Sense, rhs float64, terms ...Term) {
	p.rows = append(p.rows, constraint{
		name:  name,
		sense: sense,
		rhs:   rhs,
		terms: append([]Term(nil), terms...),
	})
}

func (p *Problem) NumVars() int        { return len(p.names) }
func (p *Problem) NumConstraints() int { return len(p.rows) }

// Name returns the name a variable was added with.
func (p *Problem) Name(v Var) string { return p.names[v] }

// Cost returns the objective coefficient of v.
func (p *Problem) Cost(v Var) float64 { return p.cost[v] }

func (p *Problem) validate() error {
	if p == nil {
		return fmt.Errorf("problem is nil")
	}
	for i, ub := range p.upper {
		if math.IsNaN(ub) || ub < 0 {
			return fmt.Errorf("variable %s: invalid upper bound %v", p.names[i], ub)
		}
		if math.IsNaN(p.cost[i]) || math.IsInf(p.cost[i], 0) {
			return fmt.Errorf("variable %s: invalid cost %v", p.names[i], p.cost[i])
		}
	}
	for _, r := range p.rows {
		if math.IsNaN(r.rhs) || math.IsInf(r.rhs, 0) {
			return fmt.Errorf("constraint %s: invalid rhs %v", r.name, r.rhs)
		}
		for _, t := range r.terms {
			if t.Var < 0 || int(t.Var) >= len(p.names) {
				return fmt.Errorf("constraint %s: unknown variable %d", r.name, t.Var)
			}
			if math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
				return fmt.Errorf("constraint %s: invalid coefficient %v", r.name, t.Coef)
			}
		}
	}
	return nil
}

// Status is the outcome reported by a Solver.
type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusInfeasible Status = "infeasible"
	StatusUnbounded  Status = "unbounded"
	StatusTimedOut   Status = "timed_out"
	StatusError      Status = "error"
)

// Solution is a solver outcome. Values and Objective are meaningful only
// when Status is StatusOptimal; Cause explains any other status.
type Solution struct {
	Status     Status
	Objective  float64
	Values     []float64
	Cause      error
	Rows, Cols int
}

// Value returns the optimal value of v.
func (s *Solution) Value(v Var) float64 {
	return s.Values[v]
}

// Solver minimizes a Problem. An error is returned only for a malformed
// problem; every solver outcome is reported through Solution.Status.
type Solver interface {
	Solve(ctx context.Context, p *Problem) (*Solution, error)
}
