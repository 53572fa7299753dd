package lp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	golp "gonum.org/v1/gonum/optimize/convex/lp"
	"gonum.org/v1/gonum/mat"
)

// DefaultTolerance is the reduced-cost tolerance passed to the simplex.
const DefaultTolerance = 1e-9

// denseSlots bounds the gonum solves in flight. gonum cannot be interrupted,
// so a solve whose caller timed out keeps its slot until it returns.
var denseSlots = make(chan struct{}, runtime.GOMAXPROCS(0))

// InFlightDense reports how many gonum solves are running, including
// abandoned ones.
func InFlightDense() int { return len(denseSlots) }

// Simplex solves problems with gonum's dense simplex implementation. It
// suits small problems and cross-checks BoundedSimplex; the dense tableau
// grows with rows × columns. The zero value is ready to use.
type Simplex struct {
	// Tolerance defaults to DefaultTolerance.
	Tolerance float64
	// Timeout bounds wall-clock solve time; zero means no limit beyond ctx.
	Timeout time.Duration
}

// standardForm is minimize cᵀx s.t. Ax = b, x >= 0, b >= 0.
type standardForm struct {
	c    []float64
	a    *mat.Dense
	b    []float64
	cols []int // standard column -> problem variable, or -1 for slacks
}

type simplexResult struct {
	x   []float64
	err error
}

func (s Simplex) Solve(ctx context.Context, p *Problem) (*Solution, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	sf, status, cause := toStandardForm(p)
	if status != "" {
		return &Solution{Status: status, Cause: cause}, nil
	}
	rows, cols := 0, len(sf.c)
	if sf.a != nil {
		rows, _ = sf.a.Dims()
	}
	if rows == 0 {
		// Every column was eliminated; the origin is optimal.
		return &Solution{Status: StatusOptimal, Values: make([]float64, p.NumVars())}, nil
	}
	if rows > cols {
		return &Solution{
			Status: StatusError,
			Cause:  fmt.Errorf("standard form has %d rows but only %d columns", rows, cols),
			Rows:   rows,
			Cols:   cols,
		}, nil
	}

	tol := s.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	if err := ctx.Err(); err != nil {
		return &Solution{Status: StatusTimedOut, Cause: err, Rows: rows, Cols: cols}, nil
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	slots := denseSlots
	select {
	case slots <- struct{}{}:
	case <-ctx.Done():
		return &Solution{Status: StatusTimedOut, Cause: ctx.Err(), Rows: rows, Cols: cols}, nil
	}

	done := make(chan simplexResult, 1)
	go func() {
		defer func() { <-slots }()
		defer func() {
			if r := recover(); r != nil {
				done <- simplexResult{err: fmt.Errorf("simplex panic: %v", r)}
			}
		}()
		_, x, err := golp.Simplex(sf.c, sf.a, sf.b, tol, nil)
		done <- simplexResult{x: x, err: err}
	}()

	var res simplexResult
	select {
	case <-ctx.Done():
		// The solve goroutine keeps its slot until it finishes; its result is dropped.
		return &Solution{Status: StatusTimedOut, Cause: ctx.Err(), Rows: rows, Cols: cols}, nil
	case res = <-done:
	}

	sol := &Solution{Rows: rows, Cols: cols}
	switch {
	case res.err == nil:
		sol.Status = StatusOptimal
	case errors.Is(res.err, golp.ErrInfeasible):
		sol.Status, sol.Cause = StatusInfeasible, res.err
		return sol, nil
	case errors.Is(res.err, golp.ErrUnbounded):
		sol.Status, sol.Cause = StatusUnbounded, res.err
		return sol, nil
	default:
		sol.Status, sol.Cause = StatusError, res.err
		return sol, nil
	}

	sol.Values = make([]float64, p.NumVars())
	for j, v := range sf.cols {
		if v >= 0 {
			sol.Values[v] = res.x[j]
		}
	}
	for i, v := range sol.Values {
		sol.Objective += p.cost[i] * v
	}
	return sol, nil
}

// toStandardForm adds one slack column per inequality and per upper bound,
// flips rows with negative right-hand sides and drops empty rows and
// columns. A non-empty status means the outcome was decided without solving.
func toStandardForm(p *Problem) (*standardForm, Status, error) {
	type sparseRow struct {
		coefs map[int]float64
		rhs   float64
		name  string
	}
	n := p.NumVars()
	rows := make([]sparseRow, 0, len(p.rows)+n)
	slackCols := 0
	slackOf := make([]int, 0, len(p.rows)+n)
	slackSign := make([]float64, 0, len(p.rows)+n)

	addRow := func(name string, sense Sense, rhs float64, terms []Term) {
		coefs := make(map[int]float64, len(terms)+1)
		for _, t := range terms {
			coefs[int(t.Var)] += t.Coef
		}
		for k, c := range coefs {
			if c == 0 {
				delete(coefs, k)
			}
		}
		slack := -1
		sign := 0.0
		switch sense {
		case LE:
			slack, sign = slackCols, 1
			slackCols++
		case GE:
			slack, sign = slackCols, -1
			slackCols++
		}
		rows = append(rows, sparseRow{coefs: coefs, rhs: rhs, name: name})
		slackOf = append(slackOf, slack)
		slackSign = append(slackSign, sign)
	}
	for _, r := range p.rows {
		addRow(r.name, r.sense, r.rhs, r.terms)
	}
	for v, ub := range p.upper {
		if !math.IsInf(ub, 1) {
			addRow(p.names[v]+"_ub", LE, ub, []Term{T(Var(v), 1)})
		}
	}

	// Columns of problem variables that appear in no row.
	used := make([]bool, n)
	for _, r := range rows {
		for k := range r.coefs {
			used[k] = true
		}
	}
	cols := make([]int, 0, n+slackCols)
	colOf := make([]int, n)
	for v := 0; v < n; v++ {
		if !used[v] {
			colOf[v] = -1
			if p.cost[v] < 0 {
				return nil, StatusUnbounded, fmt.Errorf("variable %s has negative cost and no constraints", p.names[v])
			}
			continue
		}
		colOf[v] = len(cols)
		cols = append(cols, v)
	}
	firstSlack := len(cols)
	for i := 0; i < slackCols; i++ {
		cols = append(cols, -1)
	}

	kept := make([]int, 0, len(rows))
	for i, r := range rows {
		if len(r.coefs) == 0 && slackOf[i] < 0 {
			if math.Abs(r.rhs) > DefaultTolerance {
				return nil, StatusInfeasible, fmt.Errorf("constraint %s has no terms but rhs %v", r.name, r.rhs)
			}
			continue
		}
		kept = append(kept, i)
	}

	m, ncols := len(kept), len(cols)
	sf := &standardForm{c: make([]float64, ncols), b: make([]float64, m), cols: cols}
	for j, v := range cols {
		if v >= 0 {
			sf.c[j] = p.cost[v]
		}
	}
	if m == 0 {
		return sf, "", nil
	}
	sf.a = mat.NewDense(m, ncols, nil)
	for i, ri := range kept {
		r := rows[ri]
		flip := 1.0
		if r.rhs < 0 {
			flip = -1
		}
		for v, c := range r.coefs {
			sf.a.Set(i, colOf[v], flip*c)
		}
		if s := slackOf[ri]; s >= 0 {
			sf.a.Set(i, firstSlack+s, flip*slackSign[ri])
		}
		sf.b[i] = flip * r.rhs
	}

	// A slack column of a dropped row would be empty; the kept set never drops
	// a row that owns a slack, so every column here is non-zero.
	return sf, "", nil
}
