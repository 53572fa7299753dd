package lp

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"
)

const (
	pivotTolerance    = 1e-9
	phaseOneTolerance = 1e-7
	dropTolerance     = 1e-12
	// blandAfter degenerate pivots in a row switches pricing to Bland's rule
	// until the objective moves again.
	blandAfter = 50
	// ctxCheckEvery pivots the context is polled.
	ctxCheckEvery = 64
)

// BoundedSimplex is a primal simplex over a sparse tableau. Upper bounds
// stay bounds instead of becoming rows, rows start from a slack or singleton
// crash basis, and the context is polled between pivots so a timeout stops
// the solve itself. It is the default Solver.
type BoundedSimplex struct {
	// Tolerance is the reduced-cost and feasibility tolerance; it defaults
	// to DefaultTolerance.
	Tolerance float64
	// Timeout bounds wall-clock solve time; zero means no limit beyond ctx.
	Timeout time.Duration
	// MaxIterations defaults to 50 × (rows + columns).
	MaxIterations int
}

type colKind uint8

const (
	colStructural colKind = iota
	colSlack
	colArtificial
)

// svec is a sparse row sorted by column.
type svec struct {
	idx []int
	val []float64
}

func (v svec) at(k int) float64 {
	i := sort.SearchInts(v.idx, k)
	if i < len(v.idx) && v.idx[i] == k {
		return v.val[i]
	}
	return 0
}

// sub returns v - f·w without column skip and without entries below dropTolerance.
func (v svec) sub(f float64, w svec, skip int) svec {
	out := svec{
		idx: make([]int, 0, len(v.idx)+len(w.idx)),
		val: make([]float64, 0, len(v.idx)+len(w.idx)),
	}
	push := func(k int, x float64) {
		if k != skip && math.Abs(x) > dropTolerance {
			out.idx = append(out.idx, k)
			out.val = append(out.val, x)
		}
	}
	i, j := 0, 0
	for i < len(v.idx) || j < len(w.idx) {
		switch {
		case j == len(w.idx) || (i < len(v.idx) && v.idx[i] < w.idx[j]):
			push(v.idx[i], v.val[i])
			i++
		case i == len(v.idx) || w.idx[j] < v.idx[i]:
			push(w.idx[j], -f*w.val[j])
			j++
		default:
			push(v.idx[i], v.val[i]-f*w.val[j])
			i++
			j++
		}
	}
	return out
}

type tableau struct {
	rows  []svec
	basis []int     // row -> basic column
	x     []float64 // row -> value of its basic column

	upper   []float64
	cost    []float64
	kind    []colKind
	isBasic []bool
	atUpper []bool
	d       []float64 // reduced costs

	artificials int
	structural  int

	tol     float64
	iter    int
	maxIter int
}

type pendingRow struct {
	name      string
	coefs     map[int]float64
	rhs       float64
	slack     int
	slackCoef float64
}

func (s BoundedSimplex) Solve(ctx context.Context, p *Problem) (*Solution, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	tol := s.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	t, status, cause := newTableau(p, tol)
	if status != "" {
		return &Solution{Status: status, Cause: cause}, nil
	}
	sol := &Solution{Rows: len(t.rows), Cols: len(t.cost)}
	if err := ctx.Err(); err != nil {
		sol.Status, sol.Cause = StatusTimedOut, err
		return sol, nil
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	t.maxIter = s.MaxIterations
	if t.maxIter <= 0 {
		t.maxIter = 50 * (len(t.rows) + len(t.cost))
	}

	if t.artificials > 0 {
		phase1 := make([]float64, len(t.cost))
		for j, k := range t.kind {
			if k == colArtificial {
				phase1[j] = 1
			}
		}
		if st, err := t.optimize(ctx, phase1); st != StatusOptimal {
			sol.Status, sol.Cause = st, err
			return sol, nil
		}
		infeasibility := 0.0
		for i, j := range t.basis {
			if t.kind[j] == colArtificial {
				infeasibility += t.x[i]
			}
		}
		if infeasibility > phaseOneTolerance {
			sol.Status = StatusInfeasible
			sol.Cause = fmt.Errorf("no feasible point: residual infeasibility %g", infeasibility)
			return sol, nil
		}
		t.dropArtificials()
	}
	if st, err := t.optimize(ctx, t.cost); st != StatusOptimal {
		sol.Status, sol.Cause = st, err
		return sol, nil
	}

	values := t.values()
	sol.Values = values[:t.structural]
	if err := checkFeasible(p, sol.Values); err != nil {
		sol.Status, sol.Cause, sol.Values = StatusError, err, nil
		return sol, nil
	}
	sol.Status = StatusOptimal
	for i, v := range sol.Values {
		sol.Objective += p.cost[i] * v
	}
	return sol, nil
}

// newTableau builds the slack/artificial form of p and its starting basis.
// A non-empty status means the outcome was decided without pivoting.
func newTableau(p *Problem, tol float64) (*tableau, Status, error) {
	n := p.NumVars()
	t := &tableau{
		upper:      append([]float64(nil), p.upper...),
		cost:       append([]float64(nil), p.cost...),
		kind:       make([]colKind, n),
		structural: n,
		tol:        tol,
	}
	addCol := func(kind colKind) int {
		t.upper = append(t.upper, math.Inf(1))
		t.cost = append(t.cost, 0)
		t.kind = append(t.kind, kind)
		return len(t.cost) - 1
	}

	pending := make([]pendingRow, 0, len(p.rows))
	for _, r := range p.rows {
		pr := pendingRow{name: r.name, coefs: make(map[int]float64, len(r.terms)+1), rhs: r.rhs, slack: -1}
		for _, term := range r.terms {
			pr.coefs[int(term.Var)] += term.Coef
		}
		for k, c := range pr.coefs {
			if c == 0 {
				delete(pr.coefs, k)
			}
		}
		switch r.sense {
		case LE:
			pr.slack, pr.slackCoef = addCol(colSlack), 1
		case GE:
			pr.slack, pr.slackCoef = addCol(colSlack), -1
		}
		if pr.slack >= 0 {
			pr.coefs[pr.slack] = pr.slackCoef
		}
		if len(pr.coefs) == 0 {
			if math.Abs(r.rhs) > tol {
				return nil, StatusInfeasible, fmt.Errorf("constraint %s has no terms but rhs %v", r.name, r.rhs)
			}
			continue
		}
		pending = append(pending, pr)
	}

	// Structural columns that appear in exactly one row can start basic there.
	count := make([]int, n)
	for _, pr := range pending {
		for k := range pr.coefs {
			if k < n {
				count[k]++
			}
		}
	}

	t.rows = make([]svec, len(pending))
	t.basis = make([]int, len(pending))
	t.x = make([]float64, len(pending))
	taken := make([]bool, n)
	for i, pr := range pending {
		keys := make([]int, 0, len(pr.coefs)+1)
		for k := range pr.coefs {
			keys = append(keys, k)
		}
		sort.Ints(keys)

		pick := -1
		if pr.slack >= 0 && pr.rhs/pr.slackCoef >= 0 {
			pick = pr.slack
		} else {
			for _, k := range keys {
				if k >= n || count[k] != 1 || taken[k] {
					continue
				}
				c := pr.coefs[k]
				if v := pr.rhs / c; v >= 0 && v <= t.upper[k] {
					if pick < 0 || math.Abs(c) > math.Abs(pr.coefs[pick]) {
						pick = k
					}
				}
			}
		}
		if pick < 0 {
			pick = addCol(colArtificial)
			t.artificials++
			pr.coefs[pick] = 1
			if pr.rhs < 0 {
				pr.coefs[pick] = -1
			}
			keys = append(keys, pick)
		} else if pick < n {
			taken[pick] = true
		}

		c := pr.coefs[pick]
		row := svec{idx: keys, val: make([]float64, len(keys))}
		for a, k := range keys {
			row.val[a] = pr.coefs[k] / c
		}
		t.rows[i] = row
		t.basis[i] = pick
		t.x[i] = pr.rhs / c
	}

	t.isBasic = make([]bool, len(t.cost))
	t.atUpper = make([]bool, len(t.cost))
	for _, j := range t.basis {
		t.isBasic[j] = true
	}
	return t, "", nil
}

// optimize runs primal simplex pivots for the given column costs from the
// current basis.
func (t *tableau) optimize(ctx context.Context, cost []float64) (Status, error) {
	t.d = append(t.d[:0], cost...)
	for i, j := range t.basis {
		if cb := cost[j]; cb != 0 {
			row := t.rows[i]
			for a, k := range row.idx {
				t.d[k] -= cb * row.val[a]
			}
		}
	}
	for _, j := range t.basis {
		t.d[j] = 0
	}

	type entry struct {
		row  int
		coef float64
	}
	var col []entry
	degenerate, bland := 0, false
	for {
		t.iter++
		if t.iter > t.maxIter {
			return StatusError, fmt.Errorf("iteration limit %d reached", t.maxIter)
		}
		if t.iter%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return StatusTimedOut, err
			}
		}

		q := t.price(bland)
		if q < 0 {
			return StatusOptimal, nil
		}
		dir := 1.0
		if t.atUpper[q] {
			dir = -1
		}

		// Ratio test. theta starts at the entering column's own bound range.
		theta, r, rBest, leaveUpper := t.upper[q], -1, 0.0, false
		col = col[:0]
		for i, row := range t.rows {
			a := row.at(q)
			if a == 0 {
				continue
			}
			col = append(col, entry{i, a})
			if math.Abs(a) < pivotTolerance {
				continue
			}
			delta := -dir * a
			var lim float64
			var toUpper bool
			switch {
			case delta < 0:
				lim = math.Max(0, t.x[i]) / -delta
			case !math.IsInf(t.upper[t.basis[i]], 1):
				lim = math.Max(0, t.upper[t.basis[i]]-t.x[i]) / delta
				toUpper = true
			default:
				continue
			}
			take := false
			switch {
			case r < 0:
				take = lim < theta-dropTolerance
			case lim < theta-dropTolerance:
				take = true
			case lim <= theta+dropTolerance:
				if bland {
					take = t.basis[i] < t.basis[r]
				} else {
					take = math.Abs(a) > rBest
				}
			}
			if take {
				theta, r, rBest, leaveUpper = lim, i, math.Abs(a), toUpper
			}
		}
		if r < 0 && math.IsInf(theta, 1) {
			return StatusUnbounded, fmt.Errorf("column %d can grow without bound", q)
		}

		if theta <= dropTolerance {
			degenerate++
			if degenerate > blandAfter {
				bland = true
			}
		} else {
			degenerate, bland = 0, false
		}

		for _, e := range col {
			t.x[e.row] -= dir * e.coef * theta
			if math.Abs(t.x[e.row]) < t.tol {
				t.x[e.row] = 0
			}
		}
		if r < 0 {
			t.atUpper[q] = !t.atUpper[q]
			continue
		}

		entering := dir * theta
		if t.atUpper[q] {
			entering += t.upper[q]
		}
		leaving := t.basis[r]
		t.isBasic[leaving] = false
		t.atUpper[leaving] = leaveUpper

		pivot := t.rows[r]
		a := pivot.at(q)
		scaled := svec{idx: pivot.idx, val: make([]float64, len(pivot.val))}
		for k, v := range pivot.val {
			scaled.val[k] = v / a
			if pivot.idx[k] == q {
				scaled.val[k] = 1
			}
		}
		t.rows[r] = scaled
		for _, e := range col {
			if e.row != r {
				t.rows[e.row] = t.rows[e.row].sub(e.coef, scaled, q)
			}
		}
		if dq := t.d[q]; dq != 0 {
			for k, j := range scaled.idx {
				t.d[j] -= dq * scaled.val[k]
			}
		}
		t.d[q] = 0

		t.basis[r] = q
		t.isBasic[q] = true
		t.atUpper[q] = false
		t.x[r] = entering
	}
}

// price picks the entering column: the largest improving reduced cost, or
// the lowest improving index under Bland's rule. It returns -1 at optimality.
func (t *tableau) price(bland bool) int {
	q, best := -1, 0.0
	for j, dj := range t.d {
		if t.isBasic[j] || t.upper[j] == 0 {
			continue
		}
		if t.atUpper[j] {
			dj = -dj
		}
		if dj >= -t.tol {
			continue
		}
		if bland {
			return j
		}
		if -dj > best {
			q, best = j, -dj
		}
	}
	return q
}

// dropArtificials pivots zero-valued artificials out of the basis where a
// real column can replace them and fixes every artificial at zero.
func (t *tableau) dropArtificials() {
	for r, j := range t.basis {
		if t.kind[j] != colArtificial {
			continue
		}
		row := t.rows[r]
		q, big := -1, pivotTolerance*1e3
		for k, c := range row.idx {
			if t.kind[c] != colArtificial && !t.isBasic[c] && math.Abs(row.val[k]) > big {
				q, big = c, math.Abs(row.val[k])
			}
		}
		if q < 0 {
			// Redundant row: the artificial stays basic at zero.
			continue
		}
		a := row.at(q)
		scaled := svec{idx: row.idx, val: make([]float64, len(row.val))}
		for k, v := range row.val {
			scaled.val[k] = v / a
			if row.idx[k] == q {
				scaled.val[k] = 1
			}
		}
		t.rows[r] = scaled
		for i := range t.rows {
			if i == r {
				continue
			}
			if c := t.rows[i].at(q); c != 0 {
				t.rows[i] = t.rows[i].sub(c, scaled, q)
			}
		}
		value := 0.0
		if t.atUpper[q] {
			value = t.upper[q]
		}
		t.isBasic[j] = false
		t.atUpper[j] = false
		t.basis[r] = q
		t.isBasic[q] = true
		t.atUpper[q] = false
		t.x[r] = value
	}
	for j, k := range t.kind {
		if k == colArtificial {
			t.upper[j] = 0
		}
	}
}

func (t *tableau) values() []float64 {
	x := make([]float64, len(t.cost))
	for j := range x {
		if t.atUpper[j] {
			x[j] = t.upper[j]
		}
	}
	for i, j := range t.basis {
		x[j] = t.x[i]
	}
	return x
}

// checkFeasible re-evaluates every row and bound of p at x.
func checkFeasible(p *Problem, x []float64) error {
	const slack = 1e-6
	for v, ub := range p.upper {
		if x[v] < -slack || x[v] > ub+slack*(1+math.Abs(ub)) {
			return fmt.Errorf("variable %s = %g is outside [0, %g]", p.names[v], x[v], ub)
		}
	}
	for _, r := range p.rows {
		lhs := 0.0
		for _, term := range r.terms {
			lhs += term.Coef * x[term.Var]
		}
		tol := slack * (1 + math.Abs(r.rhs))
		violated := false
		switch r.sense {
		case LE:
			violated = lhs > r.rhs+tol
		case GE:
			violated = lhs < r.rhs-tol
		default:
			violated = math.Abs(lhs-r.rhs) > tol
		}
		if violated {
			return fmt.Errorf("constraint %s: %g %s %g does not hold at the solution", r.name, lhs, r.sense, r.rhs)
		}
	}
	return nil
}
