package lp

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storageWeek is a sized storage problem with the same row structure the
// dispatch builder writes: balance, power limits, SOC recursion, SOC ceiling
// and one peak per half of the horizon.
func storageWeek(steps int) *Problem {
	p := NewProblem()
	capacity := p.AddVar("capacity", 6)
	p.SetUpper(capacity, 200)
	peaks := []Var{p.AddVar("peak_a", 15), p.AddVar("peak_b", 15)}

	var prev Var = -1
	for t := 0; t < steps; t++ {
		h := float64(t % 24)
		net := 1 + 0.8*math.Sin(h/24*2*math.Pi) + 0.1*float64(t%7)
		if h >= 7 && h <= 17 {
			net -= 4 * math.Sin((h-6)/12*math.Pi)
		}
		price := 0.12
		if h >= 16 && h < 21 {
			price = 0.3
		}
		imp := p.AddVar(fmt.Sprintf("import[%d]", t), price)
		exp := p.AddVar(fmt.Sprintf("export[%d]", t), -0.5*price)
		ch := p.AddVar(fmt.Sprintf("charge[%d]", t), 0)
		dis := p.AddVar(fmt.Sprintf("discharge[%d]", t), 0)
		room := p.AddVar(fmt.Sprintf("headroom[%d]", t), 0)

		p.AddConstraint("balance", EQ, net, T(imp, 1), T(exp, -1), T(dis, 1), T(ch, -1))
		p.AddConstraint("charge_limit", LE, 0, T(ch, 1), T(capacity, -0.5))
		p.AddConstraint("discharge_limit", LE, 0, T(dis, 1), T(capacity, -0.5))
		p.AddConstraint("soc_max", LE, 0, T(room, 1), T(capacity, -0.8))
		soc := []Term{T(room, 1), T(ch, -0.95), T(dis, 1/0.95)}
		if prev >= 0 {
			soc = append(soc, T(prev, -1))
		}
		p.AddConstraint("soc", EQ, 0, soc...)
		p.AddConstraint("peak", LE, 0, T(imp, 1), T(peaks[2*t/steps], -1))
		prev = room
	}
	return p
}

func TestBoundedSimplexSolvesAWeekOfSteps(t *testing.T) {
	p := storageWeek(168)
	sol, err := BoundedSimplex{Timeout: 30 * time.Second}.Solve(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, sol.Status, "%v", sol.Cause)
	assert.Equal(t, 168*6, sol.Rows)
	assert.Greater(t, sol.Value(0), 0.0, "a price spread this wide pays for some storage")
	assert.Less(t, sol.Value(0), 200.0)
}

func TestBoundedSimplexStopsAtDeadline(t *testing.T) {
	p := storageWeek(168)
	sol, err := BoundedSimplex{Timeout: time.Nanosecond}.Solve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, StatusTimedOut, sol.Status)
	assert.ErrorIs(t, sol.Cause, context.DeadlineExceeded)
}

func TestBoundedSimplexIterationLimit(t *testing.T) {
	p := storageWeek(24)
	sol, err := BoundedSimplex{MaxIterations: 3}.Solve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, StatusError, sol.Status)
	assert.ErrorContains(t, sol.Cause, "iteration limit")
}

func TestBoundedSimplexFixedCapacityUsesBounds(t *testing.T) {
	// Power and energy limits as variable bounds, no ceiling rows.
	p := NewProblem()
	var prev Var = -1
	evening := map[Var]bool{}
	for step := 0; step < 48; step++ {
		price := 0.1
		if h := step % 24; h >= 17 && h < 20 {
			price = 0.4
		}
		imp := p.AddVar("import", price)
		ch := p.AddVar("charge", 0)
		dis := p.AddVar("discharge", 0)
		room := p.AddVar("headroom", 0)
		p.SetUpper(ch, 5)
		p.SetUpper(dis, 5)
		p.SetUpper(room, 8)
		p.AddConstraint("balance", EQ, 2, T(imp, 1), T(dis, 1), T(ch, -1))
		soc := []Term{T(room, 1), T(ch, -1), T(dis, 1)}
		if prev >= 0 {
			soc = append(soc, T(prev, -1))
		}
		p.AddConstraint("soc", EQ, 0, soc...)
		prev = room
		if price > 0.1 {
			evening[imp] = true
		}
	}

	sol, err := BoundedSimplex{}.Solve(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, sol.Status)
	// Lossless storage moves the whole 6 kWh evening load to cheap hours.
	assert.InDelta(t, 48*2*0.1, sol.Objective, 1e-6)
	require.Len(t, evening, 6)
	for imp := range evening {
		assert.InDelta(t, 0, sol.Value(imp), 1e-7)
	}
}

// randomFeasible builds a bounded LP that is feasible at a known point.
func randomFeasible(rng *rand.Rand) *Problem {
	p := NewProblem()
	n := 3 + rng.Intn(5)
	point := make([]float64, n)
	vars := make([]Var, n)
	for j := range vars {
		vars[j] = p.AddVar(fmt.Sprintf("x%d", j), rng.Float64()*2-1)
		ub := 1 + float64(rng.Intn(9))
		p.SetUpper(vars[j], ub)
		point[j] = rng.Float64() * ub
	}
	rows := 1 + rng.Intn(4)
	for i := 0; i < rows; i++ {
		terms := make([]Term, 0, n)
		lhs := 0.0
		for j, v := range vars {
			if rng.Intn(3) == 0 {
				continue
			}
			c := math.Round((rng.Float64()*4-2)*4) / 4
			terms = append(terms, T(v, c))
			lhs += c * point[j]
		}
		switch i % 3 {
		case 0:
			p.AddConstraint(fmt.Sprintf("le%d", i), LE, lhs+rng.Float64(), terms...)
		case 1:
			p.AddConstraint(fmt.Sprintf("eq%d", i), EQ, lhs, terms...)
		default:
			p.AddConstraint(fmt.Sprintf("ge%d", i), GE, lhs-rng.Float64(), terms...)
		}
	}
	return p
}

func TestBoundedSimplexAgreesWithDense(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	compared := 0
	for i := 0; i < 200; i++ {
		p := randomFeasible(rng)
		got, err := BoundedSimplex{}.Solve(context.Background(), p)
		require.NoError(t, err)
		require.Equal(t, StatusOptimal, got.Status, "problem %d: %v", i, got.Cause)

		want, err := Simplex{}.Solve(context.Background(), p)
		require.NoError(t, err)
		if want.Status != StatusOptimal {
			continue
		}
		compared++
		assert.InDelta(t, want.Objective, got.Objective, 1e-6, "problem %d", i)
	}
	assert.Greater(t, compared, 100)
}

func TestDenseSolvesWaitForASlot(t *testing.T) {
	saved := denseSlots
	denseSlots = make(chan struct{}, 1)
	t.Cleanup(func() { denseSlots = saved })

	p := NewProblem()
	x := p.AddVar("x", 1)
	p.AddConstraint("x", GE, 1, T(x, 1))

	// An abandoned solve still holds the only slot.
	denseSlots <- struct{}{}
	sol, err := Simplex{Timeout: 20 * time.Millisecond}.Solve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, StatusTimedOut, sol.Status)
	assert.ErrorIs(t, sol.Cause, context.DeadlineExceeded)
	assert.Equal(t, 1, InFlightDense())

	<-denseSlots
	sol, err = Simplex{Timeout: time.Second}.Solve(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 1, sol.Value(x), 1e-9)
	assert.Eventually(t, func() bool { return InFlightDense() == 0 }, time.Second, time.Millisecond)
}
