package dispatch

import (
	"context"
	"math"
	"testing"
	"time"

	"battery-sizing/internal/lp"
	"battery-sizing/internal/model"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

func testConfig() model.OptimizerConfig {
	c := model.DefaultConfig()
	c.DecisionStep = 1
	c.ChargeEfficiency = 1
	c.DischargeEfficiency = 1
	c.ChargePowerRatio = 1
	c.DischargePowerRatio = 1
	c.SOCMin = 0.2
	c.SOCMax = 1
	c.SellPriceRatio = 0
	c.BatteryCostPerKWh = 0.1
	c.MaxBatteryCapacity = 10
	return c
}

func solveBlock(t *testing.T, in BlockInput) (*Block, *lp.Solution) {
	t.Helper()
	p := lp.NewProblem()
	b, err := Build(p, in)
	require.NoError(t, err)
	sol, err := lp.BoundedSimplex{}.Solve(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, lp.StatusOptimal, sol.Status, "cause: %v", sol.Cause)
	return b, sol
}

func TestBuildSizesTwoStepArbitrage(t *testing.T) {
	cfg := testConfig()
	series := model.Uniform(start, 1, []float64{0, 1})
	prices := []float64{0.1, 1.0}

	b, sol := solveBlock(t, BlockInput{Series: series, Prices: prices, Config: cfg})
	d, capacity := b.Extract(sol)

	// 1 kWh must sit above a 20% floor: 0.8 × capacity = 1.
	assert.InDelta(t, 1.25, capacity, 1e-6)
	assert.InDelta(t, 1, d.Charge[0], 1e-6)
	assert.InDelta(t, 1, d.Discharge[1], 1e-6)
	assert.InDelta(t, 0, d.GridImport[1], 1e-6)
	assert.InDelta(t, 0.125+0.1, sol.Objective, 1e-6)
	assert.InDelta(t, 1.25, d.StoredEnergy[0], 1e-6)
	assert.InDelta(t, 0.25, d.StoredEnergy[1], 1e-6)
}

func TestFixedZeroCapacityMatchesBaseline(t *testing.T) {
	cfg := testConfig()
	cfg.SellPriceRatio = 0.6
	cfg.DemandChargeRate = 2
	cfg.BillingPeriod = model.BillingDaily
	series := model.Uniform(start.Add(20*time.Hour), 1, []float64{3, -2, 1.5, 0, -0.5, 4, 2, -1})
	prices := []float64{0.3, 0.3, 1.2, 1.2, 0.8, 0.8, 1.4, 1.4}

	b, sol := solveBlock(t, BlockInput{Series: series, Prices: prices, Config: cfg, FixedCapacity: lo.ToPtr(0.0)})
	d, capacity := b.Extract(sol)
	assert.Zero(t, capacity)
	assert.Equal(t, []string{"2024-07-01", "2024-07-02"}, b.Periods)

	base := Baseline(series, prices, cfg)
	assert.InDelta(t, base.OperatingCost(), sol.Objective, 1e-6)
	assert.InDelta(t, 2*3+2*4, base.DemandCost, 1e-9)
	for i := range series {
		assert.InDelta(t, math.Max(series[i].Value, 0), d.GridImport[i], 1e-6)
		assert.Zero(t, d.Charge[i])
		assert.Zero(t, d.StoredEnergy[i])
	}
}

func TestDispatchInvariants(t *testing.T) {
	cfg := testConfig()
	cfg.ChargeEfficiency = 0.9
	cfg.DischargeEfficiency = 0.92
	cfg.ChargePowerRatio = 0.5
	cfg.DischargePowerRatio = 0.4
	cfg.SOCMin = 0.1
	cfg.SOCMax = 0.9
	cfg.SelfDischargeRate = 0.01
	cfg.SellPriceRatio = 0.5
	cfg.DemandChargeRate = 0.3

	values := []float64{2, 1.5, -3, -4, -2, 0.5, 3, 4, 2.5, -1, 1, 3}
	prices := []float64{0.2, 0.2, 0.3, 0.3, 0.3, 0.9, 1.5, 1.5, 1.1, 0.4, 0.9, 1.3}
	series := model.Uniform(start, 1, values)

	b, sol := solveBlock(t, BlockInput{Series: series, Prices: prices, Config: cfg})
	d, capacity := b.Extract(sol)
	require.Greater(t, capacity, 0.0)

	const tol = 1e-6
	prev := cfg.SOCMin * capacity
	for i, v := range values {
		assert.InDelta(t, v, d.GridImport[i]-d.GridExport[i]+d.Discharge[i]-d.Charge[i], tol, "balance at %d", i)
		assert.LessOrEqual(t, d.Charge[i], cfg.ChargePowerRatio*capacity+tol)
		assert.LessOrEqual(t, d.Discharge[i], cfg.DischargePowerRatio*capacity+tol)
		assert.GreaterOrEqual(t, d.StoredEnergy[i], cfg.SOCMin*capacity-tol)
		assert.LessOrEqual(t, d.StoredEnergy[i], cfg.SOCMax*capacity+tol)

		want := (1-cfg.SelfDischargeRate)*prev + d.Charge[i]*cfg.ChargeEfficiency - d.Discharge[i]/cfg.DischargeEfficiency
		assert.InDelta(t, want, d.StoredEnergy[i], tol, "soc recursion at %d", i)
		prev = d.StoredEnergy[i]
	}

	settled := Settle(series, prices, d, cfg)
	assert.InDelta(t, capacity*b.CapitalCoef+settled.OperatingCost(), sol.Objective, 1e-5)
	assert.Less(t, sol.Objective, Baseline(series, prices, cfg).OperatingCost())
}

func TestAnnualizedCapitalFactor(t *testing.T) {
	cfg := testConfig()
	assert.Equal(t, 1.0, CapitalFactor(cfg, 0.5))

	cfg.AnnualizeCapital = true
	cfg.DiscountRate = 0
	cfg.Years = 10
	assert.InDelta(t, 0.05, CapitalFactor(cfg, 0.5), 1e-12)
}

func TestBuildRejectsBadInput(t *testing.T) {
	cfg := testConfig()
	p := lp.NewProblem()

	_, err := Build(p, BlockInput{Plot: "a", Config: cfg})
	assert.ErrorIs(t, err, model.ErrData)

	_, err = Build(p, BlockInput{Series: model.Uniform(start, 1, []float64{1, 2}), Prices: []float64{1}, Config: cfg})
	assert.Error(t, err)

	_, err = Build(p, BlockInput{Series: model.Uniform(start, 1, []float64{1}), Prices: []float64{1}, Config: cfg, FixedCapacity: lo.ToPtr(-1.0)})
	assert.ErrorIs(t, err, model.ErrConfiguration)
}
