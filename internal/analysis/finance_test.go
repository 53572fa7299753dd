package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaybackPeriod(t *testing.T) {
	years, ok := PaybackPeriod(10000, 2000)
	require.True(t, ok)
	assert.Equal(t, 5.0, years)

	_, ok = PaybackPeriod(10000, 0)
	assert.False(t, ok)
	_, ok = PaybackPeriod(10000, -5)
	assert.False(t, ok)
}

func TestNPV(t *testing.T) {
	assert.InDelta(t, 10000, NPV(10000, 2000, 10, 0), 1e-9)
	// Annuity factor at 10% over 10 years is 6.144567.
	assert.InDelta(t, -10000+2000*6.144567105704, NPV(10000, 2000, 10, 0.10), 1e-6)
}

func TestIRRScenario(t *testing.T) {
	irr, err := IRR(10000, 2000, 10)
	require.NoError(t, err)
	assert.InDelta(t, 15.098, irr, 0.01)
	assert.InDelta(t, 0, NPV(10000, 2000, 10, irr/100), 1e-4)
}

func TestIRRNoRoot(t *testing.T) {
	_, err := IRR(10000, 0, 10)
	assert.ErrorIs(t, err, ErrNoConvergence)
	_, err = IRR(10000, -100, 10)
	assert.ErrorIs(t, err, ErrNoConvergence)
	_, err = IRR(0, 100, 10)
	assert.ErrorIs(t, err, ErrNoConvergence)
	_, err = IRR(10000, 2000, 0)
	assert.ErrorIs(t, err, ErrNoConvergence)
}

func TestIRRWithoutInvestmentOrSavings(t *testing.T) {
	// NPV is zero at every rate, so there is no single root to report.
	irr, err := IRR(0, 0, 10)
	assert.ErrorIs(t, err, ErrNoConvergence)
	assert.Zero(t, irr)

	m := Compute(Inputs{Years: 10, DiscountRate: 0.1})
	assert.Nil(t, m.IRR)
	assert.Nil(t, m.PaybackPeriod)
	assert.Nil(t, m.OperationalCostSavingRatio)
	assert.Zero(t, m.NPV)
}

func TestCRF(t *testing.T) {
	assert.InDelta(t, 0.1, CRF(0, 10), 1e-12)
	assert.InDelta(t, 0.162745, CRF(0.10, 10), 1e-6)
	assert.Zero(t, CRF(0.1, 0))
	assert.False(t, math.IsNaN(CRF(0.13, 15)))
}

func TestComputeUndefinedMetrics(t *testing.T) {
	m := Compute(Inputs{ConstructionCost: 5000, AnnualSavings: 0, BaselineAnnualCost: 0, Years: 10, DiscountRate: 0.1})
	assert.Nil(t, m.PaybackPeriod)
	assert.Nil(t, m.IRR)
	assert.Nil(t, m.OperationalCostSavingRatio)
	assert.InDelta(t, -5000, m.NPV, 1e-9)

	m = Compute(Inputs{ConstructionCost: 10000, AnnualSavings: 2000, BaselineAnnualCost: 8000, Years: 10, DiscountRate: 0.1, SellEnergyProfit: 12})
	require.NotNil(t, m.PaybackPeriod)
	assert.Equal(t, 5.0, *m.PaybackPeriod)
	require.NotNil(t, m.IRR)
	assert.InDelta(t, 15.098, *m.IRR, 0.01)
	require.NotNil(t, m.OperationalCostSavingRatio)
	assert.Equal(t, 0.25, *m.OperationalCostSavingRatio)
	assert.Equal(t, 12.0, m.SellEnergyProfit)
}
