// Package analysis turns optimization results into economic metrics, KPIs
// and rankings.
package analysis

import (
	"errors"
	"math"
)

// ErrNoConvergence is returned when IRR has no root in the search interval.
var ErrNoConvergence = errors.New("irr: no root in search interval")

// IRR search interval and stopping rule.
const (
	irrLow       = -0.99
	irrHigh      = 10.0
	irrTolerance = 1e-10
	irrMaxIter   = 500
)

// PaybackPeriod is cost / annual savings. ok is false when savings <= 0.
func PaybackPeriod(constructionCost, annualSavings float64) (years float64, ok bool) {
	if annualSavings <= 0 {
		return 0, false
	}
	return constructionCost / annualSavings, true
}

// NPV discounts a constant annual saving over years against an upfront cost.
func NPV(constructionCost, annualSavings float64, years int, rate float64) float64 {
	npv := -constructionCost
	for t := 1; t <= years; t++ {
		npv += annualSavings / math.Pow(1+rate, float64(t))
	}
	return npv
}

// IRR returns the rate, in percent, at which NPV is zero. It bisects on
// [-99%, 1000%] and fails with ErrNoConvergence unless savings are positive
// and NPV changes sign strictly inside that interval.
func IRR(constructionCost, annualSavings float64, years int) (float64, error) {
	if annualSavings <= 0 || years <= 0 {
		return 0, ErrNoConvergence
	}
	lo, hi := irrLow, irrHigh
	fLo := NPV(constructionCost, annualSavings, years, lo)
	fHi := NPV(constructionCost, annualSavings, years, hi)
	if math.IsNaN(fLo) || math.IsNaN(fHi) || !(fLo > 0 && fHi < 0) {
		return 0, ErrNoConvergence
	}
	for i := 0; i < irrMaxIter; i++ {
		mid := (lo + hi) / 2
		fMid := NPV(constructionCost, annualSavings, years, mid)
		if fMid == 0 || (hi-lo)/2 < irrTolerance {
			return mid * 100, nil
		}
		if fMid*fLo > 0 {
			lo, fLo = mid, fMid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2 * 100, nil
}

// CRF is the capital recovery factor r(1+r)^n / ((1+r)^n - 1), or 1/n at r = 0.
func CRF(rate float64, years int) float64 {
	if years <= 0 {
		return 0
	}
	if rate == 0 {
		return 1 / float64(years)
	}
	g := math.Pow(1+rate, float64(years))
	return rate * g / (g - 1)
}
