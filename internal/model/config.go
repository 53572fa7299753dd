package model

import (
	"fmt"
	"math"
)

// PricingMode selects how the tariff classifier prices a timestamp.
type PricingMode string

const (
	PricingSeasonal PricingMode = "seasonal"
	PricingHourly   PricingMode = "hourly"
)

// BillingPeriod is the window over which a demand charge peak is measured.
type BillingPeriod string

const (
	BillingMonthly BillingPeriod = "monthly"
	BillingDaily   BillingPeriod = "daily"
)

// TierPrices holds the per-kWh price of each seasonal tier.
type TierPrices struct {
	Peak   float64
	High   float64
	Flat   float64
	Valley float64
}

// Pricing describes the tariff. Exactly one of Tiers (seasonal mode) or
// Hourly (hourly mode) is used, as selected by Mode.
type Pricing struct {
	Mode   PricingMode
	Tiers  TierPrices
	Hourly map[int]float64
}

// OptimizerConfig holds every technical and economic parameter of a run.
// Units:
//   - BatteryCostPerKWh: currency per kWh of installed capacity
//   - ChargePowerRatio / DischargePowerRatio: kW per kWh of capacity
//   - SOCMin / SOCMax: fraction 0..1
//   - SelfDischargeRate: fraction of stored energy lost per step
//   - DecisionStep: hours per step
//   - DemandChargeRate: currency per kW of peak import per billing period
//   - MaxBatteryCapacity: kWh
//
// Configs are passed by value; nothing in the optimizer mutates one.
type OptimizerConfig struct {
	BatteryCostPerKWh   float64
	ChargeEfficiency    float64
	DischargeEfficiency float64
	ChargePowerRatio    float64
	DischargePowerRatio float64
	SOCMin              float64
	SOCMax              float64
	SelfDischargeRate   float64

	Years        int
	DiscountRate float64
	DecisionStep float64

	DemandChargeRate float64
	BillingPeriod    BillingPeriod

	SellPriceRatio float64
	Pricing        Pricing

	MaxBatteryCapacity float64

	// AnnualizeCapital charges capital through the capital recovery factor,
	// pro-rated to the span of the series, instead of as a lump sum.
	AnnualizeCapital bool
}

// DefaultConfig returns the stock tariff and LFP battery parameters.
func DefaultConfig() OptimizerConfig {
	return OptimizerConfig{
		BatteryCostPerKWh:   1300,
		ChargeEfficiency:    0.913,
		DischargeEfficiency: 0.913,
		ChargePowerRatio:    0.5,
		DischargePowerRatio: 0.5,
		SOCMin:              0.2,
		SOCMax:              0.9,
		Years:               15,
		DiscountRate:        0.13,
		DecisionStep:        0.25,
		BillingPeriod:       BillingMonthly,
		SellPriceRatio:      0.6,
		Pricing: Pricing{
			Mode: PricingSeasonal,
			Tiers: TierPrices{
				Peak:   1.44097,
				High:   1.20081,
				Flat:   0.76785,
				Valley: 0.33489,
			},
		},
		MaxBatteryCapacity: 1000,
	}
}

// NewOptimizerConfig validates c and returns it with a private copy of the
// hourly price table.
func NewOptimizerConfig(c OptimizerConfig) (OptimizerConfig, error) {
	if err := c.Validate(); err != nil {
		return OptimizerConfig{}, err
	}
	if c.Pricing.Hourly != nil {
		hourly := make(map[int]float64, len(c.Pricing.Hourly))
		for h, p := range c.Pricing.Hourly {
			hourly[h] = p
		}
		c.Pricing.Hourly = hourly
	}
	return c, nil
}

func invalid(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func nonNegative(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return invalid(field, "must be a finite value >= 0, got %v", v)
	}
	return nil
}

// Validate checks every invariant of the config.
func (c OptimizerConfig) Validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"battery_cost_per_kwh", c.BatteryCostPerKWh},
		{"charge_power_ratio", c.ChargePowerRatio},
		{"discharge_power_ratio", c.DischargePowerRatio},
		{"discount_rate", c.DiscountRate},
		{"demand_charge_rate", c.DemandChargeRate},
		{"sell_price_ratio", c.SellPriceRatio},
		{"max_battery_capacity", c.MaxBatteryCapacity},
		{"self_discharge_rate", c.SelfDischargeRate},
	} {
		if err := nonNegative(f.name, f.value); err != nil {
			return err
		}
	}
	if c.ChargeEfficiency <= 0 || c.ChargeEfficiency > 1 {
		return invalid("charge_efficiency", "must be in (0, 1], got %v", c.ChargeEfficiency)
	}
	if c.DischargeEfficiency <= 0 || c.DischargeEfficiency > 1 {
		return invalid("discharge_efficiency", "must be in (0, 1], got %v", c.DischargeEfficiency)
	}
	if c.SOCMin < 0 || c.SOCMax > 1 || c.SOCMin >= c.SOCMax {
		return invalid("soc_min/soc_max", "must satisfy 0 <= soc_min < soc_max <= 1, got %v/%v", c.SOCMin, c.SOCMax)
	}
	if c.SelfDischargeRate >= 1 {
		return invalid("self_discharge_rate", "must be < 1, got %v", c.SelfDischargeRate)
	}
	if c.SellPriceRatio > 1 {
		// Above 1 buying and re-selling in the same step is profitable and the LP is unbounded.
		return invalid("sell_price_ratio", "must be <= 1, got %v", c.SellPriceRatio)
	}
	if c.Years <= 0 {
		return invalid("years", "must be > 0, got %d", c.Years)
	}
	if !(c.DecisionStep > 0) || math.IsInf(c.DecisionStep, 0) {
		return invalid("decision_step", "must be > 0 hours, got %v", c.DecisionStep)
	}
	switch c.BillingPeriod {
	case BillingMonthly, BillingDaily:
	default:
		return invalid("billing_period", "must be %q or %q, got %q", BillingMonthly, BillingDaily, c.BillingPeriod)
	}
	return c.Pricing.Validate()
}

// Validate checks the tariff for the selected mode. An hourly table must
// price every hour 0-23.
func (p Pricing) Validate() error {
	switch p.Mode {
	case PricingSeasonal:
		for _, f := range []struct {
			name  string
			value float64
		}{
			{"pricing.tiers.peak", p.Tiers.Peak},
			{"pricing.tiers.high", p.Tiers.High},
			{"pricing.tiers.flat", p.Tiers.Flat},
			{"pricing.tiers.valley", p.Tiers.Valley},
		} {
			if err := nonNegative(f.name, f.value); err != nil {
				return err
			}
		}
	case PricingHourly:
		for h := range p.Hourly {
			if h < 0 || h > 23 {
				return invalid("pricing.hourly", "hour %d out of range 0-23", h)
			}
		}
		for h := 0; h < 24; h++ {
			price, ok := p.Hourly[h]
			if !ok {
				return invalid("pricing.hourly", "missing price for hour %d", h)
			}
			if err := nonNegative(fmt.Sprintf("pricing.hourly[%d]", h), price); err != nil {
				return err
			}
		}
	default:
		return invalid("pricing.mode", "must be %q or %q, got %q", PricingSeasonal, PricingHourly, p.Mode)
	}
	return nil
}

// Params flattens the numeric parameters, for error context and logging.
func (c OptimizerConfig) Params() map[string]float64 {
	return map[string]float64{
		"battery_cost_per_kwh":  c.BatteryCostPerKWh,
		"charge_efficiency":     c.ChargeEfficiency,
		"discharge_efficiency":  c.DischargeEfficiency,
		"charge_power_ratio":    c.ChargePowerRatio,
		"discharge_power_ratio": c.DischargePowerRatio,
		"soc_min":               c.SOCMin,
		"soc_max":               c.SOCMax,
		"self_discharge_rate":   c.SelfDischargeRate,
		"years":                 float64(c.Years),
		"discount_rate":         c.DiscountRate,
		"decision_step":         c.DecisionStep,
		"demand_charge_rate":    c.DemandChargeRate,
		"sell_price_ratio":      c.SellPriceRatio,
		"max_battery_capacity":  c.MaxBatteryCapacity,
	}
}
