package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"battery-sizing/internal/model"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	// Optional: load battery parameters from a separate YAML (e.g. examples/batteries/*.yaml).
	// Keys set under battery override the file.
	BatteryFile string           `yaml:"battery_file" json:"battery_file"`
	Battery     BatteryConfig    `yaml:"battery" json:"battery"`
	Economics   EconomicsConfig  `yaml:"economics" json:"economics"`
	Tariff      TariffConfig     `yaml:"tariff" json:"tariff"`
	Simulation  SimulationConfig `yaml:"simulation" json:"simulation"`
	Strategy    StrategyConfig   `yaml:"strategy" json:"strategy"`
}

type BatteryConfig struct {
	Name                string  `yaml:"name" json:"name"`
	CostPerKWh          float64 `yaml:"cost_per_kwh" json:"cost_per_kwh"`
	ChargeEfficiency    float64 `yaml:"charge_efficiency" json:"charge_efficiency"`
	DischargeEfficiency float64 `yaml:"discharge_efficiency" json:"discharge_efficiency"`
	ChargePowerRatio    float64 `yaml:"charge_power_ratio" json:"charge_power_ratio"`
	DischargePowerRatio float64 `yaml:"discharge_power_ratio" json:"discharge_power_ratio"`
	MinSOC              float64 `yaml:"min_soc" json:"min_soc"`
	MaxSOC              float64 `yaml:"max_soc" json:"max_soc"`
	SelfDischargeRate   float64 `yaml:"self_discharge_rate" json:"self_discharge_rate"`
	MaxCapacityKWh      float64 `yaml:"max_capacity_kwh" json:"max_capacity_kwh"`
}

type EconomicsConfig struct {
	Years            int     `yaml:"years" json:"years"`
	DiscountRate     float64 `yaml:"discount_rate" json:"discount_rate"`
	AnnualizeCapital bool    `yaml:"annualize_capital" json:"annualize_capital"`
}

type TariffConfig struct {
	Mode             string          `yaml:"mode" json:"mode"`
	Tiers            TierConfig      `yaml:"tiers" json:"tiers"`
	Hourly           map[int]float64 `yaml:"hourly" json:"hourly"`
	SellPriceRatio   float64         `yaml:"sell_price_ratio" json:"sell_price_ratio"`
	DemandChargeRate float64         `yaml:"demand_charge_rate" json:"demand_charge_rate"`
	BillingPeriod    string          `yaml:"billing_period" json:"billing_period"`
}

type TierConfig struct {
	Peak   float64 `yaml:"peak" json:"peak"`
	High   float64 `yaml:"high" json:"high"`
	Flat   float64 `yaml:"flat" json:"flat"`
	Valley float64 `yaml:"valley" json:"valley"`
}

type SimulationConfig struct {
	DecisionStepHours float64 `yaml:"decision_step_hours" json:"decision_step_hours"`
}

type StrategyConfig struct {
	Name string `yaml:"name" json:"name"`
	// Multi-plot only.
	BudgetKWh float64            `yaml:"budget_kwh" json:"budget_kwh"`
	Force     bool               `yaml:"force" json:"force"`
	PlotMax   map[string]float64 `yaml:"plot_max" json:"plot_max"`
}

// Defaults mirrors model.DefaultConfig in file form.
func Defaults() Config {
	d := model.DefaultConfig()
	return Config{
		Battery: BatteryConfig{
			CostPerKWh:          d.BatteryCostPerKWh,
			ChargeEfficiency:    d.ChargeEfficiency,
			DischargeEfficiency: d.DischargeEfficiency,
			ChargePowerRatio:    d.ChargePowerRatio,
			DischargePowerRatio: d.DischargePowerRatio,
			MinSOC:              d.SOCMin,
			MaxSOC:              d.SOCMax,
			SelfDischargeRate:   d.SelfDischargeRate,
			MaxCapacityKWh:      d.MaxBatteryCapacity,
		},
		Economics: EconomicsConfig{
			Years:            d.Years,
			DiscountRate:     d.DiscountRate,
			AnnualizeCapital: d.AnnualizeCapital,
		},
		Tariff: TariffConfig{
			Mode: string(d.Pricing.Mode),
			Tiers: TierConfig{
				Peak:   d.Pricing.Tiers.Peak,
				High:   d.Pricing.Tiers.High,
				Flat:   d.Pricing.Tiers.Flat,
				Valley: d.Pricing.Tiers.Valley,
			},
			SellPriceRatio:   d.SellPriceRatio,
			DemandChargeRate: d.DemandChargeRate,
			BillingPeriod:    string(d.BillingPeriod),
		},
		Simulation: SimulationConfig{DecisionStepHours: d.DecisionStep},
		Strategy:   StrategyConfig{Name: "linear_program"},
	}
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw, filepath.Dir(path))
}

// Parse decodes a YAML config over the defaults. A relative battery_file is
// resolved against dir first, then the working directory. Precedence is
// explicit battery keys, then the battery file, then defaults.
func Parse(raw []byte, dir string) (*Config, error) {
	return parse(raw, dir, yaml.Unmarshal)
}

// ParseJSON is Parse for JSON request bodies.
func ParseJSON(raw []byte, dir string) (*Config, error) {
	return parse(raw, dir, json.Unmarshal)
}

func parse(raw []byte, dir string, unmarshal func([]byte, any) error) (*Config, error) {
	c := Defaults()
	if err := unmarshal(raw, &c); err != nil {
		return nil, err
	}
	if c.BatteryFile == "" {
		return &c, nil
	}

	fromFile, err := loadBatteryFile(ResolveBatteryFile(c.BatteryFile, dir), Defaults().Battery)
	if err != nil {
		return nil, err
	}
	// Re-apply the explicit battery keys on top of the file.
	overlay := Config{Battery: fromFile}
	if err := unmarshal(raw, &overlay); err != nil {
		return nil, err
	}
	c.Battery = overlay.Battery
	return &c, nil
}

// ResolveBatteryFile finds a preset. Relative names are tried under dir,
// with and without a .yaml suffix, before falling back to the name as given.
func ResolveBatteryFile(name, dir string) string {
	if filepath.IsAbs(name) || dir == "" {
		return name
	}
	cands := []string{filepath.Join(dir, name)}
	if filepath.Ext(name) == "" {
		cands = append(cands, filepath.Join(dir, name+".yaml"))
	}
	for _, cand := range cands {
		if _, err := os.Stat(cand); err == nil {
			return cand
		}
	}
	return name
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Strategy.Name == "" {
		return errors.New("strategy.name is required")
	}
	if _, err := model.NewOptimizerConfig(c.ToModel()); err != nil {
		return fmt.Errorf("config invalid: %w", err)
	}
	return nil
}

// ToModel converts the file shape to an optimizer config.
func (c *Config) ToModel() model.OptimizerConfig {
	return model.OptimizerConfig{
		BatteryCostPerKWh:   c.Battery.CostPerKWh,
		ChargeEfficiency:    c.Battery.ChargeEfficiency,
		DischargeEfficiency: c.Battery.DischargeEfficiency,
		ChargePowerRatio:    c.Battery.ChargePowerRatio,
		DischargePowerRatio: c.Battery.DischargePowerRatio,
		SOCMin:              c.Battery.MinSOC,
		SOCMax:              c.Battery.MaxSOC,
		SelfDischargeRate:   c.Battery.SelfDischargeRate,
		Years:               c.Economics.Years,
		DiscountRate:        c.Economics.DiscountRate,
		DecisionStep:        c.Simulation.DecisionStepHours,
		DemandChargeRate:    c.Tariff.DemandChargeRate,
		BillingPeriod:       model.BillingPeriod(strings.ToLower(c.Tariff.BillingPeriod)),
		SellPriceRatio:      c.Tariff.SellPriceRatio,
		Pricing: model.Pricing{
			Mode: model.PricingMode(strings.ToLower(c.Tariff.Mode)),
			Tiers: model.TierPrices{
				Peak:   c.Tariff.Tiers.Peak,
				High:   c.Tariff.Tiers.High,
				Flat:   c.Tariff.Tiers.Flat,
				Valley: c.Tariff.Tiers.Valley,
			},
			Hourly: c.Tariff.Hourly,
		},
		MaxBatteryCapacity: c.Battery.MaxCapacityKWh,
		AnnualizeCapital:   c.Economics.AnnualizeCapital,
	}
}

type batteryFileWrapper struct {
	Battery BatteryConfig `yaml:"battery" json:"battery"`
}

// LoadBatteryFile reads a battery preset. Keys the preset omits are zero.
func LoadBatteryFile(path string) (BatteryConfig, error) {
	return loadBatteryFile(path, BatteryConfig{})
}

func loadBatteryFile(path string, base BatteryConfig) (BatteryConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return BatteryConfig{}, err
	}
	w := batteryFileWrapper{Battery: base}
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return BatteryConfig{}, fmt.Errorf("parse battery file %s: %w", path, err)
	}
	return w.Battery, nil
}

// MergeBattery overlays non-zero fields from override onto base.
// This is used when loading a battery file and then applying overrides from the request.
func MergeBattery(base, override BatteryConfig) BatteryConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.CostPerKWh != 0 {
		out.CostPerKWh = override.CostPerKWh
	}
	if override.ChargeEfficiency != 0 {
		out.ChargeEfficiency = override.ChargeEfficiency
	}
	if override.DischargeEfficiency != 0 {
		out.DischargeEfficiency = override.DischargeEfficiency
	}
	if override.ChargePowerRatio != 0 {
		out.ChargePowerRatio = override.ChargePowerRatio
	}
	if override.DischargePowerRatio != 0 {
		out.DischargePowerRatio = override.DischargePowerRatio
	}
	// Note: these are allowed to be 0 in theory, but presets use non-zero values.
	if override.MinSOC != 0 {
		out.MinSOC = override.MinSOC
	}
	if override.MaxSOC != 0 {
		out.MaxSOC = override.MaxSOC
	}
	if override.SelfDischargeRate != 0 {
		out.SelfDischargeRate = override.SelfDischargeRate
	}
	if override.MaxCapacityKWh != 0 {
		out.MaxCapacityKWh = override.MaxCapacityKWh
	}
	return out
}
