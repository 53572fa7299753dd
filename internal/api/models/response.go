package models

import (
	"time"

	"battery-sizing/internal/analysis"
	"battery-sizing/internal/data"
	"battery-sizing/internal/model"
)

// OptimizeResponse represents the response from a single-plot run.
type OptimizeResponse struct {
	ID      string                    `json:"id,omitempty"`
	Status  string                    `json:"status"`
	Summary OptimizeSummary           `json:"summary"`
	KPIs    analysis.SystemKPIs       `json:"kpis"`
	Result  *model.OptimizationResult `json:"result,omitempty"`
	Ledger  []LedgerRow               `json:"ledger,omitempty"`
}

// OptimizeSummary contains the headline numbers of a run.
type OptimizeSummary struct {
	Plot               string  `json:"plot,omitempty"`
	Strategy           string  `json:"strategy"`
	BatteryCapacityKWh float64 `json:"battery_capacity_kwh"`

	TotalCost     float64 `json:"total_cost"`
	CapitalCost   float64 `json:"capital_cost"`
	OperatingCost float64 `json:"operating_cost"`
	BaselineCost  float64 `json:"baseline_cost"`
	DemandCost    float64 `json:"demand_cost"`

	AnnualSavings           float64 `json:"annual_savings"`
	BatteryConstructionCost float64 `json:"battery_construction_cost"`
	SellEnergyProfit        float64 `json:"sell_energy_profit"`

	Window      TimeWindow            `json:"window"`
	Steps       int                   `json:"steps"`
	SolveTimeMS float64               `json:"solve_time_ms"`
	Metrics     model.EconomicMetrics `json:"metrics"`
}

// TimeWindow represents a time range
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// LedgerRow represents one step of the dispatch ledger.
type LedgerRow struct {
	Index        int       `json:"index"`
	StepStart    time.Time `json:"step_start"`
	StepEnd      time.Time `json:"step_end"`
	Plot         string    `json:"plot,omitempty"`
	NetLoadKW    float64   `json:"net_load_kw"`
	Price        float64   `json:"price"`
	Tier         string    `json:"tier,omitempty"`
	Action       string    `json:"action"` // "CHARGING", "DISCHARGING", "IDLE"
	GridImportKW float64   `json:"grid_import_kw"`
	GridExportKW float64   `json:"grid_export_kw"`
	ChargeKW     float64   `json:"charge_kw"`
	DischargeKW  float64   `json:"discharge_kw"`
	StoredKWh    float64   `json:"stored_kwh"`
	SOC          float64   `json:"soc"`
	Cost         float64   `json:"cost"`
	BaselineCost float64   `json:"baseline_cost"`
	CumSavings   float64   `json:"cum_savings"`
}

// LedgerResponse is returned by the ledger lookup.
type LedgerResponse struct {
	ID     string      `json:"id"`
	Ledger []LedgerRow `json:"ledger"`
}

// MultiPlotResponse represents the response from a budget allocation.
type MultiPlotResponse struct {
	Status        string                `json:"status"`
	BudgetKWh     float64               `json:"budget_kwh"`
	Forced        bool                  `json:"forced"`
	Allocation    map[string]float64    `json:"allocation"`
	TotalCapacity float64               `json:"total_capacity_kwh"`
	TotalCost     float64               `json:"total_cost"`
	AnnualSavings float64               `json:"annual_savings"`
	SolveTimeMS   float64               `json:"solve_time_ms"`
	Metrics       model.EconomicMetrics `json:"metrics"`
	Plots         []OptimizeSummary     `json:"plots"`
}

// SweepResponse lists one outcome per swept value, in request order.
type SweepResponse struct {
	Parameter string      `json:"parameter"`
	Cases     []SweepCase `json:"cases"`
}

// SweepCase is one point of a sweep. Error is set when that case failed.
type SweepCase struct {
	Label   string           `json:"label"`
	Value   float64          `json:"value"`
	Summary *OptimizeSummary `json:"summary,omitempty"`
	Error   *ErrorDetail     `json:"error,omitempty"`
}

// RankResponse represents the response from ranking plots.
type RankResponse struct {
	Rankings []Ranking `json:"rankings"`
}

// Ranking represents one ranked plot
type Ranking struct {
	Rank               int                  `json:"rank"`
	Plot               string               `json:"plot"`
	BatteryCapacityKWh float64              `json:"battery_capacity_kwh"`
	AnnualSavings      float64              `json:"annual_savings"`
	PaybackPeriod      *float64             `json:"payback_period"`
	NPV                float64              `json:"npv"`
	Profile            analysis.LoadProfile `json:"profile"`
}

// BatteryInfo represents information about a battery preset
type BatteryInfo struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	File  string       `json:"file"`
	Specs BatterySpecs `json:"specs"`
}

// BatterySpecs contains battery specifications
type BatterySpecs struct {
	CostPerKWh          float64 `json:"cost_per_kwh"`
	ChargePowerRatio    float64 `json:"charge_power_ratio"`
	DischargePowerRatio float64 `json:"discharge_power_ratio"`
	ChargeEfficiency    float64 `json:"charge_efficiency"`
	DischargeEfficiency float64 `json:"discharge_efficiency"`
	MinSOC              float64 `json:"min_soc"`
	MaxSOC              float64 `json:"max_soc"`
	MaxCapacityKWh      float64 `json:"max_capacity_kwh,omitempty"`
}

// StrategyInfo represents information about a strategy
type StrategyInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// ParameterInfo describes a strategy parameter
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "float", "int", "bool", "map"
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
}

// DatasetResponse lists the catalog.
type DatasetResponse struct {
	Datasets  []data.DatasetInfo `json:"datasets"`
	UpdatedAt string             `json:"updated_at,omitempty"`
	Count     int                `json:"count"`
}

// ProfileResponse summarizes the plots of one dataset.
type ProfileResponse struct {
	Dataset  string                 `json:"dataset"`
	Profiles []analysis.LoadProfile `json:"profiles"`
}

// TariffResponse describes the built-in tier calendar and default prices.
type TariffResponse struct {
	Bands  map[string][]string `json:"bands"` // season -> tier per hour of day
	Prices map[string]float64  `json:"prices"`
	Summer []string            `json:"summer_months"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
