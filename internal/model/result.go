package model

import (
	"sort"
	"time"
)

// DispatchSolution holds one value per step. Powers are kW, StoredEnergy is
// kWh at the end of the step.
type DispatchSolution struct {
	GridImport   []float64 `json:"grid_import"`
	GridExport   []float64 `json:"grid_export"`
	Charge       []float64 `json:"charge"`
	Discharge    []float64 `json:"discharge"`
	StoredEnergy []float64 `json:"stored_energy"`
}

// Len is the number of steps.
func (d DispatchSolution) Len() int { return len(d.GridImport) }

// NewDispatchSolution allocates n zeroed steps.
func NewDispatchSolution(n int) DispatchSolution {
	return DispatchSolution{
		GridImport:   make([]float64, n),
		GridExport:   make([]float64, n),
		Charge:       make([]float64, n),
		Discharge:    make([]float64, n),
		StoredEnergy: make([]float64, n),
	}
}

// EconomicMetrics is derived from an OptimizationResult. Nil pointers mean
// the metric is undefined (for example payback with non-positive savings).
type EconomicMetrics struct {
	PaybackPeriod              *float64 `json:"payback_period"`
	NPV                        float64  `json:"npv"`
	IRR                        *float64 `json:"irr"`
	OperationalCostSavingRatio *float64 `json:"operational_cost_saving_ratio"`
	SellEnergyProfit           float64  `json:"sell_energy_profit"`
}

// OptimizationResult is the full outcome of one single-plot solve. Costs are
// in currency over the span of the series unless named Annual.
type OptimizationResult struct {
	Plot            string  `json:"plot,omitempty"`
	Strategy        string  `json:"strategy"`
	BatteryCapacity float64 `json:"battery_capacity"`

	// TotalCost is the LP objective: CapitalCost + OperatingCost.
	TotalCost     float64 `json:"total_cost"`
	CapitalCost   float64 `json:"capital_cost"`
	OperatingCost float64 `json:"operating_cost"`
	EnergyCost    float64 `json:"energy_cost"`
	DemandCost    float64 `json:"demand_cost"`

	BaselineCost       float64 `json:"baseline_cost"`
	BaselineEnergyCost float64 `json:"baseline_energy_cost"`
	BaselineDemandCost float64 `json:"baseline_demand_cost"`

	SeriesYears             float64 `json:"series_years"`
	AnnualSavings           float64 `json:"annual_savings"`
	BaselineAnnualCost      float64 `json:"baseline_annual_cost"`
	BatteryConstructionCost float64 `json:"battery_construction_cost"`

	SellEnergyProfit           float64  `json:"sell_energy_profit"`
	SellEnergyProfitRatio      *float64 `json:"sell_energy_profit_ratio"`
	OperationalCostSavingRatio *float64 `json:"operational_cost_saving_ratio"`

	PeakDemand         map[string]float64 `json:"peak_demand,omitempty"`
	BaselinePeakDemand map[string]float64 `json:"baseline_peak_demand,omitempty"`

	Times    []time.Time      `json:"times"`
	NetLoad  []float64        `json:"net_load"`
	Prices   []float64        `json:"prices"`
	Tiers    []string         `json:"tiers"`
	Dispatch DispatchSolution `json:"dispatch"`

	SolveTime time.Duration   `json:"solve_time_ns"`
	Metrics   EconomicMetrics `json:"metrics"`
}

// PlotAllocation maps plot id to assigned capacity (kWh).
type PlotAllocation map[string]float64

// Total is the sum of the assigned capacities.
func (a PlotAllocation) Total() float64 {
	total := 0.0
	for _, c := range a {
		total += c
	}
	return total
}

// Plots returns the plot ids in sorted order.
func (a PlotAllocation) Plots() []string {
	out := make([]string, 0, len(a))
	for id := range a {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// MultiPlotResult is the outcome of one joint allocation solve.
type MultiPlotResult struct {
	Budget        float64                        `json:"budget"`
	Forced        bool                           `json:"forced"`
	Allocation    PlotAllocation                 `json:"allocation"`
	Plots         map[string]*OptimizationResult `json:"plots"`
	TotalCost     float64                        `json:"total_cost"`
	TotalCapacity float64                        `json:"total_capacity"`
	AnnualSavings float64                        `json:"annual_savings"`
	SolveTime     time.Duration                  `json:"solve_time_ns"`
	Metrics       EconomicMetrics                `json:"metrics"`
}
