package models

import (
	"encoding/json"

	"battery-sizing/internal/data"
)

// DataSource names the net-load input: a catalog dataset or inline records.
type DataSource struct {
	DatasetID string        `json:"dataset_id,omitempty"`
	Records   []data.Record `json:"records,omitempty"`
}

// OptimizeRequest represents the request body for sizing one plot.
// Config uses the YAML config shape (battery_file, battery, economics,
// tariff, simulation); omitted keys keep their defaults.
type OptimizeRequest struct {
	Config  json.RawMessage `json:"config,omitempty"`
	Data    DataSource      `json:"data"`
	Plot    string          `json:"plot,omitempty"` // required when the data holds several plots
	Options OptimizeOptions `json:"options,omitempty"`
}

// OptimizeOptions contains optional run parameters.
type OptimizeOptions struct {
	// CapacityKWh fixes the battery size and only schedules it.
	CapacityKWh   *float64 `json:"capacity_kwh,omitempty"`
	IncludeLedger bool     `json:"include_ledger,omitempty"` // default: false
	IncludeSeries bool     `json:"include_series,omitempty"` // default: false
}

// MultiPlotRequest represents a request to split a shared budget across plots.
type MultiPlotRequest struct {
	Config    json.RawMessage    `json:"config,omitempty"`
	Data      DataSource         `json:"data"`
	BudgetKWh float64            `json:"budget_kwh" binding:"gte=0"`
	Force     bool               `json:"force,omitempty"`
	PlotMax   map[string]float64 `json:"plot_max,omitempty"`
}

// SweepRequest runs one optimization per parameter value.
type SweepRequest struct {
	Config    json.RawMessage `json:"config,omitempty"`
	Data      DataSource      `json:"data"`
	Plot      string          `json:"plot,omitempty"`
	Parameter string          `json:"parameter" binding:"required,oneof=battery_cost max_capacity sell_ratio"`
	Values    []float64       `json:"values,omitempty"`
	Range     *RangeSpec      `json:"range,omitempty"`
}

// RangeSpec is an inclusive numeric range.
type RangeSpec struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
	Step float64 `json:"step"`
}

// RankRequest sizes every plot independently and ranks them.
type RankRequest struct {
	Config json.RawMessage `json:"config,omitempty"`
	Data   DataSource      `json:"data"`
	Limit  int             `json:"limit,omitempty"` // default: 10
}

// MetricsRequest evaluates the economics of a given investment.
type MetricsRequest struct {
	ConstructionCost   float64 `json:"construction_cost" binding:"gte=0"`
	AnnualSavings      float64 `json:"annual_savings"`
	BaselineAnnualCost float64 `json:"baseline_annual_cost,omitempty"`
	Years              int     `json:"years" binding:"required,gt=0"`
	DiscountRate       float64 `json:"discount_rate" binding:"gte=0"`
	SellEnergyProfit   float64 `json:"sell_energy_profit,omitempty"`
}
