// Package report flattens optimization results into per-step ledgers.
package report

import (
	"time"

	"battery-sizing/internal/model"
)

// LedgerRow is one row of per-step output.
// This is the primary artifact for "what the battery did" in a result.
type LedgerRow struct {
	Index int

	StepStart time.Time
	StepEnd   time.Time

	Plot string

	NetLoadKW float64
	Price     float64
	Tier      string

	Action model.Action

	GridImportKW float64
	GridExportKW float64
	ChargeKW     float64
	DischargeKW  float64
	StoredKWh    float64
	SOC          float64
	BaselineKW   float64
	Cost         float64
	BaselineCost float64
	CumSavings   float64
}

// BuildLedger turns a result into ledger rows. Cost columns price the step
// energy only; demand charges are billed per period and are not spread
// over rows.
func BuildLedger(r *model.OptimizationResult, cfg model.OptimizerConfig) []LedgerRow {
	n := r.Dispatch.Len()
	dt := cfg.DecisionStep
	step := time.Duration(dt * float64(time.Hour))
	rows := make([]LedgerRow, 0, n)
	cum := 0.0
	for i := 0; i < n; i++ {
		d := r.Dispatch
		price := r.Prices[i]
		net := r.NetLoad[i]

		cost := (d.GridImport[i] - cfg.SellPriceRatio*d.GridExport[i]) * price * dt
		baseImport, baseExport := max(net, 0), max(-net, 0)
		baseCost := (baseImport - cfg.SellPriceRatio*baseExport) * price * dt
		cum += baseCost - cost

		row := LedgerRow{
			Index: i,
			Plot:  r.Plot,

			NetLoadKW: net,
			Price:     price,

			Action: model.ActionFromPowerKW(d.Discharge[i] - d.Charge[i]),

			GridImportKW: d.GridImport[i],
			GridExportKW: d.GridExport[i],
			ChargeKW:     d.Charge[i],
			DischargeKW:  d.Discharge[i],
			StoredKWh:    d.StoredEnergy[i],
			BaselineKW:   baseImport - baseExport,
			Cost:         cost,
			BaselineCost: baseCost,
			CumSavings:   cum,
		}
		if i < len(r.Times) {
			row.StepStart = r.Times[i]
			row.StepEnd = r.Times[i].Add(step)
		}
		if i < len(r.Tiers) {
			row.Tier = r.Tiers[i]
		}
		if r.BatteryCapacity > 0 {
			row.SOC = d.StoredEnergy[i] / r.BatteryCapacity
		}
		rows = append(rows, row)
	}
	return rows
}
