package report

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"testing"
	"time"

	"battery-sizing/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() (*model.OptimizationResult, model.OptimizerConfig) {
	cfg := model.DefaultConfig()
	cfg.DecisionStep = 1
	cfg.SellPriceRatio = 0.5
	t0 := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	return &model.OptimizationResult{
		Plot:            "north",
		BatteryCapacity: 10,
		Times:           []time.Time{t0, t0.Add(time.Hour)},
		NetLoad:         []float64{-2, 3},
		Prices:          []float64{0.5, 1},
		Tiers:           []string{"valley", "peak"},
		Dispatch: model.DispatchSolution{
			GridImport:   []float64{0, 1},
			GridExport:   []float64{0, 0},
			Charge:       []float64{2, 0},
			Discharge:    []float64{0, 2},
			StoredEnergy: []float64{3.8, 1.6},
		},
	}, cfg
}

func TestBuildLedger(t *testing.T) {
	r, cfg := sampleResult()
	rows := BuildLedger(r, cfg)
	require.Len(t, rows, 2)

	assert.Equal(t, model.ActionCharging, rows[0].Action)
	assert.Equal(t, model.ActionDischarging, rows[1].Action)
	assert.InDelta(t, 0.38, rows[0].SOC, 1e-12)
	assert.Equal(t, "peak", rows[1].Tier)
	assert.Equal(t, r.Times[0].Add(time.Hour), rows[0].StepEnd)

	// Baseline exports 2 kW at 0.5 × 0.5, then imports 3 kW at 1.
	assert.InDelta(t, -0.5, rows[0].BaselineCost, 1e-12)
	assert.InDelta(t, 0, rows[0].Cost, 1e-12)
	assert.InDelta(t, 1, rows[1].Cost, 1e-12)
	assert.InDelta(t, -0.5+2, rows[1].CumSavings, 1e-12)
}

func TestWriteLedger(t *testing.T) {
	r, cfg := sampleResult()
	var buf bytes.Buffer
	require.NoError(t, WriteLedger(&buf, BuildLedger(r, cfg)))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "index", records[0][0])
	assert.Equal(t, "2024-07-01T00:00:00Z", records[1][1])
	assert.Equal(t, "CHARGING", records[1][7])

	path := filepath.Join(t.TempDir(), "ledger.csv")
	assert.NoError(t, WriteLedgerCSV(path, BuildLedger(r, cfg)))
}
