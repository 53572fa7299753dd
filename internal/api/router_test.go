package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"battery-sizing/internal/analysis"
	"battery-sizing/internal/api/cache"
	"battery-sizing/internal/api/handlers"
	"battery-sizing/internal/api/models"
	"battery-sizing/internal/data"
	"battery-sizing/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const tol = 1e-6

var july = time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, withCache bool) (*gin.Engine, handlers.Deps) {
	t.Helper()
	dir := t.TempDir()
	deps := handlers.Deps{
		BatteryDir:  filepath.Join(dir, "batteries"),
		CatalogFile: filepath.Join(dir, "catalog.json"),
		Timeout:     30 * time.Second,
		Workers:     2,
		Logger:      zaptest.NewLogger(t),
	}
	if withCache {
		deps.Cache = cache.New(time.Hour)
	}
	return NewRouter(deps, RouterOptions{}), deps
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// dayRecords is a July day with a midday PV surplus and an evening peak.
func dayRecords(plot string) []data.Record {
	out := make([]data.Record, 24)
	for h := range out {
		load := 1.0
		switch {
		case h >= 10 && h <= 13:
			load = -2
		case h >= 14 && h <= 21:
			load = 3
		}
		out[h] = data.Record{Plot: plot, Time: july.Add(time.Duration(h) * time.Hour), Load: load}
	}
	return out
}

func dayConfig() map[string]any {
	return map[string]any{
		"battery":    map[string]any{"cost_per_kwh": 300, "max_capacity_kwh": 10},
		"economics":  map[string]any{"annualize_capital": true},
		"simulation": map[string]any{"decision_step_hours": 1},
	}
}

// plotsConfig prices hour 0 at 0.1, hour 1 at 1.0 and hour 2 at 0.6 with a
// lossless battery.
func plotsConfig() map[string]any {
	// JSON keys of the hourly table are hours of the day.
	hourly := map[string]float64{}
	for h := 0; h < 24; h++ {
		hourly[strconv.Itoa(h)] = 0.5
	}
	hourly["0"], hourly["1"], hourly["2"] = 0.1, 1.0, 0.6
	return map[string]any{
		"battery": map[string]any{
			"cost_per_kwh":          0.1,
			"charge_efficiency":     1,
			"discharge_efficiency":  1,
			"charge_power_ratio":    1,
			"discharge_power_ratio": 1,
			"min_soc":               0,
			"max_soc":               1,
			"max_capacity_kwh":      10,
		},
		"tariff":     map[string]any{"mode": "hourly", "hourly": hourly, "sell_price_ratio": 0},
		"simulation": map[string]any{"decision_step_hours": 1},
	}
}

func plotRecords() []data.Record {
	midnight := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	var out []data.Record
	for plot, loads := range map[string][]float64{"a": {0, 1, 0}, "b": {0, 0, 1}} {
		for h, v := range loads {
			out = append(out, data.Record{Plot: plot, Time: midnight.Add(time.Duration(h) * time.Hour), Load: v})
		}
	}
	return out
}

func TestHealthAndNotFound(t *testing.T) {
	r, _ := newTestRouter(t, false)

	w := do(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode[models.ErrorResponse](t, w).Error.Code)
}

func TestOptimizeWithCachedLedger(t *testing.T) {
	r, _ := newTestRouter(t, true)

	w := do(t, r, http.MethodPost, "/api/v1/optimize", map[string]any{
		"config":  dayConfig(),
		"data":    map[string]any{"records": dayRecords("")},
		"options": map[string]any{"include_ledger": true},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.OptimizeResponse](t, w)

	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, data.DefaultPlot, resp.Summary.Plot)
	assert.Greater(t, resp.Summary.BatteryCapacityKWh, 0.0)
	assert.LessOrEqual(t, resp.Summary.BatteryCapacityKWh, 10+tol)
	assert.InDelta(t, resp.Summary.CapitalCost+resp.Summary.OperatingCost, resp.Summary.TotalCost, tol)
	assert.Equal(t, 24, resp.Summary.Steps)
	assert.Equal(t, july, resp.Summary.Window.Start.UTC())
	assert.Len(t, resp.Ledger, 24)
	assert.Nil(t, resp.Result)
	require.NotEmpty(t, resp.ID)

	w = do(t, r, http.MethodGet, "/api/v1/optimize/"+resp.ID+"/ledger", nil)
	require.Equal(t, http.StatusOK, w.Code)
	ledger := decode[models.LedgerResponse](t, w)
	assert.Equal(t, resp.Ledger, ledger.Ledger)

	w = do(t, r, http.MethodGet, "/api/v1/optimize/"+resp.ID+"/ledger?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Len(t, lines, 25)

	w = do(t, r, http.MethodGet, "/api/v1/optimize/unknown/ledger", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOptimizeFixedCapacity(t *testing.T) {
	r, _ := newTestRouter(t, false)

	w := do(t, r, http.MethodPost, "/api/v1/optimize", map[string]any{
		"config":  dayConfig(),
		"data":    map[string]any{"records": dayRecords("")},
		"options": map[string]any{"capacity_kwh": 4, "include_series": true},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.OptimizeResponse](t, w)
	assert.InDelta(t, 4, resp.Summary.BatteryCapacityKWh, tol)
	require.NotNil(t, resp.Result)
	assert.Len(t, resp.Result.Dispatch.StoredEnergy, 24)
	assert.Empty(t, resp.ID)

	w = do(t, r, http.MethodPost, "/api/v1/optimize", map[string]any{
		"config":  dayConfig(),
		"data":    map[string]any{"records": dayRecords("")},
		"options": map[string]any{"capacity_kwh": -1},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_CONFIG", decode[models.ErrorResponse](t, w).Error.Code)
}

func TestOptimizeErrors(t *testing.T) {
	r, _ := newTestRouter(t, false)

	cases := []struct {
		name string
		body map[string]any
		code string
	}{
		{
			name: "invalid soc window",
			body: map[string]any{
				"config": map[string]any{"battery": map[string]any{"min_soc": 0.95, "max_soc": 0.9}},
				"data":   map[string]any{"records": dayRecords("")},
			},
			code: "INVALID_CONFIG",
		},
		{
			name: "no data",
			body: map[string]any{"config": dayConfig()},
			code: "INVALID_DATA",
		},
		{
			name: "preset path",
			body: map[string]any{
				"config": map[string]any{"battery_file": "../secrets"},
				"data":   map[string]any{"records": dayRecords("")},
			},
			code: "INVALID_CONFIG",
		},
		{
			name: "several plots",
			body: map[string]any{
				"config": dayConfig(),
				"data":   map[string]any{"records": append(dayRecords("a"), dayRecords("b")...)},
			},
			code: "INVALID_DATA",
		},
		{
			name: "wrong step",
			body: map[string]any{
				"config": map[string]any{"simulation": map[string]any{"decision_step_hours": 0.5}},
				"data":   map[string]any{"records": dayRecords("")},
			},
			code: "INVALID_DATA",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/api/v1/optimize", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, tc.code, decode[models.ErrorResponse](t, w).Error.Code)
		})
	}

	w := do(t, r, http.MethodGet, "/api/v1/optimize/x/ledger", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestOptimizeMulti(t *testing.T) {
	r, _ := newTestRouter(t, false)

	w := do(t, r, http.MethodPost, "/api/v1/optimize/multi", map[string]any{
		"config":     plotsConfig(),
		"data":       map[string]any{"records": plotRecords()},
		"budget_kwh": 1.5,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.MultiPlotResponse](t, w)
	assert.InDelta(t, 1, resp.Allocation["a"], tol)
	assert.InDelta(t, 0.5, resp.Allocation["b"], tol)
	assert.InDelta(t, 1.5, resp.TotalCapacity, tol)
	require.Len(t, resp.Plots, 2)
	assert.Equal(t, "a", resp.Plots[0].Plot)

	w = do(t, r, http.MethodPost, "/api/v1/optimize/multi", map[string]any{
		"config":     plotsConfig(),
		"data":       map[string]any{"records": plotRecords()},
		"budget_kwh": 100,
		"force":      true,
		"plot_max":   map[string]float64{"a": 1, "b": 1},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_CONFIG", decode[models.ErrorResponse](t, w).Error.Code)

	w = do(t, r, http.MethodPost, "/api/v1/optimize/multi", map[string]any{
		"data":       map[string]any{"records": plotRecords()},
		"budget_kwh": -1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", decode[models.ErrorResponse](t, w).Error.Code)
}

func TestSweep(t *testing.T) {
	r, _ := newTestRouter(t, false)

	w := do(t, r, http.MethodPost, "/api/v1/optimize/sweep", map[string]any{
		"config":    dayConfig(),
		"data":      map[string]any{"records": dayRecords("")},
		"parameter": "sell_ratio",
		"values":    []float64{0, 0.6, 1.5},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.SweepResponse](t, w)
	require.Len(t, resp.Cases, 3)
	assert.Equal(t, "sell_price_ratio=0", resp.Cases[0].Label)
	require.NotNil(t, resp.Cases[0].Summary)
	require.NotNil(t, resp.Cases[1].Summary)
	assert.Nil(t, resp.Cases[2].Summary)
	require.NotNil(t, resp.Cases[2].Error)
	assert.Equal(t, "INVALID_CONFIG", resp.Cases[2].Error.Code)

	w = do(t, r, http.MethodPost, "/api/v1/optimize/sweep", map[string]any{
		"config":    dayConfig(),
		"data":      map[string]any{"records": dayRecords("")},
		"parameter": "max_capacity",
		"range":     map[string]float64{"from": 0, "to": 10, "step": 5},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp = decode[models.SweepResponse](t, w)
	require.Len(t, resp.Cases, 3)
	for i, c := range resp.Cases {
		require.NotNil(t, c.Summary, c.Label)
		assert.LessOrEqual(t, c.Summary.BatteryCapacityKWh, c.Value+tol)
		if i > 0 {
			assert.GreaterOrEqual(t, c.Summary.AnnualSavings, resp.Cases[i-1].Summary.AnnualSavings-1e-3)
		}
	}

	w = do(t, r, http.MethodPost, "/api/v1/optimize/sweep", map[string]any{
		"data":      map[string]any{"records": dayRecords("")},
		"parameter": "efficiency",
		"values":    []float64{1},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRankPlots(t *testing.T) {
	r, _ := newTestRouter(t, false)

	w := do(t, r, http.MethodPost, "/api/v1/rank", map[string]any{
		"config": plotsConfig(),
		"data":   map[string]any{"records": plotRecords()},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.RankResponse](t, w)
	require.Len(t, resp.Rankings, 2)
	// A kWh shifted into hour 1 is worth more than one shifted into hour 2.
	assert.Equal(t, "a", resp.Rankings[0].Plot)
	assert.Equal(t, 1, resp.Rankings[0].Rank)
	assert.GreaterOrEqual(t, resp.Rankings[0].AnnualSavings, resp.Rankings[1].AnnualSavings)
	assert.Equal(t, 3, resp.Rankings[0].Profile.Count)

	w = do(t, r, http.MethodPost, "/api/v1/rank", map[string]any{
		"config": plotsConfig(),
		"data":   map[string]any{"records": plotRecords()},
		"limit":  1,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[models.RankResponse](t, w).Rankings, 1)
}

func TestMetrics(t *testing.T) {
	r, _ := newTestRouter(t, false)

	w := do(t, r, http.MethodPost, "/api/v1/metrics", map[string]any{
		"construction_cost": 1000,
		"annual_savings":    200,
		"years":             10,
		"discount_rate":     0.05,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	m := decode[model.EconomicMetrics](t, w)
	require.NotNil(t, m.PaybackPeriod)
	assert.InDelta(t, 5, *m.PaybackPeriod, 1e-9)
	assert.InDelta(t, analysis.NPV(1000, 200, 10, 0.05), m.NPV, 1e-9)
	require.NotNil(t, m.IRR)
	assert.Nil(t, m.OperationalCostSavingRatio)

	w = do(t, r, http.MethodPost, "/api/v1/metrics", map[string]any{"construction_cost": 1000})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListings(t *testing.T) {
	r, deps := newTestRouter(t, false)

	w := do(t, r, http.MethodGet, "/api/v1/strategies", nil)
	require.Equal(t, http.StatusOK, w.Code)
	strategies := decode[struct {
		Strategies []models.StrategyInfo `json:"strategies"`
	}](t, w).Strategies
	require.Len(t, strategies, 2)
	assert.Equal(t, "linear_program", strategies[0].Name)
	assert.Len(t, strategies[1].Parameters, 3)

	w = do(t, r, http.MethodGet, "/api/v1/tariffs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	tariffs := decode[models.TariffResponse](t, w)
	assert.Len(t, tariffs.Bands["summer"], 24)
	assert.Equal(t, []string{"July", "August"}, tariffs.Summer)
	assert.InDelta(t, model.DefaultConfig().Pricing.Tiers.Peak, tariffs.Prices["peak"], tol)

	// No battery directory yet.
	w = do(t, r, http.MethodGet, "/api/v1/batteries", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"batteries": []}`, w.Body.String())

	require.NoError(t, os.MkdirAll(deps.BatteryDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(deps.BatteryDir, "lfp_cabinet.yaml"),
		[]byte("battery:\n  name: LFP cabinet\n  cost_per_kwh: 900\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(deps.BatteryDir, "notes.txt"), []byte("x"), 0644))
	w = do(t, r, http.MethodGet, "/api/v1/batteries", nil)
	require.Equal(t, http.StatusOK, w.Code)
	batteries := decode[struct {
		Batteries []models.BatteryInfo `json:"batteries"`
	}](t, w).Batteries
	require.Len(t, batteries, 1)
	assert.Equal(t, "lfp_cabinet", batteries[0].ID)
	assert.Equal(t, 900.0, batteries[0].Specs.CostPerKWh)
	assert.Equal(t, 0.913, batteries[0].Specs.ChargeEfficiency)
}

func TestDatasetsAndProfile(t *testing.T) {
	r, deps := newTestRouter(t, false)

	w := do(t, r, http.MethodGet, "/api/v1/datasets", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[models.DatasetResponse](t, w).Count)

	dir := filepath.Dir(deps.CatalogFile)
	var csv strings.Builder
	csv.WriteString("time,load,pv\n")
	for _, rec := range dayRecords("") {
		csv.WriteString(rec.Time.Format(time.RFC3339))
		csv.WriteString(",")
		csv.WriteString(strconv.FormatFloat(rec.Load+1, 'f', -1, 64))
		csv.WriteString(",1\n")
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "site.csv"), []byte(csv.String()), 0644))
	catalog, skipped, err := data.Scan(dir, data.DefaultColumns)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.NoError(t, data.SaveCatalog(catalog, deps.CatalogFile))

	w = do(t, r, http.MethodGet, "/api/v1/datasets", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[models.DatasetResponse](t, w)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "site", list.Datasets[0].ID)
	assert.Equal(t, 24, list.Datasets[0].Steps)

	w = do(t, r, http.MethodGet, "/api/v1/datasets/site/profile", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	profile := decode[models.ProfileResponse](t, w)
	require.Len(t, profile.Profiles, 1)
	assert.Equal(t, 24, profile.Profiles[0].Count)
	assert.InDelta(t, 3, profile.Profiles[0].MaxKW, tol)

	w = do(t, r, http.MethodGet, "/api/v1/datasets/missing/profile", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// The catalog also feeds optimize requests.
	w = do(t, r, http.MethodPost, "/api/v1/optimize", map[string]any{
		"config": dayConfig(),
		"data":   map[string]any{"dataset_id": "site"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
