package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"battery-sizing/internal/api/cache"
	"battery-sizing/internal/api/models"
	"battery-sizing/internal/config"
	"battery-sizing/internal/data"
	"battery-sizing/internal/lp"
	"battery-sizing/internal/model"
	"battery-sizing/internal/report"
	"battery-sizing/internal/strategy"

	"go.uber.org/zap"
)

// Deps are shared by the handlers.
type Deps struct {
	BatteryDir  string
	CatalogFile string
	// Timeout bounds each solve; zero means no limit.
	Timeout time.Duration
	// Workers bounds concurrent solves of sweeps and rankings.
	Workers int
	Logger  *zap.Logger
	// Cache is nil when result caching is disabled.
	Cache *cache.ResultCache
}

func (d Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

func (d Deps) optimizerOptions() []strategy.Option {
	return []strategy.Option{
		strategy.WithSolver(lp.BoundedSimplex{Timeout: d.Timeout}),
		strategy.WithLogger(d.logger()),
	}
}

// buildConfig decodes the request config over the defaults and validates it.
// battery_file must name a preset in the battery directory.
func buildConfig(raw json.RawMessage, batteryDir string) (*config.Config, model.OptimizerConfig, error) {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}
	var probe struct {
		BatteryFile string `json:"battery_file"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, model.OptimizerConfig{}, &model.ConfigurationError{Field: "config", Reason: err.Error()}
	}
	if bf := probe.BatteryFile; bf != "" && (filepath.Base(bf) != bf || strings.HasPrefix(bf, ".")) {
		return nil, model.OptimizerConfig{}, &model.ConfigurationError{Field: "battery_file", Reason: "must be a preset name"}
	}

	c, err := config.ParseJSON(raw, batteryDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, model.OptimizerConfig{}, &model.ConfigurationError{Field: "battery_file", Reason: fmt.Sprintf("unknown preset %q", probe.BatteryFile)}
	case err != nil:
		return nil, model.OptimizerConfig{}, &model.ConfigurationError{Field: "config", Reason: err.Error()}
	}
	cfg, err := model.NewOptimizerConfig(c.ToModel())
	if err != nil {
		return nil, model.OptimizerConfig{}, err
	}
	return c, cfg, nil
}

// loadSeries resolves the data source into one net-load series per plot.
func loadSeries(src models.DataSource, catalogFile string) (map[string]model.NetLoadSeries, error) {
	switch {
	case src.DatasetID != "" && len(src.Records) > 0:
		return nil, &model.DataError{Index: -1, Reason: "set either data.dataset_id or data.records, not both"}
	case len(src.Records) > 0:
		return data.NetSeries(src.Records)
	case src.DatasetID == "":
		return nil, &model.DataError{Index: -1, Reason: "data.dataset_id or data.records is required"}
	}

	info, err := findDataset(catalogFile, src.DatasetID)
	if err != nil {
		return nil, err
	}
	return data.Load(info.Path, data.DefaultColumns)
}

func findDataset(catalogFile, id string) (data.DatasetInfo, error) {
	catalog, err := data.LoadCatalog(catalogFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return data.DatasetInfo{}, err
	}
	if catalog != nil {
		if info, ok := catalog.Find(id); ok {
			return info, nil
		}
	}
	return data.DatasetInfo{}, &model.DataError{Index: -1, Reason: fmt.Sprintf("unknown dataset %q", id)}
}

// pickSeries selects the plot to optimize. plot may be empty when the data
// holds a single plot.
func pickSeries(plots map[string]model.NetLoadSeries, plot string) (string, model.NetLoadSeries, error) {
	if plot != "" {
		s, ok := plots[plot]
		if !ok {
			return "", nil, &model.DataError{Plot: plot, Index: -1, Reason: "unknown plot"}
		}
		return plot, s, nil
	}
	if len(plots) != 1 {
		return "", nil, &model.DataError{Index: -1, Reason: fmt.Sprintf("data holds %d plots; set plot", len(plots))}
	}
	for id, s := range plots {
		return id, s, nil
	}
	return "", nil, nil
}

func summarize(r *model.OptimizationResult) models.OptimizeSummary {
	s := models.OptimizeSummary{
		Plot:               r.Plot,
		Strategy:           r.Strategy,
		BatteryCapacityKWh: r.BatteryCapacity,

		TotalCost:     r.TotalCost,
		CapitalCost:   r.CapitalCost,
		OperatingCost: r.OperatingCost,
		BaselineCost:  r.BaselineCost,
		DemandCost:    r.DemandCost,

		AnnualSavings:           r.AnnualSavings,
		BatteryConstructionCost: r.BatteryConstructionCost,
		SellEnergyProfit:        r.SellEnergyProfit,

		Steps:       len(r.NetLoad),
		SolveTimeMS: float64(r.SolveTime) / float64(time.Millisecond),
		Metrics:     r.Metrics,
	}
	if n := len(r.Times); n > 0 {
		s.Window = models.TimeWindow{Start: r.Times[0], End: r.Times[n-1]}
	}
	return s
}

func toLedger(rows []report.LedgerRow) []models.LedgerRow {
	out := make([]models.LedgerRow, len(rows))
	for i, r := range rows {
		out[i] = models.LedgerRow{
			Index:        r.Index,
			StepStart:    r.StepStart,
			StepEnd:      r.StepEnd,
			Plot:         r.Plot,
			NetLoadKW:    r.NetLoadKW,
			Price:        r.Price,
			Tier:         r.Tier,
			Action:       string(r.Action),
			GridImportKW: r.GridImportKW,
			GridExportKW: r.GridExportKW,
			ChargeKW:     r.ChargeKW,
			DischargeKW:  r.DischargeKW,
			StoredKWh:    r.StoredKWh,
			SOC:          r.SOC,
			Cost:         r.Cost,
			BaselineCost: r.BaselineCost,
			CumSavings:   r.CumSavings,
		}
	}
	return out
}
