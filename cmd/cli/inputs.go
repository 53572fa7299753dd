package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"battery-sizing/internal/config"
	"battery-sizing/internal/data"
	"battery-sizing/internal/model"

	"github.com/samber/lo"
)

// loadInputs reads the config (defaults when cfgPath is empty) and the
// net-load series of every plot in dataPath.
func loadInputs(dataPath, cfgPath string) (*config.Config, model.OptimizerConfig, map[string]model.NetLoadSeries, error) {
	file := config.Defaults()
	fc := &file
	if cfgPath != "" {
		c, err := config.Load(cfgPath)
		if err != nil {
			return nil, model.OptimizerConfig{}, nil, fmt.Errorf("load config: %w", err)
		}
		fc = c
	}
	cfg, err := model.NewOptimizerConfig(fc.ToModel())
	if err != nil {
		return nil, model.OptimizerConfig{}, nil, err
	}
	plots, err := data.Load(dataPath, data.DefaultColumns)
	if err != nil {
		return nil, model.OptimizerConfig{}, nil, fmt.Errorf("load data: %w", err)
	}
	return fc, cfg, plots, nil
}

// selectPlot returns the named plot, or the only plot when id is empty.
func selectPlot(plots map[string]model.NetLoadSeries, id string) (string, model.NetLoadSeries, error) {
	if id != "" {
		s, ok := plots[id]
		if !ok {
			return "", nil, &model.DataError{Plot: id, Index: -1, Reason: "plot not found in data"}
		}
		return id, s, nil
	}
	if len(plots) == 1 {
		for id, s := range plots {
			return id, s, nil
		}
	}
	ids := lo.Keys(plots)
	sort.Strings(ids)
	return "", nil, &model.DataError{Index: -1, Reason: fmt.Sprintf("data holds %d plots (%s); pick one with --plot", len(ids), strings.Join(ids, ", "))}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// fmtOpt formats an optional metric, "n/a" when undefined.
func fmtOpt(v *float64, format string) string {
	if v == nil || math.IsNaN(*v) {
		return "n/a"
	}
	return fmt.Sprintf(format, *v)
}
