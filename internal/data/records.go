// Package data loads net-load inputs from CSV and JSON and prepares them for
// the optimizers.
package data

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"battery-sizing/internal/model"
)

// DefaultPlot names records that carry no plot id.
const DefaultPlot = "default"

// Record is one input row: building load and optional PV output, in kW.
type Record struct {
	Plot string    `json:"plot,omitempty"`
	Time time.Time `json:"time"`
	Load float64   `json:"load"`
	PV   *float64  `json:"pv,omitempty"`
}

// Dataset is the JSON input shape.
type Dataset struct {
	Data []Record `json:"data"`
}

func LoadJSON(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseJSON(f)
}

func ParseJSON(r io.Reader) (*Dataset, error) {
	var ds Dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return &ds, nil
}

// GroupByPlot splits records into plot-keyed slices.
func GroupByPlot(records []Record) map[string][]Record {
	out := map[string][]Record{}
	for _, r := range records {
		plot := r.Plot
		if plot == "" {
			plot = DefaultPlot
		}
		out[plot] = append(out[plot], r)
	}
	return out
}

// NetSeries turns records into one net-load series per plot. Within a plot
// either every record has a PV value or none does.
func NetSeries(records []Record) (map[string]model.NetLoadSeries, error) {
	out := map[string]model.NetLoadSeries{}
	for plot, rs := range GroupByPlot(records) {
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].Time.Before(rs[j].Time) })

		load := make(model.NetLoadSeries, len(rs))
		var pv model.NetLoadSeries
		if rs[0].PV != nil {
			pv = make(model.NetLoadSeries, len(rs))
		}
		for i, r := range rs {
			load[i] = model.Point{Time: r.Time, Value: r.Load}
			if (r.PV != nil) != (pv != nil) {
				return nil, &model.DataError{Plot: plot, Index: i, Reason: "pv present on some rows only"}
			}
			if pv != nil {
				pv[i] = model.Point{Time: r.Time, Value: *r.PV}
			}
		}
		net, err := NetProfiles(load, pv)
		if err != nil {
			return nil, fmt.Errorf("plot %s: %w", plot, err)
		}
		out[plot] = net
	}
	return out, nil
}

// Single returns the only series of a dataset.
func Single(series map[string]model.NetLoadSeries) (model.NetLoadSeries, error) {
	if len(series) != 1 {
		return nil, &model.DataError{Index: -1, Reason: fmt.Sprintf("expected one plot, found %d", len(series))}
	}
	for _, s := range series {
		return s, nil
	}
	return nil, nil
}
