package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"battery-sizing/internal/model"
)

// Columns selects the CSV columns to read. Plot and PV are optional.
type Columns struct {
	Time string
	Load string
	PV   string
	Plot string
}

// DefaultColumns matches the headers written by the demo and the ledger.
var DefaultColumns = Columns{Time: "time", Load: "load", PV: "pv", Plot: "plot"}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006-01-02T15:04:05",
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

func LoadCSV(path string, cols Columns) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f, cols)
}

// ReadCSV reads records with a header row. Missing optional columns are
// ignored; a missing time or load column is an error.
func ReadCSV(r io.Reader, cols Columns) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	timeCol, ok := idx[cols.Time]
	if !ok {
		return nil, fmt.Errorf("missing time column %q", cols.Time)
	}
	loadCol, ok := idx[cols.Load]
	if !ok {
		return nil, fmt.Errorf("missing load column %q", cols.Load)
	}
	pvCol, hasPV := idx[cols.PV]
	plotCol, hasPlot := idx[cols.Plot]

	var out []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ts, err := parseTime(row[timeCol])
		if err != nil {
			return nil, &model.DataError{Index: line - 2, Reason: err.Error()}
		}
		load, err := strconv.ParseFloat(strings.TrimSpace(row[loadCol]), 64)
		if err != nil {
			return nil, &model.DataError{Index: line - 2, Reason: fmt.Sprintf("load: %v", err)}
		}
		rec := Record{Time: ts, Load: load}
		if hasPV && strings.TrimSpace(row[pvCol]) != "" {
			pv, err := strconv.ParseFloat(strings.TrimSpace(row[pvCol]), 64)
			if err != nil {
				return nil, &model.DataError{Index: line - 2, Reason: fmt.Sprintf("pv: %v", err)}
			}
			rec.PV = &pv
		}
		if hasPlot {
			rec.Plot = strings.TrimSpace(row[plotCol])
		}
		out = append(out, rec)
	}
	return out, nil
}

// Load reads a CSV or JSON file, chosen by extension, into net-load series.
func Load(path string, cols Columns) (map[string]model.NetLoadSeries, error) {
	var records []Record
	if strings.EqualFold(filepath.Ext(path), ".json") {
		ds, err := LoadJSON(path)
		if err != nil {
			return nil, err
		}
		records = ds.Data
	} else {
		rs, err := LoadCSV(path, cols)
		if err != nil {
			return nil, err
		}
		records = rs
	}
	if len(records) == 0 {
		return nil, &model.DataError{Index: -1, Reason: fmt.Sprintf("%s has no rows", path)}
	}
	return NetSeries(records)
}
