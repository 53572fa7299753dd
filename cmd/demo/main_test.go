package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"battery-sizing/internal/data"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntheticDay(t *testing.T) {
	start := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)
	records := syntheticDay(start, 15*time.Minute, 2)
	require.Len(t, records, 2*96)

	series, err := data.NetSeries(records)
	require.NoError(t, err)
	require.Len(t, series, 2)
	require.NoError(t, series[plotID(0)].Validate(0.25))

	// Midday PV exceeds the first plot's load; the evening does not.
	noon := series[plotID(0)][48].Value
	evening := series[plotID(0)][76].Value
	assert.Less(t, noon, 0.0)
	assert.Greater(t, evening, 0.0)
}

func TestDemoRuns(t *testing.T) {
	dir := t.TempDir()
	dataOut := filepath.Join(dir, "demo.json")

	cmd := newDemoCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--plots", "1", "--step", "60", "--n", "3", "--data-out", dataOut, "--out", filepath.Join(dir, "ledger.csv")})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Plot plot-01: 24 steps of 60 min")
	assert.Contains(t, out.String(), "Done.")

	plots, err := data.Load(dataOut, data.DefaultColumns)
	require.NoError(t, err)
	require.Contains(t, plots, plotID(0))
	assert.Len(t, plots[plotID(0)], 24)
}
