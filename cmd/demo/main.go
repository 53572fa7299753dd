package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"battery-sizing/internal/config"
	"battery-sizing/internal/data"
	"battery-sizing/internal/model"
	"battery-sizing/internal/report"
	"battery-sizing/internal/strategy"

	"github.com/spf13/cobra"
)

// Demo:
// - Build a synthetic July day (building load plus rooftop PV) for a few plots
// - Size and dispatch a battery for the first plot
// - Print the first ledger rows to show how the pieces fit together
func main() {
	if err := newDemoCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newDemoCmd() *cobra.Command {
	var (
		cfgPath  string
		plots    int
		n        int
		outCSV   string
		dataOut  string
		stepMins int
	)
	cmd := &cobra.Command{
		Use:          "demo",
		Short:        "Optimize a battery for a synthetic day of load and PV",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := model.DefaultConfig()
			// One day is too short to carry the full capital cost.
			cfg.AnnualizeCapital = true
			if cfgPath != "" {
				c, err := config.Load(cfgPath)
				if err != nil {
					return err
				}
				cfg = c.ToModel()
			}
			cfg.DecisionStep = float64(stepMins) / 60

			start := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)
			records := syntheticDay(start, time.Duration(stepMins)*time.Minute, plots)
			if dataOut != "" {
				if err := writeDataset(dataOut, records); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d records to %s\n", len(records), dataOut)
			}

			series, err := data.NetSeries(records)
			if err != nil {
				return err
			}
			plot := plotID(0)
			r, err := strategy.NewLinearProgram().Optimize(cmd.Context(), series[plot], cfg)
			if err != nil {
				return err
			}
			r.Plot = plot
			ledger := report.BuildLedger(r, cfg)

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Plot %s: %d steps of %d min\n", plot, len(ledger), stepMins)
			fmt.Fprintf(w, "Strategy=%s  capacity=%.1f kWh\n\n", r.Strategy, r.BatteryCapacity)
			for i := 0; i < min(n, len(ledger)); i++ {
				row := ledger[i]
				fmt.Fprintf(w,
					"%s net=%7.2f  price=%.3f %-6s  action=%-11s  ch=%6.2f  dis=%6.2f  soc=%.3f  cum=%8.2f\n",
					row.StepStart.Format("2006-01-02 15:04"),
					row.NetLoadKW,
					row.Price,
					row.Tier,
					string(row.Action),
					row.ChargeKW,
					row.DischargeKW,
					row.SOC,
					row.CumSavings,
				)
			}

			if outCSV != "" {
				if err := os.MkdirAll(filepath.Dir(outCSV), 0o755); err != nil {
					return err
				}
				if err := report.WriteLedgerCSV(outCSV, ledger); err != nil {
					return err
				}
				fmt.Fprintf(w, "\nWrote CSV: %s\n", outCSV)
			}

			fmt.Fprintf(w, "\nDone. Cost %.2f vs baseline %.2f  savings=%.2f/yr\n", r.TotalCost, r.BaselineCost, r.AnnualSavings)
			return nil
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "", "Path to YAML config (optional)")
	cmd.Flags().IntVar(&plots, "plots", 3, "Number of synthetic plots to generate")
	cmd.Flags().IntVar(&n, "n", 12, "Number of ledger rows to print")
	cmd.Flags().StringVar(&outCSV, "out", "", "Optional path to write ledger CSV (e.g. results/ledger.csv)")
	cmd.Flags().StringVar(&dataOut, "data-out", "", "Optional path to write the synthetic dataset as JSON")
	cmd.Flags().IntVar(&stepMins, "step", 15, "Step length in minutes")
	return cmd
}

func plotID(i int) string { return fmt.Sprintf("plot-%02d", i+1) }

// syntheticDay builds one day of load and PV per plot. Plots differ in
// load scale and PV size so the multi-plot and rank commands have
// something to separate.
func syntheticDay(start time.Time, step time.Duration, plots int) []data.Record {
	steps := int(24 * time.Hour / step)
	out := make([]data.Record, 0, steps*plots)
	for p := 0; p < plots; p++ {
		scale := 1 + 0.25*float64(p)
		pvPeak := 120 * (1 - 0.2*float64(p%4))
		for i := 0; i < steps; i++ {
			t := start.Add(time.Duration(i) * step)
			h := float64(t.Hour()) + float64(t.Minute())/60

			// Base load with a morning shoulder and an evening peak.
			load := 40 + 15*math.Exp(-math.Pow(h-9, 2)/4) + 45*math.Exp(-math.Pow(h-19, 2)/3)
			pv := 0.0
			if h > 6 && h < 18 {
				pv = pvPeak * math.Sin(math.Pi*(h-6)/12)
			}
			pv = math.Round(pv*100) / 100
			out = append(out, data.Record{
				Plot: plotID(p),
				Time: t,
				Load: math.Round(load*scale*100) / 100,
				PV:   &pv,
			})
		}
	}
	return out
}

func writeDataset(path string, records []data.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(data.Dataset{Data: records}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
