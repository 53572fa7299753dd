package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"battery-sizing/internal/analysis"
	"battery-sizing/internal/model"
	"battery-sizing/internal/report"
	"battery-sizing/internal/strategy"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// dispatcher is implemented by optimizers that can schedule a fixed size.
type dispatcher interface {
	OptimizeDispatch(ctx context.Context, series model.NetLoadSeries, cfg model.OptimizerConfig, capacity float64) (*model.OptimizationResult, error)
}

type optimizeOutput struct {
	Result *model.OptimizationResult `json:"result"`
	KPIs   analysis.SystemKPIs       `json:"kpis"`
}

func newOptimizeCmd(root *rootOptions) *cobra.Command {
	var (
		dataPath string
		cfgPath  string
		plot     string
		outPath  string
		capacity float64
	)
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Size and dispatch a battery for one plot",
		Long: `Solve the joint sizing and dispatch problem for one plot.

With --capacity the battery size is fixed and only the schedule is optimized.
With --out the per-step ledger is written as CSV.`,
		Example: "  battery-sizing optimize --data data/site.csv --config examples/config.yaml --out results/ledger.csv",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, cfg, plots, err := loadInputs(dataPath, cfgPath)
			if err != nil {
				return err
			}
			id, series, err := selectPlot(plots, plot)
			if err != nil {
				return err
			}
			log, err := root.logger()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			opt, err := strategy.New(file.Strategy.Name, strategy.WithLogger(log))
			if err != nil {
				return err
			}
			var r *model.OptimizationResult
			if cmd.Flags().Changed("capacity") {
				d, ok := opt.(dispatcher)
				if !ok {
					return fmt.Errorf("optimizer %s cannot run with a fixed capacity", opt.Name())
				}
				r, err = d.OptimizeDispatch(cmd.Context(), series, cfg, capacity)
			} else {
				r, err = opt.Optimize(cmd.Context(), series, cfg)
			}
			if err != nil {
				return err
			}
			r.Plot = id
			log.Info("optimized", zap.String("plot", id), zap.Float64("capacity_kwh", r.BatteryCapacity), zap.Duration("solve_time", r.SolveTime))

			if outPath != "" {
				if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
					return err
				}
				ledger := report.BuildLedger(r, cfg)
				if err := report.WriteLedgerCSV(outPath, ledger); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d rows to %s\n", len(ledger), outPath)
			}

			kpis := analysis.ComputeKPIs(r, cfg)
			if root.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), optimizeOutput{Result: r, KPIs: kpis})
			}
			printResult(cmd, r, kpis)
			return nil
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "", "Path to a CSV or JSON net-load file")
	cmd.Flags().StringVar(&cfgPath, "config", "", "Path to YAML config (defaults when empty)")
	cmd.Flags().StringVar(&plot, "plot", "", "Plot to optimize when the data holds several")
	cmd.Flags().StringVar(&outPath, "out", "", "Optional path to write the ledger CSV")
	cmd.Flags().Float64Var(&capacity, "capacity", 0, "Fix the battery capacity in kWh and optimize dispatch only")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func printResult(cmd *cobra.Command, r *model.OptimizationResult, k analysis.SystemKPIs) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-26s %s\n", "plot", r.Plot)
	fmt.Fprintf(w, "%-26s %s\n", "strategy", r.Strategy)
	fmt.Fprintf(w, "%-26s %.3f\n", "battery_capacity_kwh", r.BatteryCapacity)
	fmt.Fprintf(w, "%-26s %.2f\n", "total_cost", r.TotalCost)
	fmt.Fprintf(w, "%-26s %.2f\n", "capital_cost", r.CapitalCost)
	fmt.Fprintf(w, "%-26s %.2f\n", "operating_cost", r.OperatingCost)
	fmt.Fprintf(w, "%-26s %.2f\n", "baseline_cost", r.BaselineCost)
	fmt.Fprintf(w, "%-26s %.2f\n", "annual_savings", r.AnnualSavings)
	fmt.Fprintf(w, "%-26s %.2f\n", "construction_cost", r.BatteryConstructionCost)
	fmt.Fprintf(w, "%-26s %s\n", "payback_years", fmtOpt(r.Metrics.PaybackPeriod, "%.2f"))
	fmt.Fprintf(w, "%-26s %.2f\n", "npv", r.Metrics.NPV)
	fmt.Fprintf(w, "%-26s %s\n", "irr_pct", fmtOpt(r.Metrics.IRR, "%.2f"))
	fmt.Fprintf(w, "%-26s %s\n", "saving_ratio", fmtOpt(r.Metrics.OperationalCostSavingRatio, "%.4f"))
	fmt.Fprintf(w, "%-26s %s\n", "self_sufficiency", fmtOpt(k.SelfSufficiency, "%.4f"))
	fmt.Fprintf(w, "%-26s %s\n", "equivalent_full_cycles", fmtOpt(k.EquivalentFullCycles, "%.2f"))
	fmt.Fprintf(w, "%-26s %s\n", "solve_time", r.SolveTime)
}
