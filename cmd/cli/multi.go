package main

import (
	"fmt"
	"strconv"

	"battery-sizing/internal/model"
	"battery-sizing/internal/strategy"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMultiCmd(root *rootOptions) *cobra.Command {
	var (
		dataPath string
		cfgPath  string
		budget   float64
		force    bool
		plotMax  map[string]string
	)
	cmd := &cobra.Command{
		Use:   "multi",
		Short: "Split a capacity budget across the plots in one data file",
		Long: `Solve every plot jointly under one total capacity budget.

--budget, --force and --plot-max default to strategy.budget_kwh,
strategy.force and strategy.plot_max from the config.`,
		Example: "  battery-sizing multi --data data/plots.csv --budget 500 --plot-max a=200,b=400",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, cfg, plots, err := loadInputs(dataPath, cfgPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("budget") {
				budget = file.Strategy.BudgetKWh
			}
			if !flags.Changed("force") {
				force = file.Strategy.Force
			}
			caps := file.Strategy.PlotMax
			if flags.Changed("plot-max") {
				if caps, err = parsePlotMax(plotMax); err != nil {
					return err
				}
			}

			log, err := root.logger()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			m := strategy.NewMultiPlot(budget, strategy.WithLogger(log))
			m.Force = force
			m.PlotMax = caps
			res, err := m.OptimizeMultiPlots(cmd.Context(), plots, cfg)
			if err != nil {
				return err
			}
			log.Info("allocated", zap.Int("plots", len(plots)), zap.Float64("total_capacity_kwh", res.TotalCapacity))

			if root.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			printAllocation(cmd, res)
			return nil
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "", "Path to a CSV or JSON file with a plot column")
	cmd.Flags().StringVar(&cfgPath, "config", "", "Path to YAML config (defaults when empty)")
	cmd.Flags().Float64Var(&budget, "budget", 0, "Total capacity budget in kWh")
	cmd.Flags().BoolVar(&force, "force", false, "Require the allocation to use the whole budget")
	cmd.Flags().StringToStringVar(&plotMax, "plot-max", nil, "Per-plot capacity caps in kWh, e.g. a=100,b=50")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func parsePlotMax(in map[string]string) (map[string]float64, error) {
	out := make(map[string]float64, len(in))
	for id, s := range in {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, &model.ConfigurationError{Field: "plot_max", Reason: fmt.Sprintf("plot %s: %v", id, err)}
		}
		out[id] = v
	}
	return out, nil
}

func printAllocation(cmd *cobra.Command, res *model.MultiPlotResult) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-18s %-14s %-14s %-10s\n", "plot", "capacity_kwh", "savings/yr", "payback")
	for _, id := range res.Allocation.Plots() {
		r := res.Plots[id]
		fmt.Fprintf(w, "%-18s %-14.3f %-14.2f %-10s\n", id, res.Allocation[id], r.AnnualSavings, fmtOpt(r.Metrics.PaybackPeriod, "%.2f"))
	}
	fmt.Fprintf(w, "\nbudget %.3f kWh, allocated %.3f kWh, total cost %.2f, savings %.2f/yr, payback %s\n",
		res.Budget, res.TotalCapacity, res.TotalCost, res.AnnualSavings, fmtOpt(res.Metrics.PaybackPeriod, "%.2f"))
}
