package main

import (
	"fmt"
	"io"

	"battery-sizing/internal/model"
	"battery-sizing/internal/strategy"
	"battery-sizing/internal/sweep"

	"github.com/spf13/cobra"
	"gopkg.in/cheggaaa/pb.v1"
)

// sweepParams maps --param values to their case builders.
var sweepParams = map[string]func(model.OptimizerConfig, []float64) []sweep.Case{
	"battery_cost": sweep.BatteryCostCases,
	"max_capacity": sweep.MaxCapacityCases,
	"sell_ratio":   sweep.SellRatioCases,
}

type sweepRow struct {
	Label              string   `json:"label"`
	Value              float64  `json:"value"`
	BatteryCapacityKWh float64  `json:"battery_capacity_kwh,omitempty"`
	TotalCost          float64  `json:"total_cost,omitempty"`
	AnnualSavings      float64  `json:"annual_savings,omitempty"`
	PaybackPeriod      *float64 `json:"payback_period,omitempty"`
	Error              string   `json:"error,omitempty"`
}

// newBar returns a progress bar on w, or a silent one when quiet.
func newBar(total int, w io.Writer, quiet bool) *pb.ProgressBar {
	bar := pb.New(total)
	bar.ShowTimeLeft = false
	if quiet {
		bar.NotPrint = true
	} else {
		bar.Output = w
	}
	return bar.Start()
}

func newSweepCmd(root *rootOptions) *cobra.Command {
	var (
		dataPath string
		cfgPath  string
		plot     string
		param    string
		values   []float64
		from     float64
		to       float64
		step     float64
		workers  int
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Re-optimize one plot across a grid of parameter values",
		Long: `Run one independent optimization per parameter value on a worker pool.

--param is one of battery_cost, max_capacity or sell_ratio. Values come from
--values or from --from/--to/--step. A failing case is reported and does not
stop the others.`,
		Example: "  battery-sizing sweep --data data/site.csv --param battery_cost --from 100 --to 500 --step 50",
		RunE: func(cmd *cobra.Command, args []string) error {
			build, ok := sweepParams[param]
			if !ok {
				return &model.ConfigurationError{Field: "param", Reason: fmt.Sprintf("unknown sweep parameter %q", param)}
			}
			if len(values) == 0 {
				if !cmd.Flags().Changed("step") {
					return &model.ConfigurationError{Field: "values", Reason: "give --values or --from/--to/--step"}
				}
				var err error
				if values, err = sweep.Range(from, to, step); err != nil {
					return &model.ConfigurationError{Field: "values", Reason: err.Error()}
				}
			}

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

			cases := build(cfg, values)
			bar := newBar(len(cases), cmd.ErrOrStderr(), root.jsonOutput)
			outcomes, err := sweep.Run(cmd.Context(), opt, series, cases, sweep.Options{
				Workers:  workers,
				Progress: func() { bar.Increment() },
			})
			bar.Finish()
			if err != nil {
				return err
			}

			rows := make([]sweepRow, len(outcomes))
			for i, o := range outcomes {
				rows[i] = sweepRow{Label: o.Case.Label, Value: o.Case.Value}
				if o.Err != nil {
					rows[i].Error = o.Err.Error()
					continue
				}
				rows[i].BatteryCapacityKWh = o.Result.BatteryCapacity
				rows[i].TotalCost = o.Result.TotalCost
				rows[i].AnnualSavings = o.Result.AnnualSavings
				rows[i].PaybackPeriod = o.Result.Metrics.PaybackPeriod
			}

			if root.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"plot": id, "parameter": param, "cases": rows})
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-34s %-14s %-14s %-14s %-10s\n", "case", "capacity_kwh", "total_cost", "savings/yr", "payback")
			for _, r := range rows {
				if r.Error != "" {
					fmt.Fprintf(w, "%-34s error: %s\n", r.Label, r.Error)
					continue
				}
				fmt.Fprintf(w, "%-34s %-14.3f %-14.2f %-14.2f %-10s\n", r.Label, r.BatteryCapacityKWh, r.TotalCost, r.AnnualSavings, fmtOpt(r.PaybackPeriod, "%.2f"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "", "Path to a CSV or JSON net-load file")
	cmd.Flags().StringVar(&cfgPath, "config", "", "Path to YAML config (defaults when empty)")
	cmd.Flags().StringVar(&plot, "plot", "", "Plot to sweep when the data holds several")
	cmd.Flags().StringVar(&param, "param", "battery_cost", "Parameter to vary: battery_cost, max_capacity, sell_ratio")
	cmd.Flags().Float64SliceVar(&values, "values", nil, "Explicit parameter values")
	cmd.Flags().Float64Var(&from, "from", 0, "Range start")
	cmd.Flags().Float64Var(&to, "to", 0, "Range end (inclusive)")
	cmd.Flags().Float64Var(&step, "step", 0, "Range step")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent solves (0 = GOMAXPROCS)")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}
