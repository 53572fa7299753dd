package main

import (
	"fmt"

	"battery-sizing/internal/analysis"
	"battery-sizing/internal/strategy"
	"battery-sizing/internal/sweep"
	"battery-sizing/internal/tariff"

	"github.com/spf13/cobra"
)

type rankRow struct {
	Rank int `json:"rank"`
	analysis.RankedPlot
	Profile analysis.LoadProfile `json:"profile"`
}

func newRankCmd(root *rootOptions) *cobra.Command {
	var (
		dataPath string
		cfgPath  string
		limit    int
		workers  int
	)
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Size every plot on its own and rank plots by annual savings",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, cfg, plots, err := loadInputs(dataPath, cfgPath)
			if err != nil {
				return err
			}
			classifier, err := tariff.New(cfg.Pricing)
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

			bar := newBar(len(plots), cmd.ErrOrStderr(), root.jsonOutput)
			results, err := sweep.Plots(cmd.Context(), opt, plots, cfg, sweep.Options{
				Workers:  workers,
				Progress: func() { bar.Increment() },
			})
			bar.Finish()
			if err != nil {
				return err
			}

			ranked := analysis.RankBySavings(results)
			if limit > 0 && limit < len(ranked) {
				ranked = ranked[:limit]
			}
			rows := make([]rankRow, len(ranked))
			for i, r := range ranked {
				rows[i] = rankRow{
					Rank:       i + 1,
					RankedPlot: r,
					Profile:    analysis.Profile(r.Plot, plots[r.Plot], classifier, cfg.DecisionStep),
				}
			}

			if root.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), rows)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-4s %-18s %-14s %-14s %-10s %-14s %-10s\n", "rank", "plot", "capacity_kwh", "savings/yr", "payback", "npv", "p95_kw")
			for _, r := range rows {
				fmt.Fprintf(w, "%-4d %-18s %-14.3f %-14.2f %-10s %-14.2f %-10.2f\n",
					r.Rank, r.Plot, r.BatteryCapacity, r.AnnualSavings, fmtOpt(r.PaybackPeriod, "%.2f"), r.NPV, r.Profile.P95KW)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "", "Path to a CSV or JSON file with a plot column")
	cmd.Flags().StringVar(&cfgPath, "config", "", "Path to YAML config (defaults when empty)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Show only the top N plots (0 = all)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent solves (0 = GOMAXPROCS)")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}
