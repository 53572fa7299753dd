package main

import (
	"fmt"

	"battery-sizing/internal/analysis"
	"battery-sizing/internal/model"

	"github.com/spf13/cobra"
)

func newMetricsCmd(root *rootOptions) *cobra.Command {
	var in analysis.Inputs
	cmd := &cobra.Command{
		Use:     "metrics",
		Short:   "Compute payback, NPV and IRR from scalar inputs",
		Example: "  battery-sizing metrics --cost 120000 --savings 18000 --baseline 90000",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Years <= 0 {
				return &model.ConfigurationError{Field: "years", Reason: fmt.Sprintf("must be > 0, got %d", in.Years)}
			}
			if in.ConstructionCost < 0 || in.DiscountRate < 0 {
				return &model.ConfigurationError{Field: "cost", Reason: "construction cost and discount rate must be >= 0"}
			}
			m := analysis.Compute(in)
			if root.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), m)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-20s %s\n", "payback_years", fmtOpt(m.PaybackPeriod, "%.2f"))
			fmt.Fprintf(w, "%-20s %.2f\n", "npv", m.NPV)
			fmt.Fprintf(w, "%-20s %s\n", "irr_pct", fmtOpt(m.IRR, "%.2f"))
			fmt.Fprintf(w, "%-20s %s\n", "saving_ratio", fmtOpt(m.OperationalCostSavingRatio, "%.4f"))
			fmt.Fprintf(w, "%-20s %.2f\n", "sell_energy_profit", m.SellEnergyProfit)
			return nil
		},
	}
	d := model.DefaultConfig()
	cmd.Flags().Float64Var(&in.ConstructionCost, "cost", 0, "Battery construction cost")
	cmd.Flags().Float64Var(&in.AnnualSavings, "savings", 0, "Annual savings")
	cmd.Flags().Float64Var(&in.BaselineAnnualCost, "baseline", 0, "Annual electricity cost without a battery")
	cmd.Flags().IntVar(&in.Years, "years", d.Years, "Project lifetime in years")
	cmd.Flags().Float64Var(&in.DiscountRate, "rate", d.DiscountRate, "Discount rate for NPV")
	cmd.Flags().Float64Var(&in.SellEnergyProfit, "sell-profit", 0, "Export revenue to report alongside")
	return cmd
}
