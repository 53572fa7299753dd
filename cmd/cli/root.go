package main

import (
	"battery-sizing/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	logLevel   string
	jsonOutput bool
}

// logger writes to stderr so stdout stays parseable.
func (o *rootOptions) logger() (*zap.Logger, error) {
	return logging.New(o.logLevel, "stderr")
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "battery-sizing",
		Short: "Size and dispatch batteries against net-load data",
		Long: `battery-sizing picks the battery capacity and the charge/discharge schedule
that minimize total cost (capital plus electricity) for one or more plots.

Input data is a CSV with time, load and optional pv and plot columns, or a
JSON document {"data": [{"plot", "time", "load", "pv"}]}. Configuration is
YAML; see examples/config.yaml.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&o.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&o.jsonOutput, "json", false, "Output JSON instead of human-readable text")

	cmd.AddCommand(
		newOptimizeCmd(o),
		newMultiCmd(o),
		newSweepCmd(o),
		newRankCmd(o),
		newMetricsCmd(o),
		newCatalogCmd(o),
	)
	return cmd
}
