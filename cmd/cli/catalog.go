package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"battery-sizing/internal/data"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func newCatalogCmd(root *rootOptions) *cobra.Command {
	var (
		dir     string
		outPath string
	)
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Scan a data directory and write the dataset catalog served by the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if outPath == "" {
				outPath = filepath.Join(dir, "catalog.json")
			}
			log, err := root.logger()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			r := data.CatalogRefresher{Dir: dir, CatalogFile: outPath, Columns: data.DefaultColumns, Log: log}
			c, skipped, err := r.Refresh()
			if err != nil {
				return err
			}
			paths := lo.Keys(skipped)
			sort.Strings(paths)
			for _, p := range paths {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %v\n", p, skipped[p])
			}

			if root.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), c)
			}
			w := cmd.OutOrStdout()
			for _, d := range c.Datasets {
				fmt.Fprintf(w, "%-24s steps=%-6d plots=%-4d %s\n", d.ID, d.Steps, len(d.Plots), d.Path)
			}
			fmt.Fprintf(w, "Wrote %d datasets to %s\n", len(c.Datasets), outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "./data", "Directory of CSV and JSON datasets")
	cmd.Flags().StringVar(&outPath, "out", "", "Catalog path (default <dir>/catalog.json)")
	return cmd
}
