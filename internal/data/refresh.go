package data

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/robfig/cron/v3"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// CatalogRefresher rebuilds the catalog file from the datasets in Dir.
type CatalogRefresher struct {
	Dir         string
	CatalogFile string
	Columns     Columns
	Log         *zap.Logger
}

func (r CatalogRefresher) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

// Refresh scans Dir and writes the catalog. Files that fail to load are
// returned in skipped; the catalog file itself is never reported.
func (r CatalogRefresher) Refresh() (*Catalog, map[string]error, error) {
	c, skipped, err := Scan(r.Dir, r.Columns)
	if err != nil {
		return nil, nil, fmt.Errorf("scan %s: %w", r.Dir, err)
	}
	delete(skipped, filepath.Clean(r.CatalogFile))

	paths := lo.Keys(skipped)
	sort.Strings(paths)
	for _, p := range paths {
		r.logger().Warn("skipped dataset", zap.String("path", p), zap.Error(skipped[p]))
	}
	if err := SaveCatalog(c, r.CatalogFile); err != nil {
		return nil, nil, err
	}
	r.logger().Info("catalog refreshed", zap.String("file", r.CatalogFile), zap.Int("datasets", len(c.Datasets)))
	return c, skipped, nil
}

// Run refreshes once, then on the cron schedule until ctx is done. Failed
// scheduled refreshes are logged and the previous catalog stays in place.
func (r CatalogRefresher) Run(ctx context.Context, schedule string) error {
	if _, _, err := r.Refresh(); err != nil {
		return err
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		if _, _, err := r.Refresh(); err != nil {
			r.logger().Error("catalog refresh failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("catalog schedule %q: %w", schedule, err)
	}
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
