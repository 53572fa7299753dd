package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

// DatasetInfo describes one input file.
type DatasetInfo struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Format    string    `json:"format"` // "csv" or "json"
	Plots     []string  `json:"plots"`
	Steps     int       `json:"steps"`
	StepHours float64   `json:"step_hours"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

// Catalog is the on-disk index of available datasets.
type Catalog struct {
	UpdatedAt string        `json:"updated_at"` // ISO 8601 timestamp
	Datasets  []DatasetInfo `json:"datasets"`
}

// Find returns the dataset with the given id.
func (c *Catalog) Find(id string) (DatasetInfo, bool) {
	for _, d := range c.Datasets {
		if d.ID == id {
			return d, true
		}
	}
	return DatasetInfo{}, false
}

// LoadCatalog loads a catalog from a JSON file
func LoadCatalog(filePath string) (*Catalog, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var c Catalog
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	return &c, nil
}

// SaveCatalog saves a catalog to a JSON file
func SaveCatalog(c *Catalog, filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	raw, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	if err := os.WriteFile(filePath, raw, 0644); err != nil {
		return fmt.Errorf("failed to write catalog file: %w", err)
	}

	return nil
}

// Describe loads a dataset file and summarizes it. The id is the file name
// without extension, slugified so it is safe in URLs.
func Describe(path string, cols Columns) (DatasetInfo, error) {
	series, err := Load(path, cols)
	if err != nil {
		return DatasetInfo{}, err
	}
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	info := DatasetInfo{
		ID:     slug.Make(strings.TrimSuffix(base, ext)),
		Path:   path,
		Format: strings.ToLower(strings.TrimPrefix(ext, ".")),
	}
	for plot, s := range series {
		info.Plots = append(info.Plots, plot)
		if info.Steps == 0 || len(s) > info.Steps {
			info.Steps = len(s)
			info.Start = s[0].Time
			info.End = s[len(s)-1].Time
			if len(s) > 1 {
				info.StepHours = s[1].Time.Sub(s[0].Time).Hours()
			}
		}
	}
	sort.Strings(info.Plots)
	return info, nil
}

// Scan describes every CSV and JSON file directly under dir. Files that fail
// to load are reported in skipped and left out of the catalog.
func Scan(dir string, cols Columns) (*Catalog, map[string]error, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	c := &Catalog{UpdatedAt: time.Now().UTC().Format(time.RFC3339)}
	skipped := map[string]error{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".csv", ".json":
		default:
			continue
		}
		path := filepath.Join(dir, e.Name())
		info, err := Describe(path, cols)
		if err != nil {
			skipped[path] = err
			continue
		}
		c.Datasets = append(c.Datasets, info)
	}
	sort.Slice(c.Datasets, func(i, j int) bool { return c.Datasets[i].ID < c.Datasets[j].ID })
	return c, skipped, nil
}
