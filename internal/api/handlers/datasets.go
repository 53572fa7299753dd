package handlers

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"sort"

	"battery-sizing/internal/analysis"
	"battery-sizing/internal/api/models"
	"battery-sizing/internal/data"
	"battery-sizing/internal/model"
	"battery-sizing/internal/tariff"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// DatasetHandler serves the dataset catalog
type DatasetHandler struct {
	catalogFile string
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(catalogFile string) *DatasetHandler {
	return &DatasetHandler{catalogFile: catalogFile}
}

// ListDatasets handles GET /api/v1/datasets
func (h *DatasetHandler) ListDatasets(c *gin.Context) {
	catalog, err := data.LoadCatalog(h.catalogFile)
	if err != nil {
		// A missing catalog is an empty one.
		if errors.Is(err, fs.ErrNotExist) {
			c.JSON(http.StatusOK, models.DatasetResponse{Datasets: []data.DatasetInfo{}})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "CATALOG_LOAD_ERROR",
				Message: fmt.Sprintf("Failed to load catalog: %v", err),
			},
		})
		return
	}

	datasets := catalog.Datasets
	if datasets == nil {
		datasets = []data.DatasetInfo{}
	}
	c.JSON(http.StatusOK, models.DatasetResponse{
		Datasets:  datasets,
		UpdatedAt: catalog.UpdatedAt,
		Count:     len(datasets),
	})
}

// GetProfile handles GET /api/v1/datasets/:id/profile. Prices use the
// default seasonal tariff.
func (h *DatasetHandler) GetProfile(c *gin.Context) {
	id := c.Param("id")
	info, err := findDataset(h.catalogFile, id)
	if err != nil {
		var dataErr *model.DataError
		if errors.As(err, &dataErr) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    "NOT_FOUND",
					Message: err.Error(),
				},
			})
			return
		}
		writeError(c, err)
		return
	}

	plots, err := data.Load(info.Path, data.DefaultColumns)
	if err != nil {
		writeError(c, err)
		return
	}
	cfg := model.DefaultConfig()
	classifier, err := tariff.New(cfg.Pricing)
	if err != nil {
		writeError(c, err)
		return
	}
	step := info.StepHours
	if step <= 0 {
		step = cfg.DecisionStep
	}

	ids := lo.Keys(plots)
	sort.Strings(ids)
	profiles := make([]analysis.LoadProfile, 0, len(ids))
	for _, plot := range ids {
		profiles = append(profiles, analysis.Profile(plot, plots[plot], classifier, step))
	}
	c.JSON(http.StatusOK, models.ProfileResponse{Dataset: id, Profiles: profiles})
}
