package handlers

import (
	"net/http"
	"time"

	"battery-sizing/internal/api/models"
	"battery-sizing/internal/strategy"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MultiPlotHandler handles shared-budget allocation requests
type MultiPlotHandler struct {
	deps Deps
}

// NewMultiPlotHandler creates a new multi-plot handler
func NewMultiPlotHandler(deps Deps) *MultiPlotHandler {
	return &MultiPlotHandler{deps: deps}
}

// Allocate handles POST /api/v1/optimize/multi
func (h *MultiPlotHandler) Allocate(c *gin.Context) {
	var req models.MultiPlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}

	_, cfg, err := buildConfig(req.Config, h.deps.BatteryDir)
	if err != nil {
		writeError(c, err)
		return
	}
	plots, err := loadSeries(req.Data, h.deps.CatalogFile)
	if err != nil {
		writeError(c, err)
		return
	}

	opt := strategy.NewMultiPlot(req.BudgetKWh, h.deps.optimizerOptions()...)
	opt.Force = req.Force
	opt.PlotMax = req.PlotMax
	result, err := opt.OptimizeMultiPlots(c.Request.Context(), plots, cfg)
	if err != nil {
		h.deps.logger().Warn("allocation failed", zap.Int("plots", len(plots)), zap.Error(err))
		writeError(c, err)
		return
	}

	response := models.MultiPlotResponse{
		Status:        "completed",
		BudgetKWh:     result.Budget,
		Forced:        result.Forced,
		Allocation:    result.Allocation,
		TotalCapacity: result.TotalCapacity,
		TotalCost:     result.TotalCost,
		AnnualSavings: result.AnnualSavings,
		SolveTimeMS:   float64(result.SolveTime) / float64(time.Millisecond),
		Metrics:       result.Metrics,
	}
	for _, id := range result.Allocation.Plots() {
		if r := result.Plots[id]; r != nil {
			response.Plots = append(response.Plots, summarize(r))
		}
	}
	c.JSON(http.StatusOK, response)
}
