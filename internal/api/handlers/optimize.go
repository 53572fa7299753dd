package handlers

import (
	"fmt"
	"net/http"

	"battery-sizing/internal/analysis"
	"battery-sizing/internal/api/cache"
	"battery-sizing/internal/api/models"
	"battery-sizing/internal/model"
	"battery-sizing/internal/report"
	"battery-sizing/internal/strategy"
	"battery-sizing/internal/sweep"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxSweepCases caps the number of solves one sweep request may start.
const maxSweepCases = 200

// OptimizeHandler handles single-plot sizing requests
type OptimizeHandler struct {
	deps Deps
}

// NewOptimizeHandler creates a new optimize handler
func NewOptimizeHandler(deps Deps) *OptimizeHandler {
	return &OptimizeHandler{deps: deps}
}

// Optimize handles POST /api/v1/optimize
func (h *OptimizeHandler) Optimize(c *gin.Context) {
	var req models.OptimizeRequest
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
	plot, series, err := pickSeries(plots, req.Plot)
	if err != nil {
		writeError(c, err)
		return
	}

	opt := strategy.NewLinearProgram(h.deps.optimizerOptions()...)
	var result *model.OptimizationResult
	if capacity := req.Options.CapacityKWh; capacity != nil {
		result, err = opt.OptimizeDispatch(c.Request.Context(), series, cfg, *capacity)
	} else {
		result, err = opt.Optimize(c.Request.Context(), series, cfg)
	}
	if err != nil {
		h.deps.logger().Warn("optimize failed", zap.String("plot", plot), zap.Error(err))
		writeError(c, err)
		return
	}
	result.Plot = plot

	response := models.OptimizeResponse{
		Status:  "completed",
		Summary: summarize(result),
		KPIs:    analysis.ComputeKPIs(result, cfg),
	}
	if h.deps.Cache != nil {
		id, err := cache.Key(cfg, plot, series, req.Options.CapacityKWh)
		if err != nil {
			h.deps.logger().Warn("cache key", zap.Error(err))
		} else {
			h.deps.Cache.Set(id, result, cfg)
			response.ID = id
		}
	}
	if req.Options.IncludeLedger {
		response.Ledger = toLedger(report.BuildLedger(result, cfg))
	}
	if req.Options.IncludeSeries {
		response.Result = result
	}
	c.JSON(http.StatusOK, response)
}

// GetLedger handles GET /api/v1/optimize/:id/ledger. ?format=csv returns
// the ledger as CSV.
func (h *OptimizeHandler) GetLedger(c *gin.Context) {
	if h.deps.Cache == nil {
		c.JSON(http.StatusNotImplemented, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "RESULT_CACHE_DISABLED",
				Message: "Result caching is disabled. Use include_ledger=true in the optimize request.",
			},
		})
		return
	}

	id := c.Param("id")
	entry, ok := h.deps.Cache.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "NOT_FOUND",
				Message: fmt.Sprintf("no cached result with id %s", id),
			},
		})
		return
	}

	ledger := report.BuildLedger(entry.Result, entry.Config)
	if c.Query("format") == "csv" {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".csv"))
		c.Status(http.StatusOK)
		if err := report.WriteLedger(c.Writer, ledger); err != nil {
			h.deps.logger().Error("write ledger csv", zap.String("id", id), zap.Error(err))
		}
		return
	}
	c.JSON(http.StatusOK, models.LedgerResponse{ID: id, Ledger: toLedger(ledger)})
}

// Sweep handles POST /api/v1/optimize/sweep
func (h *OptimizeHandler) Sweep(c *gin.Context) {
	var req models.SweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}

	values := req.Values
	if len(values) == 0 && req.Range != nil {
		var err error
		values, err = sweep.Range(req.Range.From, req.Range.To, req.Range.Step)
		if err != nil {
			badRequest(c, "INVALID_RANGE", err)
			return
		}
	}
	if len(values) == 0 {
		badRequest(c, "INVALID_REQUEST", fmt.Errorf("values or range is required"))
		return
	}
	if len(values) > maxSweepCases {
		badRequest(c, "TOO_MANY_CASES", fmt.Errorf("%d cases requested, limit is %d", len(values), maxSweepCases))
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
	_, series, err := pickSeries(plots, req.Plot)
	if err != nil {
		writeError(c, err)
		return
	}

	var cases []sweep.Case
	switch req.Parameter {
	case "battery_cost":
		cases = sweep.BatteryCostCases(cfg, values)
	case "max_capacity":
		cases = sweep.MaxCapacityCases(cfg, values)
	case "sell_ratio":
		cases = sweep.SellRatioCases(cfg, values)
	}

	opt := strategy.NewLinearProgram(h.deps.optimizerOptions()...)
	outcomes, err := sweep.Run(c.Request.Context(), opt, series, cases, sweep.Options{Workers: h.deps.Workers})
	if err != nil {
		writeError(c, err)
		return
	}

	response := models.SweepResponse{Parameter: req.Parameter, Cases: make([]models.SweepCase, len(outcomes))}
	for i, o := range outcomes {
		sc := models.SweepCase{Label: o.Case.Label, Value: o.Case.Value}
		if o.Err != nil {
			_, detail := errorDetail(o.Err)
			sc.Error = &detail
		} else {
			s := summarize(o.Result)
			sc.Summary = &s
		}
		response.Cases[i] = sc
	}
	c.JSON(http.StatusOK, response)
}
