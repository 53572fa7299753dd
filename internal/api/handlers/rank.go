package handlers

import (
	"net/http"

	"battery-sizing/internal/analysis"
	"battery-sizing/internal/api/models"
	"battery-sizing/internal/strategy"
	"battery-sizing/internal/sweep"
	"battery-sizing/internal/tariff"

	"github.com/gin-gonic/gin"
)

// RankHandler handles ranking-related requests
type RankHandler struct {
	deps Deps
}

// NewRankHandler creates a new rank handler
func NewRankHandler(deps Deps) *RankHandler {
	return &RankHandler{deps: deps}
}

// RankPlots handles POST /api/v1/rank. Each plot is sized on its own, with
// no shared budget, and plots are ordered by annual savings.
func (h *RankHandler) RankPlots(c *gin.Context) {
	var req models.RankRequest
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
	classifier, err := tariff.New(cfg.Pricing)
	if err != nil {
		writeError(c, err)
		return
	}

	opt := strategy.NewLinearProgram(h.deps.optimizerOptions()...)
	results, err := sweep.Plots(c.Request.Context(), opt, plots, cfg, sweep.Options{Workers: h.deps.Workers})
	if err != nil {
		writeError(c, err)
		return
	}

	ranked := analysis.RankBySavings(results)

	// Apply limit
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > len(ranked) {
		limit = len(ranked)
	}
	ranked = ranked[:limit]

	rankings := make([]models.Ranking, len(ranked))
	for i, r := range ranked {
		rankings[i] = models.Ranking{
			Rank:               i + 1,
			Plot:               r.Plot,
			BatteryCapacityKWh: r.BatteryCapacity,
			AnnualSavings:      r.AnnualSavings,
			PaybackPeriod:      r.PaybackPeriod,
			NPV:                r.NPV,
			Profile:            analysis.Profile(r.Plot, plots[r.Plot], classifier, cfg.DecisionStep),
		}
	}

	c.JSON(http.StatusOK, models.RankResponse{Rankings: rankings})
}
