package handlers

import (
	"net/http"
	"time"

	"battery-sizing/internal/analysis"
	"battery-sizing/internal/api/models"
	"battery-sizing/internal/model"
	"battery-sizing/internal/tariff"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// ComputeMetrics handles POST /api/v1/metrics
func ComputeMetrics(c *gin.Context) {
	var req models.MetricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}

	c.JSON(http.StatusOK, analysis.Compute(analysis.Inputs{
		ConstructionCost:   req.ConstructionCost,
		AnnualSavings:      req.AnnualSavings,
		BaselineAnnualCost: req.BaselineAnnualCost,
		Years:              req.Years,
		DiscountRate:       req.DiscountRate,
		SellEnergyProfit:   req.SellEnergyProfit,
	}))
}

// ListTariffs handles GET /api/v1/tariffs
func ListTariffs(c *gin.Context) {
	bands := map[string][]string{}
	for season, tiers := range tariff.Table() {
		bands[season] = lo.Map(tiers, func(t tariff.Tier, _ int) string { return string(t) })
	}

	tiers := model.DefaultConfig().Pricing.Tiers
	months := lo.Filter([]time.Month{
		time.January, time.February, time.March, time.April, time.May, time.June,
		time.July, time.August, time.September, time.October, time.November, time.December,
	}, func(m time.Month, _ int) bool { return tariff.IsSummer(m) })

	c.JSON(http.StatusOK, models.TariffResponse{
		Bands: bands,
		Prices: map[string]float64{
			string(tariff.TierPeak):   tiers.Peak,
			string(tariff.TierHigh):   tiers.High,
			string(tariff.TierFlat):   tiers.Flat,
			string(tariff.TierValley): tiers.Valley,
		},
		Summer: lo.Map(months, func(m time.Month, _ int) string { return m.String() }),
	})
}
