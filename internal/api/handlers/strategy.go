package handlers

import (
	"net/http"

	"battery-sizing/internal/api/models"
	"battery-sizing/internal/strategy"

	"github.com/gin-gonic/gin"
)

// strategyParameters lists the request parameters each optimizer reads on
// top of the shared config.
var strategyParameters = map[string][]models.ParameterInfo{
	strategy.LinearProgramName: {
		{
			Name:        "capacity_kwh",
			Type:        "float",
			Description: "Fix the battery capacity (kWh) and only schedule it. Omit to size the battery.",
		},
	},
	strategy.MultiPlotName: {
		{
			Name:        "budget_kwh",
			Type:        "float",
			Description: "Total capacity (kWh) shared by all plots.",
			Default:     0.0,
		},
		{
			Name:        "force",
			Type:        "bool",
			Description: "Require the allocation to use the whole budget.",
			Default:     false,
		},
		{
			Name:        "plot_max",
			Type:        "map",
			Description: "Per-plot capacity caps (kWh); plots not listed use battery.max_capacity_kwh.",
		},
	},
}

// ListStrategies handles GET /api/v1/strategies
func ListStrategies(c *gin.Context) {
	available := strategy.Available()
	strategies := make([]models.StrategyInfo, 0, len(available))
	for _, info := range available {
		params := strategyParameters[info.Name]
		if params == nil {
			params = []models.ParameterInfo{}
		}
		strategies = append(strategies, models.StrategyInfo{
			Name:        info.Name,
			Description: info.Description,
			Parameters:  params,
		})
	}
	c.JSON(http.StatusOK, gin.H{"strategies": strategies})
}
