// Package api wires the HTTP handlers into a gin engine.
package api

import (
	"net/http"
	"os"
	"strings"

	"battery-sizing/internal/api/handlers"
	"battery-sizing/internal/api/middleware"
	"battery-sizing/internal/api/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	CORSOrigins []string
	// StaticDir holds a built web UI; skipped when it does not exist.
	StaticDir string
}

// NewRouter builds the engine with middleware and every API route.
func NewRouter(deps handlers.Deps, o RouterOptions) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	log := deps.Logger
	router := gin.New()

	router.Use(middleware.Logger(log))
	router.Use(middleware.ErrorHandler(log))
	router.Use(middleware.CORS(o.CORSOrigins))

	optimizeHandler := handlers.NewOptimizeHandler(deps)
	multiHandler := handlers.NewMultiPlotHandler(deps)
	rankHandler := handlers.NewRankHandler(deps)
	batteryHandler := handlers.NewBatteryHandler(deps)
	datasetHandler := handlers.NewDatasetHandler(deps.CatalogFile)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/optimize", optimizeHandler.Optimize)
		api.GET("/optimize/:id/ledger", optimizeHandler.GetLedger)
		api.POST("/optimize/sweep", optimizeHandler.Sweep)
		api.POST("/optimize/multi", multiHandler.Allocate)

		api.POST("/rank", rankHandler.RankPlots)
		api.POST("/metrics", handlers.ComputeMetrics)

		api.GET("/batteries", batteryHandler.ListBatteries)
		api.GET("/strategies", handlers.ListStrategies)
		api.GET("/tariffs", handlers.ListTariffs)

		api.GET("/datasets", datasetHandler.ListDatasets)
		api.GET("/datasets/:id/profile", datasetHandler.GetProfile)
	}

	notFound := func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "NOT_FOUND", Message: "Not found"},
		})
	}
	if o.StaticDir == "" {
		router.NoRoute(notFound)
		return router
	}
	if _, err := os.Stat(o.StaticDir); err != nil {
		router.NoRoute(notFound)
		return router
	}

	// Serve static assets
	router.Static("/assets", o.StaticDir+"/assets")
	router.StaticFile("/favicon.ico", o.StaticDir+"/favicon.ico")

	// Serve index.html for all non-API routes (SPA routing)
	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			notFound(c)
			return
		}
		c.File(o.StaticDir + "/index.html")
	})
	return router
}
