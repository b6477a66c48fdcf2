// Package api wires the HTTP surface of the simulator.
package api

import (
	"net/http"

	"lec-simulator/internal/api/handlers"
	"lec-simulator/internal/api/middleware"
	"lec-simulator/internal/api/models"
	"lec-simulator/internal/telemetry"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Deps are the pieces the router is assembled from. Telemetry and Limiter are optional.
type Deps struct {
	Simulations *handlers.SimulationHandler
	Parameters  *handlers.ParametersHandler
	Datasets    *handlers.DatasetHandler

	Telemetry      *telemetry.Collector
	Limiter        *middleware.RateLimiter
	Logger         logrus.FieldLogger
	AllowedOrigins []string
}

func NewRouter(d Deps) *gin.Engine {
	router := gin.New()

	// Apply middleware
	router.Use(middleware.ErrorHandler(d.Logger))
	router.Use(middleware.Logger(d.Logger))
	router.Use(middleware.CORS(d.AllowedOrigins))
	if d.Telemetry != nil {
		router.Use(d.Telemetry.Middleware())
		router.GET("/metrics", gin.WrapH(d.Telemetry.Handler()))
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API routes
	api := router.Group("/api")
	{
		limited := d.Limiter.Middleware()
		api.POST("/simulate", limited, d.Simulations.Simulate)
		api.POST("/simulate/compare", limited, d.Simulations.Compare)
		api.GET("/simulate/:id/ledger", d.Simulations.GetLedger)
		api.GET("/simulate/:id/rank", d.Simulations.RankBuildings)

		api.GET("/parameters", d.Parameters.ListParameters)
		api.GET("/dataset", d.Datasets.Describe)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Detail: "Not found",
			Code:   "NOT_FOUND",
			Errors: []string{},
		})
	})
	return router
}
