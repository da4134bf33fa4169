package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go.ngs.io/agroclim/internal/usecase"
)

// SetupRouter creates and configures the Gin router.
// An empty allowedOrigins list allows all origins.
func SetupRouter(queryUC *usecase.QueryUseCase, allowedOrigins []string) *gin.Engine {

	router := gin.Default()

	// Setup CORS middleware.
	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) > 0 {
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}

	router.Use(cors.New(corsConfig))

	// Create handler.
	handler := NewHandler(queryUC)

	// API v1 routes.
	v1 := router.Group("/v1")
	v1.GET("/points", handler.GetPoints)
	v1.GET("/series", handler.GetSeries)
	v1.GET("/variables", handler.GetVariablesList)

	// Health check and metrics.
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
