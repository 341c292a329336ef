package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pinn-product-builder/pinnbai-sub001/internal/http/handler"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/http/middleware"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/service"
)

type RouterConfig struct {
	// APIKey protects /api/v1 when set.
	APIKey string
	// RateLimit applies to data ingestion. A zero rate disables it.
	RateLimit middleware.RateLimitConfig
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RequireAPIKey(cfg.APIKey))
	{
		workspaceHandler := handler.NewWorkspaceHandler(services.Workspaces())
		datasetHandler := handler.NewDatasetHandler(services.Datasets())
		insightHandler := handler.NewInsightHandler(services.Insights())

		WorkspaceRouter(v1.Group("/workspaces"), workspaceHandler, datasetHandler, insightHandler, cfg.RateLimit)
	}
}
