package router

import (
	"github.com/gin-gonic/gin"

	"github.com/pinn-product-builder/pinnbai-sub001/internal/http/handler"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/http/middleware"
)

// WorkspaceRouter mounts everything scoped to one workspace under /:slug.
func WorkspaceRouter(
	rg *gin.RouterGroup,
	workspaces *handler.WorkspaceHandler,
	datasets *handler.DatasetHandler,
	insights *handler.InsightHandler,
	rateLimit middleware.RateLimitConfig,
) {
	rg.GET("", workspaces.List)
	rg.POST("/schema", workspaces.CreateSchema)

	ws := rg.Group("/:slug")
	{
		ws.GET("", workspaces.Get)

		ingest := []gin.HandlerFunc{datasets.Insert}
		if rateLimit.RequestsPerSecond > 0 {
			ingest = append([]gin.HandlerFunc{middleware.RateLimit(rateLimit)}, ingest...)
		}
		ws.POST("/data", ingest...)

		ws.GET("/datasets", datasets.List)
		ws.POST("/datasets/:name/query", datasets.Query)
		ws.DELETE("/datasets/:name", datasets.Delete)
		ws.GET("/datasets/:name/summary", insights.Summary)
		ws.POST("/datasets/:name/insights", insights.Insights)

		ws.GET("/imports", datasets.ListImports)
	}
}
