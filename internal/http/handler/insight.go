package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pinn-product-builder/pinnbai-sub001/internal/http/dto"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/service"
)

type InsightHandler struct {
	insights service.InsightService
}

func NewInsightHandler(insights service.InsightService) *InsightHandler {
	return &InsightHandler{insights: insights}
}

func (h *InsightHandler) Summary(c *gin.Context) {
	namespace, table, ok := target(c)
	if !ok {
		return
	}

	summary, err := h.insights.Summary(c.Request.Context(), namespace, table)
	if err != nil {
		writeError(c, err, "failed to summarize dataset")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Insights asks the configured LLM about the dataset summary. The body is
// optional.
func (h *InsightHandler) Insights(c *gin.Context) {
	namespace, table, ok := target(c)
	if !ok {
		return
	}

	var req dto.InsightsRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}

	report, err := h.insights.Insights(c.Request.Context(), namespace, table, req.Question)
	if err != nil {
		writeError(c, err, "failed to generate insights")
		return
	}
	c.JSON(http.StatusOK, report)
}
