package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/kpi-visualizer/internal/service"
)

type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
}

func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// GetStatuses returns the distinct order statuses for the chart filter
func (h *AnalyticsHandler) GetStatuses(c *gin.Context) {
	statuses, err := h.analyticsService.Statuses(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"statuses": statuses})
}

// GetSummary returns the KPI summary, optionally filtered by ?status=
func (h *AnalyticsHandler) GetSummary(c *gin.Context) {
	summary, err := h.analyticsService.Summary(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetTimeSeries returns per-date totals for ?status= and ?metric=amount|qty
func (h *AnalyticsHandler) GetTimeSeries(c *gin.Context) {
	status := c.Query("status")
	metric := c.DefaultQuery("metric", "amount")

	points, err := h.analyticsService.TimeSeries(c.Request.Context(), status, metric)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": status,
		"metric": metric,
		"data":   points,
	})
}
