package handler

import (
	"net/http"

	"medsupply-backend/internal/service"
	"medsupply-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
	recentLimit      int
	trendDays        int
}

func NewDashboardHandler(dashboardService *service.DashboardService, recentLimit, trendDays int) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		recentLimit:      recentLimit,
		trendDays:        trendDays,
	}
}

// Overview assembles the combined dashboard view
func (h *DashboardHandler) Overview(c *gin.Context) {
	ctx := c.Request.Context()

	supplies, err := h.dashboardService.SupplyOverview(ctx)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to build supply overview")
		return
	}
	hospitals, err := h.dashboardService.HospitalOverview(ctx)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to build hospital overview")
		return
	}
	requests, err := h.dashboardService.RequestOverview(ctx)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to build request overview")
		return
	}
	alerts, err := h.dashboardService.AlertOverview(ctx, h.recentLimit)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to build alert overview")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"supplies":  supplies,
		"hospitals": hospitals,
		"requests":  requests,
		"alerts":    alerts,
	})
}

// AlertTrend returns per-day alert counts by type
func (h *DashboardHandler) AlertTrend(c *gin.Context) {
	trend, err := h.dashboardService.AlertTrend(c.Request.Context(), h.trendDays)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to build alert trend")
		return
	}

	utils.SuccessResponse(c, trend)
}

// FulfillmentTrend returns per-day request and fulfillment counts
func (h *DashboardHandler) FulfillmentTrend(c *gin.Context) {
	trend, err := h.dashboardService.FulfillmentTrend(c.Request.Context(), h.trendDays)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to build fulfillment trend")
		return
	}

	utils.SuccessResponse(c, trend)
}
