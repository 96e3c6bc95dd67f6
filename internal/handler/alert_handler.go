package handler

import (
	"net/http"
	"strconv"

	"medsupply-backend/internal/middleware"
	"medsupply-backend/internal/repository"
	"medsupply-backend/internal/service"
	"medsupply-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type AlertHandler struct {
	alertService *service.AlertService
}

func NewAlertHandler(alertService *service.AlertService) *AlertHandler {
	return &AlertHandler{
		alertService: alertService,
	}
}

type ResolveAlertRequest struct {
	Notes string `json:"notes"`
}

// ListAlerts retrieves a filtered, paginated list of alerts
func (h *AlertHandler) ListAlerts(c *gin.Context) {
	filter := repository.AlertFilter{
		AlertType:  c.Query("alert_type"),
		HospitalID: c.Query("hospital_id"),
	}
	if resolved := c.Query("is_resolved"); resolved != "" {
		parsed, err := strconv.ParseBool(resolved)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid is_resolved filter")
			return
		}
		filter.IsResolved = &parsed
	}

	page := utils.ParsePageParams(c, "-created_at")
	result, err := h.alertService.List(c.Request.Context(), filter, page)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to fetch alerts")
		return
	}

	utils.SuccessResponse(c, result)
}

// ResolveAlert closes an alert manually (admin only)
func (h *AlertHandler) ResolveAlert(c *gin.Context) {
	var req ResolveAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	actor := middleware.ActorFromContext(c)
	alert, err := h.alertService.Resolve(c.Request.Context(), actor, c.Param("id"), req.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, alert)
}

// EvaluateAlerts triggers one detector sweep on demand (admin only)
func (h *AlertHandler) EvaluateAlerts(c *gin.Context) {
	summary, err := h.alertService.EvaluateAll(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Alert evaluation failed")
		return
	}

	utils.SuccessResponse(c, summary)
}
