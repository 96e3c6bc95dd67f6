package handler

import (
	"net/http"
	"strconv"

	"medsupply-backend/internal/models"
	"medsupply-backend/internal/repository"
	"medsupply-backend/internal/service"
	"medsupply-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type HospitalHandler struct {
	hospitalService *service.HospitalService
}

func NewHospitalHandler(hospitalService *service.HospitalService) *HospitalHandler {
	return &HospitalHandler{
		hospitalService: hospitalService,
	}
}

// ListHospitals retrieves a filtered, paginated list of hospitals
func (h *HospitalHandler) ListHospitals(c *gin.Context) {
	filter := repository.HospitalFilter{
		Name:   c.Query("name"),
		Region: c.Query("region"),
	}
	if level := c.Query("level"); level != "" {
		parsed, err := strconv.Atoi(level)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid level filter")
			return
		}
		filter.Level = parsed
	}

	page := utils.ParsePageParams(c, "name")
	result, err := h.hospitalService.List(c.Request.Context(), filter, page)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to fetch hospitals")
		return
	}

	utils.SuccessResponse(c, result)
}

// GetHospital retrieves a specific hospital by ID
func (h *HospitalHandler) GetHospital(c *gin.Context) {
	hospital, err := h.hospitalService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"hospital":    hospital,
		"usage_ratio": hospital.UsageRatio(),
		"level_label": hospital.LevelLabel(),
	})
}

// CreateHospital creates a new hospital (admin only)
func (h *HospitalHandler) CreateHospital(c *gin.Context) {
	var hospital models.Hospital
	if err := c.ShouldBindJSON(&hospital); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	created, err := h.hospitalService.Create(c.Request.Context(), &hospital)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, created)
}

// UpdateHospital updates an existing hospital (admin only)
func (h *HospitalHandler) UpdateHospital(c *gin.Context) {
	var hospital models.Hospital
	if err := c.ShouldBindJSON(&hospital); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	hospital.ID = c.Param("id")

	updated, err := h.hospitalService.Update(c.Request.Context(), &hospital)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, updated)
}

// DeactivateHospital soft-deletes a hospital (admin only)
func (h *HospitalHandler) DeactivateHospital(c *gin.Context) {
	if err := h.hospitalService.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.MessageResponse(c, "Hospital deactivated successfully")
}
