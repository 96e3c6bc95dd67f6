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

type BatchHandler struct {
	inventoryService *service.InventoryService
}

func NewBatchHandler(inventoryService *service.InventoryService) *BatchHandler {
	return &BatchHandler{
		inventoryService: inventoryService,
	}
}

// ReceiveBatch records a received lot of one supply
func (h *BatchHandler) ReceiveBatch(c *gin.Context) {
	var input service.ReceiveBatchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	actor := middleware.ActorFromContext(c)
	batch, err := h.inventoryService.ReceiveBatch(c.Request.Context(), actor, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, batch)
}

// GetBatch retrieves a batch by ID
func (h *BatchHandler) GetBatch(c *gin.Context) {
	batch, err := h.inventoryService.GetBatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, batch)
}

// ListBatches retrieves a filtered, paginated list of batches
func (h *BatchHandler) ListBatches(c *gin.Context) {
	filter := repository.BatchFilter{
		HospitalID: c.Query("hospital_id"),
		SupplyCode: c.Query("supply_code"),
	}
	if days := c.Query("expiring_within_days"); days != "" {
		parsed, err := strconv.Atoi(days)
		if err != nil || parsed < 0 {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid expiring_within_days filter")
			return
		}
		filter.ExpiringWithinDays = parsed
	}

	page := utils.ParsePageParams(c, "expiration_date")
	result, err := h.inventoryService.ListBatches(c.Request.Context(), filter, page)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to fetch batches")
		return
	}

	utils.SuccessResponse(c, result)
}

// GetStockLevel reports unexpired stock of one supply at one hospital
func (h *BatchHandler) GetStockLevel(c *gin.Context) {
	hospitalID := c.Query("hospital_id")
	supplyCode := c.Query("supply_code")
	if hospitalID == "" || supplyCode == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "hospital_id and supply_code are required")
		return
	}

	stock, err := h.inventoryService.StockLevel(c.Request.Context(), hospitalID, supplyCode)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to compute stock level")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"hospital_id": hospitalID,
		"supply_code": supplyCode,
		"stock":       stock,
	})
}
