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

type CatalogHandler struct {
	catalogService *service.CatalogService
}

func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

// ListSupplies retrieves a filtered, paginated list of catalog entries
func (h *CatalogHandler) ListSupplies(c *gin.Context) {
	filter := repository.SupplyFilter{
		Name:     c.Query("name"),
		Category: c.Query("category"),
	}
	if controlled := c.Query("is_controlled"); controlled != "" {
		parsed, err := strconv.ParseBool(controlled)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid is_controlled filter")
			return
		}
		filter.IsControlled = &parsed
	}

	page := utils.ParsePageParams(c, "unspsc_code")
	result, err := h.catalogService.ListSupplies(c.Request.Context(), filter, page)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to fetch supplies")
		return
	}

	utils.SuccessResponse(c, result)
}

// GetSupply retrieves a catalog entry by UNSPSC code
func (h *CatalogHandler) GetSupply(c *gin.Context) {
	supply, err := h.catalogService.GetSupply(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, supply)
}

// CreateSupply registers a catalog entry (admin only)
func (h *CatalogHandler) CreateSupply(c *gin.Context) {
	var supply models.MedicalSupply
	if err := c.ShouldBindJSON(&supply); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	created, err := h.catalogService.CreateSupply(c.Request.Context(), &supply)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, created)
}

// UpdateSupply updates a catalog entry (admin only)
func (h *CatalogHandler) UpdateSupply(c *gin.Context) {
	var supply models.MedicalSupply
	if err := c.ShouldBindJSON(&supply); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	supply.UNSPSCCode = c.Param("code")

	updated, err := h.catalogService.UpdateSupply(c.Request.Context(), &supply)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, updated)
}

// ListSuppliers retrieves a filtered, paginated list of suppliers
func (h *CatalogHandler) ListSuppliers(c *gin.Context) {
	page := utils.ParsePageParams(c, "name")
	result, err := h.catalogService.ListSuppliers(c.Request.Context(),
		c.Query("name"), c.Query("contact_person"), page)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to fetch suppliers")
		return
	}

	utils.SuccessResponse(c, result)
}

// GetSupplier retrieves a supplier by ID
func (h *CatalogHandler) GetSupplier(c *gin.Context) {
	supplier, err := h.catalogService.GetSupplier(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, supplier)
}

// CreateSupplier registers a supplier (admin only)
func (h *CatalogHandler) CreateSupplier(c *gin.Context) {
	var supplier models.Supplier
	if err := c.ShouldBindJSON(&supplier); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	created, err := h.catalogService.CreateSupplier(c.Request.Context(), &supplier)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, created)
}

// UpdateSupplier updates a supplier (admin only)
func (h *CatalogHandler) UpdateSupplier(c *gin.Context) {
	var supplier models.Supplier
	if err := c.ShouldBindJSON(&supplier); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	supplier.ID = c.Param("id")

	updated, err := h.catalogService.UpdateSupplier(c.Request.Context(), &supplier)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, updated)
}
