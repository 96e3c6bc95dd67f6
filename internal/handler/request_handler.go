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

type RequestHandler struct {
	requestService    *service.RequestService
	allocationService *service.AllocationService
}

func NewRequestHandler(requestService *service.RequestService, allocationService *service.AllocationService) *RequestHandler {
	return &RequestHandler{
		requestService:    requestService,
		allocationService: allocationService,
	}
}

type DecisionRequest struct {
	Comments string `json:"comments"`
}

type AllocationRequest struct {
	AllocatedQuantity *int `json:"allocated_quantity" binding:"required"`
}

// SubmitRequest creates a new supply request in pending status
func (h *RequestHandler) SubmitRequest(c *gin.Context) {
	var input service.SubmitRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	actor := middleware.ActorFromContext(c)
	request, err := h.requestService.Submit(c.Request.Context(), actor, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, request)
}

// GetRequest retrieves a request with its items
func (h *RequestHandler) GetRequest(c *gin.Context) {
	request, err := h.requestService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, request)
}

// ListRequests retrieves a filtered, paginated list of requests
func (h *RequestHandler) ListRequests(c *gin.Context) {
	filter := repository.RequestFilter{
		Status:     c.Query("status"),
		HospitalID: c.Query("hospital_id"),
	}
	if emergency := c.Query("emergency"); emergency != "" {
		parsed, err := strconv.ParseBool(emergency)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid emergency filter")
			return
		}
		filter.Emergency = &parsed
	}

	page := utils.ParsePageParams(c, "-request_time")
	result, err := h.requestService.List(c.Request.Context(), filter, page)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to fetch requests")
		return
	}

	utils.SuccessResponse(c, result)
}

// ApproveRequest moves a pending request to approved and runs a best-effort
// allocation pass (admin only)
func (h *RequestHandler) ApproveRequest(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	actor := middleware.ActorFromContext(c)
	request, err := h.requestService.Approve(c.Request.Context(), actor, c.Param("id"), req.Comments)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, request)
}

// RejectRequest moves a pending request to rejected (admin only)
func (h *RequestHandler) RejectRequest(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	actor := middleware.ActorFromContext(c)
	request, err := h.requestService.Reject(c.Request.Context(), actor, c.Param("id"), req.Comments)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, request)
}

// AllocateItem sets an item's allocated quantity, sourcing the change from
// eligible batches (admin only)
func (h *RequestHandler) AllocateItem(c *gin.Context) {
	var req AllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	actor := middleware.ActorFromContext(c)
	item, err := h.allocationService.AllocateItem(c.Request.Context(), actor,
		c.Param("id"), c.Param("itemId"), *req.AllocatedQuantity)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, item)
}

// OverrideAllocation sets an item's allocated quantity without moving batch
// inventory (admin only)
func (h *RequestHandler) OverrideAllocation(c *gin.Context) {
	var req AllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	actor := middleware.ActorFromContext(c)
	item, err := h.allocationService.OverrideAllocation(c.Request.Context(), actor,
		c.Param("id"), c.Param("itemId"), *req.AllocatedQuantity)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, item)
}

// ListAllocationCandidates lists unresolved items awaiting allocation,
// emergency requests first (admin only)
func (h *RequestHandler) ListAllocationCandidates(c *gin.Context) {
	filter := repository.CandidateFilter{
		SupplyCode: c.Query("supply_code"),
		HospitalID: c.Query("hospital_id"),
	}

	page := utils.ParsePageParams(c, "")
	result, err := h.allocationService.ListAllocationCandidates(c.Request.Context(), filter, page)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to fetch allocation candidates")
		return
	}

	utils.SuccessResponse(c, result)
}
