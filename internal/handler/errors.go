package handler

import (
	"errors"
	"net/http"

	"medsupply-backend/internal/service"
	"medsupply-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps the service error taxonomy onto HTTP statuses.
// Anything unrecognized is a 500 with a generic message.
func respondServiceError(c *gin.Context, err error) {
	var (
		validationErr  *service.ValidationError
		stateErr       *service.InvalidStateError
		authErr        *service.AuthorizationError
		notFoundErr    *service.NotFoundError
		inventoryErr   *service.InsufficientInventoryError
		concurrencyErr *service.ConcurrencyConflictError
	)

	switch {
	case errors.As(err, &validationErr):
		utils.ErrorResponse(c, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &authErr):
		utils.ErrorResponse(c, http.StatusForbidden, authErr.Error())
	case errors.As(err, &notFoundErr):
		utils.ErrorResponse(c, http.StatusNotFound, notFoundErr.Error())
	case errors.As(err, &stateErr):
		utils.ErrorResponse(c, http.StatusConflict, stateErr.Error())
	case errors.As(err, &concurrencyErr):
		utils.ErrorResponse(c, http.StatusConflict, concurrencyErr.Error())
	case errors.As(err, &inventoryErr):
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, inventoryErr.Error())
	default:
		utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error")
	}
}
