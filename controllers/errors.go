package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/pos-dashboard/services"
	"github.com/yeremiapane/pos-dashboard/utils"
)

// respondServiceError maps a service error to a status and the envelope.
func respondServiceError(c *gin.Context, err error) {
	var valErr *services.ValidationError
	if errors.As(err, &valErr) {
		utils.RespondErrorData(c, http.StatusUnprocessableEntity, "validation failed", valErr.Violations)
		return
	}

	var opErr *services.OperationError
	if errors.As(err, &opErr) {
		utils.RespondJSON(c, http.StatusBadGateway, opErr.UserMessage(), nil)
		return
	}

	switch {
	case errors.Is(err, services.ErrLineNotFound),
		errors.Is(err, services.ErrExtraNotFound),
		errors.Is(err, services.ErrOrderNotTracked),
		errors.Is(err, services.ErrEditItemNotFound),
		errors.Is(err, services.ErrNoEditSession),
		errors.Is(err, services.ErrNoCancelSession):
		utils.RespondError(c, http.StatusNotFound, err)
	case errors.Is(err, services.ErrQuantityLimit),
		errors.Is(err, services.ErrNoChanges):
		utils.RespondError(c, http.StatusUnprocessableEntity, err)
	case errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrNoPendingPriceChange),
		errors.Is(err, services.ErrAwaitingPriceConfirm),
		errors.Is(err, services.ErrOrderNotEditable),
		errors.Is(err, services.ErrOrderNotCancellable):
		utils.RespondError(c, http.StatusConflict, err)
	default:
		utils.ErrorLogger.WithError(err).Error("unhandled service error")
		utils.RespondError(c, http.StatusInternalServerError, err)
	}
}
