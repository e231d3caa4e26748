package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/pos-dashboard/models"
	"github.com/yeremiapane/pos-dashboard/services"
	"github.com/yeremiapane/pos-dashboard/utils"
)

type CheckoutController struct {
	Creator    *services.OrderCreator
	OrderTypes services.OrderTypeProvider
}

func NewCheckoutController(creator *services.OrderCreator, orderTypes services.OrderTypeProvider) *CheckoutController {
	return &CheckoutController{Creator: creator, OrderTypes: orderTypes}
}

func (cc *CheckoutController) GetCheckout(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "Checkout", cc.Creator.Snapshot())
}

func (cc *CheckoutController) GetOrderTypes(c *gin.Context) {
	types, err := cc.OrderTypes.OrderTypes(c.Request.Context())
	if err != nil {
		respondServiceError(c, &services.OperationError{Op: "load order types", Err: err})
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order types", types)
}

func (cc *CheckoutController) GetForm(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "Order form", cc.Creator.Form())
}

func (cc *CheckoutController) UpdateForm(c *gin.Context) {
	var form models.OrderForm
	if err := c.ShouldBindJSON(&form); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	cc.Creator.SetForm(form)
	utils.RespondJSON(c, http.StatusOK, "Order form updated", cc.Creator.Form())
}

// Submit -> validate and place the order. A price-change conflict answers 200
// with state conflict_pending so the UI can open the confirmation modal.
func (cc *CheckoutController) Submit(c *gin.Context) {
	err := cc.Creator.Submit(c.Request.Context())
	cc.respond(c, err)
}

func (cc *CheckoutController) Confirm(c *gin.Context) {
	err := cc.Creator.ConfirmPriceChanges(c.Request.Context())
	cc.respond(c, err)
}

func (cc *CheckoutController) Dismiss(c *gin.Context) {
	if err := cc.Creator.DismissConflict(); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Price change dismissed", cc.Creator.Snapshot())
}

func (cc *CheckoutController) Reset(c *gin.Context) {
	cc.Creator.Reset()
	utils.RespondJSON(c, http.StatusOK, "Checkout reset", cc.Creator.Snapshot())
}

func (cc *CheckoutController) respond(c *gin.Context, err error) {
	snapshot := cc.Creator.Snapshot()

	var valErr *services.ValidationError
	var opErr *services.OperationError
	switch {
	case err == nil:
		utils.RespondJSON(c, http.StatusOK, checkoutMessage(snapshot.State), snapshot)
	case errors.As(err, &valErr):
		utils.RespondErrorData(c, http.StatusUnprocessableEntity, "validation failed", snapshot)
	case errors.As(err, &opErr):
		utils.RespondErrorData(c, http.StatusBadGateway, snapshot.FailureMessage, snapshot)
	default:
		respondServiceError(c, err)
	}
}

func checkoutMessage(state services.CheckoutState) string {
	switch state {
	case services.StateSucceeded:
		return "Order created"
	case services.StateConflictPending:
		return "Price changes need confirmation"
	}
	return string(state)
}
