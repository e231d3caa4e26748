package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/pos-dashboard/services"
	"github.com/yeremiapane/pos-dashboard/utils"
)

type OrdersController struct {
	Registry *services.TrackingRegistry
	Poller   *services.TrackingPoller
	Editor   *services.OrderEditor
	Now      func() time.Time
}

func NewOrdersController(registry *services.TrackingRegistry, poller *services.TrackingPoller, editor *services.OrderEditor) *OrdersController {
	return &OrdersController{
		Registry: registry,
		Poller:   poller,
		Editor:   editor,
		Now:      time.Now,
	}
}

// ListOrders -> tracked orders with edit metadata and countdown
func (oc *OrdersController) ListOrders(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "Tracked orders", oc.Registry.Views(oc.Now()))
}

// SetView records whether the orders tab is visible, which gates polling.
func (oc *OrdersController) SetView(c *gin.Context) {
	var body struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	oc.Poller.SetOrdersViewActive(*body.Active)
	utils.RespondJSON(c, http.StatusOK, "Orders view updated", gin.H{"polling": oc.Poller.Running()})
}

func (oc *OrdersController) Refresh(c *gin.Context) {
	order, err := oc.Registry.LoadTracking(c.Request.Context(), c.Param("tag"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order refreshed", order)
}

func (oc *OrdersController) Remove(c *gin.Context) {
	if err := oc.Registry.Remove(c.Request.Context(), c.Param("tag")); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order removed from tracking", nil)
}

func (oc *OrdersController) BeginEdit(c *gin.Context) {
	view, err := oc.Editor.BeginEdit(c.Param("tag"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Edit started", view)
}

func (oc *OrdersController) GetEdit(c *gin.Context) {
	view, err := oc.Editor.EditSession(c.Param("tag"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Edit session", view)
}

func (oc *OrdersController) ExitEdit(c *gin.Context) {
	oc.Editor.ExitEdit(c.Param("tag"))
	utils.RespondJSON(c, http.StatusOK, "Edit closed", nil)
}

// editItem applies one change to an item of the edit session.
func (oc *OrdersController) editItem(c *gin.Context, fn func(s *services.EditSession, itemID string) error) {
	itemID := c.Param("item_id")
	view, err := oc.Editor.Edit(c.Param("tag"), func(s *services.EditSession) error {
		return fn(s, itemID)
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Edit session", view)
}

func (oc *OrdersController) IncreaseItem(c *gin.Context) {
	oc.editItem(c, (*services.EditSession).Increase)
}

func (oc *OrdersController) DecreaseItem(c *gin.Context) {
	oc.editItem(c, (*services.EditSession).Decrease)
}

func (oc *OrdersController) DeleteItem(c *gin.Context) {
	oc.editItem(c, (*services.EditSession).Delete)
}

func (oc *OrdersController) RestoreItem(c *gin.Context) {
	oc.editItem(c, (*services.EditSession).Restore)
}

func (oc *OrdersController) SetItemQuantity(c *gin.Context) {
	var body struct {
		Quantity *int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	oc.editItem(c, func(s *services.EditSession, itemID string) error {
		return s.SetQuantity(itemID, *body.Quantity)
	})
}

func (oc *OrdersController) SetItemNote(c *gin.Context) {
	var body struct {
		Note string `json:"note"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	oc.editItem(c, func(s *services.EditSession, itemID string) error {
		return s.SetNote(itemID, body.Note)
	})
}

// SubmitEdit -> send the edit. If a price-change confirmation is needed the
// session comes back with awaitingPriceConfirmation set.
func (oc *OrdersController) SubmitEdit(c *gin.Context) {
	tag := c.Param("tag")
	if err := oc.Editor.SubmitEdit(c.Request.Context(), tag); err != nil {
		respondServiceError(c, err)
		return
	}
	if view, err := oc.Editor.EditSession(tag); err == nil {
		utils.RespondJSON(c, http.StatusOK, "Price changes need confirmation", view)
		return
	}
	oc.respondOrder(c, tag, "Order updated")
}

func (oc *OrdersController) ConfirmEdit(c *gin.Context) {
	tag := c.Param("tag")
	if err := oc.Editor.ConfirmEditPriceChanges(c.Request.Context(), tag); err != nil {
		respondServiceError(c, err)
		return
	}
	oc.respondOrder(c, tag, "Order updated")
}

func (oc *OrdersController) DismissEditConfirmation(c *gin.Context) {
	view, err := oc.Editor.DismissEditPriceChanges(c.Param("tag"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Price change dismissed", view)
}

func (oc *OrdersController) BeginCancel(c *gin.Context) {
	session, err := oc.Editor.BeginCancel(c.Param("tag"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cancellation started", session)
}

func (oc *OrdersController) SetCancelReason(c *gin.Context) {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	session, err := oc.Editor.SetCancelReason(c.Param("tag"), body.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cancellation reason set", session)
}

func (oc *OrdersController) ConfirmCancel(c *gin.Context) {
	tag := c.Param("tag")
	if err := oc.Editor.ConfirmCancel(c.Request.Context(), tag); err != nil {
		respondServiceError(c, err)
		return
	}
	oc.respondOrder(c, tag, "Order cancelled")
}

func (oc *OrdersController) AbortCancel(c *gin.Context) {
	oc.Editor.AbortCancel(c.Param("tag"))
	utils.RespondJSON(c, http.StatusOK, "Cancellation aborted", nil)
}

func (oc *OrdersController) respondOrder(c *gin.Context, tag, message string) {
	order, _ := oc.Registry.Get(tag)
	utils.RespondJSON(c, http.StatusOK, message, order)
}
