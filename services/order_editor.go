package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/pos-dashboard/events"
	"github.com/yeremiapane/pos-dashboard/models"
	"github.com/yeremiapane/pos-dashboard/remote"
	"github.com/yeremiapane/pos-dashboard/utils"
)

// IsEditable reports whether a tracked order may still be changed.
func IsEditable(order models.TrackedOrder, updatable models.UpdatableOrder) bool {
	return order.IsPending() && updatable.IsUpdatable
}

// Countdown returns the time left until deadline. Zero means expired.
func Countdown(deadline, now time.Time) time.Duration {
	if remaining := deadline.Sub(now); remaining > 0 {
		return remaining
	}
	return 0
}

// FormatCountdown renders the remaining time as mm:ss, or "Expired".
// Display only; the server enforces the deadline.
func FormatCountdown(deadline, now time.Time) string {
	remaining := Countdown(deadline, now)
	if remaining <= 0 {
		return "Expired"
	}
	secs := int(remaining.Round(time.Second) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// EditSession holds the working copy of one order while it is being edited.
// Items are keyed by their stable id and never removed from the session.
type EditSession struct {
	OrderTag   string
	RowVersion string

	order []string
	items map[string]*models.EditableOrderItem

	pending         *models.UpdatePendingOrderRequest
	conflictMessage string
}

func NewEditSession(updatable models.UpdatableOrder) *EditSession {
	s := &EditSession{
		OrderTag:   updatable.OrderTag,
		RowVersion: updatable.RowVersion,
		items:      make(map[string]*models.EditableOrderItem, len(updatable.Items)),
	}
	for _, it := range updatable.Items {
		s.order = append(s.order, it.ItemID)
		s.items[it.ItemID] = &models.EditableOrderItem{
			ItemID:           it.ItemID,
			ProductID:        it.ProductID,
			ProductName:      it.ProductName,
			UnitPrice:        it.UnitPrice,
			ParentItemID:     it.ParentItemID,
			IsAddon:          it.IsAddon,
			OriginalQuantity: it.Quantity,
			OriginalNote:     it.Note,
			Quantity:         it.Quantity,
			Note:             it.Note,
		}
	}
	return s
}

func (s *EditSession) item(itemID string) (*models.EditableOrderItem, error) {
	it, ok := s.items[itemID]
	if !ok {
		return nil, ErrEditItemNotFound
	}
	return it, nil
}

// Items returns the items in their original order.
func (s *EditSession) Items() []models.EditableOrderItem {
	out := make([]models.EditableOrderItem, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.items[id])
	}
	return out
}

// SetQuantity clamps at zero. A deleted item must be restored first.
func (s *EditSession) SetQuantity(itemID string, quantity int) error {
	it, err := s.item(itemID)
	if err != nil {
		return err
	}
	if it.IsDeleted() {
		return ErrInvalidState
	}
	if quantity < 0 {
		quantity = 0
	}
	it.Quantity = quantity
	return nil
}

func (s *EditSession) Increase(itemID string) error {
	it, err := s.item(itemID)
	if err != nil {
		return err
	}
	return s.SetQuantity(itemID, it.Quantity+1)
}

func (s *EditSession) Decrease(itemID string) error {
	it, err := s.item(itemID)
	if err != nil {
		return err
	}
	return s.SetQuantity(itemID, it.Quantity-1)
}

func (s *EditSession) Delete(itemID string) error {
	it, err := s.item(itemID)
	if err != nil {
		return err
	}
	it.State = models.EditStateMarkedForDeletion
	it.Quantity = 0
	return nil
}

// Restore undoes a deletion and brings back the original quantity.
func (s *EditSession) Restore(itemID string) error {
	it, err := s.item(itemID)
	if err != nil {
		return err
	}
	if !it.IsDeleted() {
		return nil
	}
	it.State = models.EditStateActive
	it.Quantity = it.OriginalQuantity
	return nil
}

func (s *EditSession) SetNote(itemID, note string) error {
	it, err := s.item(itemID)
	if err != nil {
		return err
	}
	it.Note = note
	return nil
}

func (s *EditSession) HasChanges() bool {
	for _, it := range s.items {
		if it.Changed() {
			return true
		}
	}
	return false
}

// CanUpdate gates the Update action.
func (s *EditSession) CanUpdate() bool {
	return s.pending == nil && s.HasChanges()
}

// AwaitingPriceConfirmation reports whether a price-change retry is on offer.
func (s *EditSession) AwaitingPriceConfirmation() bool {
	return s.pending != nil
}

func (s *EditSession) ConflictMessage() string {
	return s.conflictMessage
}

// BuildRequest keeps only live items with a positive quantity.
func (s *EditSession) BuildRequest() models.UpdatePendingOrderRequest {
	req := models.UpdatePendingOrderRequest{
		OrderTag:   s.OrderTag,
		RowVersion: s.RowVersion,
		Items:      []models.UpdateOrderItem{},
	}
	for _, id := range s.order {
		it := s.items[id]
		if it.IsDeleted() || it.Quantity <= 0 {
			continue
		}
		req.Items = append(req.Items, models.UpdateOrderItem{
			ItemID:       it.ItemID,
			ProductID:    it.ProductID,
			Quantity:     it.Quantity,
			Note:         strings.TrimSpace(it.Note),
			ParentItemID: it.ParentItemID,
			IsAddon:      it.IsAddon,
		})
	}
	return req
}

// EditSessionView is the render model of an edit session.
type EditSessionView struct {
	OrderTag                  string                     `json:"orderTag"`
	RowVersion                string                     `json:"rowVersion"`
	Items                     []models.EditableOrderItem `json:"items"`
	HasChanges                bool                       `json:"hasChanges"`
	CanUpdate                 bool                       `json:"canUpdate"`
	AwaitingPriceConfirmation bool                       `json:"awaitingPriceConfirmation"`
	ConflictMessage           string                     `json:"conflictMessage,omitempty"`
}

func (s *EditSession) View() EditSessionView {
	return EditSessionView{
		OrderTag:                  s.OrderTag,
		RowVersion:                s.RowVersion,
		Items:                     s.Items(),
		HasChanges:                s.HasChanges(),
		CanUpdate:                 s.CanUpdate(),
		AwaitingPriceConfirmation: s.AwaitingPriceConfirmation(),
		ConflictMessage:           s.conflictMessage,
	}
}

// CancelSession is the two-step cancellation: reason entry, then confirm.
type CancelSession struct {
	OrderTag   string `json:"orderTag"`
	RowVersion string `json:"rowVersion"`
	Reason     string `json:"reason"`
}

// OrderEditor runs edit and cancel sessions against tracked orders. Sessions for
// different orders are independent.
type OrderEditor struct {
	orders    OrderClient
	registry  *TrackingRegistry
	publisher events.Publisher
	metrics   *Metrics

	mu      sync.Mutex
	edits   map[string]*EditSession
	cancels map[string]*CancelSession
}

func NewOrderEditor(orders OrderClient, registry *TrackingRegistry, publisher events.Publisher, metrics *Metrics) *OrderEditor {
	return &OrderEditor{
		orders:    orders,
		registry:  registry,
		publisher: publisher,
		metrics:   metrics,
		edits:     make(map[string]*EditSession),
		cancels:   make(map[string]*CancelSession),
	}
}

// BeginEdit snapshots the order's items into a new edit session.
func (e *OrderEditor) BeginEdit(orderTag string) (EditSessionView, error) {
	tracked, ok := e.registry.Get(orderTag)
	if !ok {
		return EditSessionView{}, ErrOrderNotTracked
	}
	updatable, ok := e.registry.Updatable(orderTag)
	if !ok || !IsEditable(tracked, updatable) {
		return EditSessionView{}, ErrOrderNotEditable
	}

	session := NewEditSession(updatable)
	e.mu.Lock()
	e.edits[orderTag] = session
	view := session.View()
	e.mu.Unlock()

	e.publisher.Publish(events.EventEditSessionChanged, view)
	return view, nil
}

func (e *OrderEditor) EditSession(orderTag string) (EditSessionView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.edits[orderTag]
	if !ok {
		return EditSessionView{}, ErrNoEditSession
	}
	return s.View(), nil
}

// Edit applies fn to the order's session and publishes the result. Items are
// frozen while a price-change confirmation is on offer.
func (e *OrderEditor) Edit(orderTag string, fn func(*EditSession) error) (EditSessionView, error) {
	return e.apply(orderTag, func(s *EditSession) error {
		if s.pending != nil {
			return ErrAwaitingPriceConfirm
		}
		return fn(s)
	})
}

func (e *OrderEditor) apply(orderTag string, fn func(*EditSession) error) (EditSessionView, error) {
	e.mu.Lock()
	s, ok := e.edits[orderTag]
	if !ok {
		e.mu.Unlock()
		return EditSessionView{}, ErrNoEditSession
	}
	if err := fn(s); err != nil {
		e.mu.Unlock()
		return EditSessionView{}, err
	}
	view := s.View()
	e.mu.Unlock()

	e.publisher.Publish(events.EventEditSessionChanged, view)
	return view, nil
}

func (e *OrderEditor) ExitEdit(orderTag string) {
	e.mu.Lock()
	delete(e.edits, orderTag)
	e.mu.Unlock()
}

// SubmitEdit sends the edited items. A price-change conflict leaves the
// session waiting for ConfirmEditPriceChanges.
func (e *OrderEditor) SubmitEdit(ctx context.Context, orderTag string) error {
	e.mu.Lock()
	s, ok := e.edits[orderTag]
	if !ok {
		e.mu.Unlock()
		return ErrNoEditSession
	}
	if !s.CanUpdate() {
		e.mu.Unlock()
		return ErrNoChanges
	}
	req := s.BuildRequest()
	e.mu.Unlock()

	err := e.orders.UpdatePendingOrder(ctx, req)
	if err != nil && remote.IsPriceChangeConflict(err) {
		e.mu.Lock()
		req.PriceChangesConfirmed = true
		s.pending = &req
		s.conflictMessage = remote.Message(err)
		view := s.View()
		e.mu.Unlock()

		e.metrics.orderEdit("update", OutcomeConflict)
		utils.InfoLogger.WithField("order_tag", orderTag).Info("order update needs price confirmation")
		e.publisher.Publish(events.EventPriceChangeRequired, view)
		return nil
	}
	return e.finishEdit(ctx, s, err)
}

// ConfirmEditPriceChanges resubmits once with the confirmation flag set.
func (e *OrderEditor) ConfirmEditPriceChanges(ctx context.Context, orderTag string) error {
	e.mu.Lock()
	s, ok := e.edits[orderTag]
	if !ok {
		e.mu.Unlock()
		return ErrNoEditSession
	}
	if s.pending == nil {
		e.mu.Unlock()
		return ErrNoPendingPriceChange
	}
	req := *s.pending
	s.pending = nil
	s.conflictMessage = ""
	e.mu.Unlock()

	return e.finishEdit(ctx, s, e.orders.UpdatePendingOrder(ctx, req))
}

// DismissEditPriceChanges drops the offered retry and keeps the session open.
func (e *OrderEditor) DismissEditPriceChanges(orderTag string) (EditSessionView, error) {
	return e.apply(orderTag, func(s *EditSession) error {
		if s.pending == nil {
			return ErrNoPendingPriceChange
		}
		s.pending = nil
		s.conflictMessage = ""
		return nil
	})
}

func (e *OrderEditor) finishEdit(ctx context.Context, s *EditSession, err error) error {
	if err != nil {
		e.metrics.orderEdit("update", OutcomeFailure)
		msg := failureMessage(err, "update order")
		utils.ErrorLogger.WithFields(logrus.Fields{
			"order_tag": s.OrderTag,
		}).WithError(err).Error("order update failed")
		e.publisher.Notify(events.LevelError, msg)
		return &OperationError{Op: "update order", Err: err}
	}

	e.ExitEdit(s.OrderTag)
	e.metrics.orderEdit("update", OutcomeSuccess)
	e.reconcile(ctx, s.OrderTag)
	e.publisher.Publish(events.EventOrderUpdated, events.OrderRef{OrderTag: s.OrderTag})
	e.publisher.Notify(events.LevelSuccess, fmt.Sprintf("Order %s updated", s.OrderTag))
	return nil
}

// reconcile pulls the just-changed order and the updatable set.
func (e *OrderEditor) reconcile(ctx context.Context, orderTag string) {
	if _, err := e.registry.LoadTracking(ctx, orderTag); err != nil {
		utils.ErrorLogger.WithField("order_tag", orderTag).WithError(err).Warn("tracking reload failed")
	}
	if err := e.registry.RefreshUpdatable(ctx); err != nil {
		utils.ErrorLogger.WithError(err).Warn("updatable orders refresh failed")
	}
}

// BeginCancel opens the reason step. Eligibility comes from the order client.
func (e *OrderEditor) BeginCancel(orderTag string) (CancelSession, error) {
	tracked, ok := e.registry.Get(orderTag)
	if !ok {
		return CancelSession{}, ErrOrderNotTracked
	}
	if !e.orders.CanCancel(tracked.TrackingInfo.OrderStatus) {
		return CancelSession{}, ErrOrderNotCancellable
	}
	updatable, ok := e.registry.Updatable(orderTag)
	if !ok {
		return CancelSession{}, ErrOrderNotCancellable
	}

	session := &CancelSession{OrderTag: orderTag, RowVersion: updatable.RowVersion}
	e.mu.Lock()
	e.cancels[orderTag] = session
	e.mu.Unlock()

	e.publisher.Publish(events.EventCancelSessionChanged, *session)
	return *session, nil
}

func (e *OrderEditor) CancelSession(orderTag string) (CancelSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.cancels[orderTag]
	if !ok {
		return CancelSession{}, ErrNoCancelSession
	}
	return *s, nil
}

func (e *OrderEditor) SetCancelReason(orderTag, reason string) (CancelSession, error) {
	e.mu.Lock()
	s, ok := e.cancels[orderTag]
	if !ok {
		e.mu.Unlock()
		return CancelSession{}, ErrNoCancelSession
	}
	s.Reason = reason
	out := *s
	e.mu.Unlock()

	e.publisher.Publish(events.EventCancelSessionChanged, out)
	return out, nil
}

func (e *OrderEditor) AbortCancel(orderTag string) {
	e.mu.Lock()
	delete(e.cancels, orderTag)
	e.mu.Unlock()
}

// ConfirmCancel sends the cancellation with the row version captured at
// BeginCancel. On failure the session stays open.
func (e *OrderEditor) ConfirmCancel(ctx context.Context, orderTag string) error {
	e.mu.Lock()
	s, ok := e.cancels[orderTag]
	if !ok {
		e.mu.Unlock()
		return ErrNoCancelSession
	}
	req := models.CancelOrderRequest{
		OrderTag:   s.OrderTag,
		RowVersion: s.RowVersion,
		Reason:     strings.TrimSpace(s.Reason),
	}
	e.mu.Unlock()

	if err := e.orders.CancelOrder(ctx, req); err != nil {
		e.metrics.orderEdit("cancel", OutcomeFailure)
		utils.ErrorLogger.WithField("order_tag", orderTag).WithError(err).Error("order cancel failed")
		e.publisher.Notify(events.LevelError, failureMessage(err, "cancel order"))
		return &OperationError{Op: "cancel order", Err: err}
	}

	e.AbortCancel(orderTag)
	e.ExitEdit(orderTag)
	e.metrics.orderEdit("cancel", OutcomeSuccess)
	e.reconcile(ctx, orderTag)
	e.publisher.Publish(events.EventOrderCancelled, events.OrderRef{OrderTag: orderTag})
	e.publisher.Notify(events.LevelSuccess, fmt.Sprintf("Order %s cancelled", orderTag))
	return nil
}

// failureMessage prefers the server's message and falls back to "failed to <op>".
func failureMessage(err error, op string) string {
	if apiErr, ok := remote.AsAPIError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return "failed to " + op
}
