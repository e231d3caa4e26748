package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/pos-dashboard/events"
	"github.com/yeremiapane/pos-dashboard/models"
	"github.com/yeremiapane/pos-dashboard/remote"
	"github.com/yeremiapane/pos-dashboard/utils"
)

type CheckoutState string

const (
	StateIdle            CheckoutState = "idle"
	StateValidating      CheckoutState = "validating"
	StateSubmitting      CheckoutState = "submitting"
	StateConflictPending CheckoutState = "conflict_pending"
	StateConfirmRetrying CheckoutState = "confirm_retrying"
	StateSucceeded       CheckoutState = "succeeded"
	StateFailed          CheckoutState = "failed"
)

// DefaultPriceChangeMessage is shown when the price-change summary itself
// cannot be loaded.
const DefaultPriceChangeMessage = "Some prices in your cart have changed. Please review and confirm to place the order."

// CheckoutSnapshot is the render model of the checkout panel.
type CheckoutSnapshot struct {
	State              CheckoutState               `json:"state"`
	Form               models.OrderForm            `json:"form"`
	Violations         []string                    `json:"violations,omitempty"`
	PriceChangeSummary *models.PriceChangeSummary  `json:"priceChangeSummary,omitempty"`
	FailureMessage     string                      `json:"failureMessage,omitempty"`
	LastOrder          *models.CreateOrderResponse `json:"lastOrder,omitempty"`
}

// OrderCreator drives one checkout from validation to a tracked order. A
// price-change conflict is retried at most once, and only after the user
// confirms.
type OrderCreator struct {
	basket     *BasketController
	orders     OrderClient
	orderTypes OrderTypeProvider
	registry   *TrackingRegistry
	publisher  events.Publisher
	metrics    *Metrics

	// OnOrderCreated, when set, receives the new order id.
	OnOrderCreated func(orderID string)

	now func() time.Time

	// runMu serializes Submit and ConfirmPriceChanges.
	runMu sync.Mutex

	mu         sync.RWMutex
	state      CheckoutState
	form       models.OrderForm
	violations []string
	summary    *models.PriceChangeSummary
	failure    string
	pending    *models.CreateOrderRequest
	lastOrder  *models.CreateOrderResponse
}

func NewOrderCreator(basket *BasketController, orders OrderClient, orderTypes OrderTypeProvider, registry *TrackingRegistry, publisher events.Publisher, metrics *Metrics) *OrderCreator {
	return &OrderCreator{
		basket:     basket,
		orders:     orders,
		orderTypes: orderTypes,
		registry:   registry,
		publisher:  publisher,
		metrics:    metrics,
		now:        time.Now,
		state:      StateIdle,
	}
}

func (oc *OrderCreator) SetForm(form models.OrderForm) {
	oc.mu.Lock()
	oc.form = form
	oc.mu.Unlock()
}

func (oc *OrderCreator) Form() models.OrderForm {
	oc.mu.RLock()
	defer oc.mu.RUnlock()
	return oc.form
}

func (oc *OrderCreator) State() CheckoutState {
	oc.mu.RLock()
	defer oc.mu.RUnlock()
	return oc.state
}

func (oc *OrderCreator) Violations() []string {
	oc.mu.RLock()
	defer oc.mu.RUnlock()
	return append([]string(nil), oc.violations...)
}

func (oc *OrderCreator) PriceChangeSummary() *models.PriceChangeSummary {
	oc.mu.RLock()
	defer oc.mu.RUnlock()
	return oc.summary
}

func (oc *OrderCreator) FailureMessage() string {
	oc.mu.RLock()
	defer oc.mu.RUnlock()
	return oc.failure
}

func (oc *OrderCreator) Snapshot() CheckoutSnapshot {
	oc.mu.RLock()
	defer oc.mu.RUnlock()
	return CheckoutSnapshot{
		State:              oc.state,
		Form:               oc.form,
		Violations:         append([]string(nil), oc.violations...),
		PriceChangeSummary: oc.summary,
		FailureMessage:     oc.failure,
		LastOrder:          oc.lastOrder,
	}
}

// transition moves to next, applies update under the lock and publishes the
// new state.
func (oc *OrderCreator) transition(next CheckoutState, update func()) {
	oc.mu.Lock()
	oc.state = next
	if update != nil {
		update()
	}
	evt := events.CheckoutStateChanged{
		State:   string(next),
		Message: oc.failure,
		Errors:  append([]string(nil), oc.violations...),
	}
	oc.mu.Unlock()

	utils.InfoLogger.WithField("state", next).Debug("checkout state changed")
	oc.publisher.Publish(events.EventCheckoutStateChanged, evt)
}

func (oc *OrderCreator) canStart() bool {
	switch oc.State() {
	case StateIdle, StateFailed, StateSucceeded:
		return true
	}
	return false
}

// Submit validates the cart and form and places the order. A validation
// failure returns to Idle with every violation and a *ValidationError. A
// price-change conflict parks the machine in ConflictPending and returns nil.
func (oc *OrderCreator) Submit(ctx context.Context) error {
	oc.runMu.Lock()
	defer oc.runMu.Unlock()

	if !oc.canStart() {
		return ErrInvalidState
	}

	oc.transition(StateValidating, func() {
		oc.violations = nil
		oc.failure = ""
		oc.summary = nil
		oc.pending = nil
	})

	form := oc.Form()
	lines := oc.basket.Lines()

	orderType, err := oc.findOrderType(ctx, form.OrderTypeID)
	if err != nil {
		oc.metrics.orderSubmission(OutcomeFailure)
		oc.transition(StateFailed, func() { oc.failure = UserMessage(err) })
		return err
	}

	var violations []string
	if len(lines) == 0 {
		violations = append(violations, "Cart is empty")
	}
	violations = append(violations, ValidateCart(lines)...)
	violations = append(violations, ValidateForm(form, orderType, CartTotal(lines))...)
	if len(violations) > 0 {
		oc.metrics.orderSubmission(OutcomeRejected)
		oc.transition(StateIdle, func() { oc.violations = violations })
		return &ValidationError{Violations: violations}
	}

	req := BuildCreateOrderRequest(oc.basket.BasketID(), form, *orderType)
	oc.transition(StateSubmitting, nil)

	resp, err := oc.orders.CreateOrder(ctx, req)
	switch {
	case err == nil:
		oc.complete(ctx, resp)
		return nil
	case remote.IsPriceChangeConflict(err):
		oc.awaitConfirmation(ctx, req)
		return nil
	default:
		return oc.fail(err)
	}
}

// findOrderType returns nil without error when no type is selected or the id
// is unknown, so validation reports it.
func (oc *OrderCreator) findOrderType(ctx context.Context, id string) (*models.OrderType, error) {
	if id == "" {
		return nil, nil
	}
	types, err := oc.orderTypes.OrderTypes(ctx)
	if err != nil {
		return nil, &OperationError{Op: "load order types", Err: err}
	}
	for i := range types {
		if types[i].ID == id {
			return &types[i], nil
		}
	}
	utils.ErrorLogger.WithField("order_type_id", id).Warn(ErrOrderTypeNotFound)
	return nil, nil
}

func (oc *OrderCreator) awaitConfirmation(ctx context.Context, req models.CreateOrderRequest) {
	oc.metrics.orderSubmission(OutcomeConflict)

	summary, err := oc.basket.ConfirmPriceChanges(ctx)
	if err != nil || summary == nil {
		utils.ErrorLogger.WithError(err).Warn("price change summary unavailable")
		summary = &models.PriceChangeSummary{Message: DefaultPriceChangeMessage}
	}

	oc.transition(StateConflictPending, func() {
		oc.pending = &req
		oc.summary = summary
	})
	oc.publisher.Publish(events.EventPriceChangeRequired, summary)
}

// ConfirmPriceChanges resubmits the parked request with the confirmation flag.
// This is the only retry; any error here is terminal.
func (oc *OrderCreator) ConfirmPriceChanges(ctx context.Context) error {
	oc.runMu.Lock()
	defer oc.runMu.Unlock()

	oc.mu.RLock()
	state, pending := oc.state, oc.pending
	oc.mu.RUnlock()
	if state != StateConflictPending || pending == nil {
		return ErrNoPendingPriceChange
	}

	req := *pending
	req.PriceChangesConfirmed = true
	oc.transition(StateConfirmRetrying, nil)

	resp, err := oc.orders.CreateOrder(ctx, req)
	if err != nil {
		return oc.fail(err)
	}
	oc.complete(ctx, resp)
	return nil
}

// DismissConflict closes the price-change modal without retrying.
func (oc *OrderCreator) DismissConflict() error {
	if oc.State() != StateConflictPending {
		return ErrNoPendingPriceChange
	}
	oc.transition(StateIdle, func() {
		oc.pending = nil
		oc.summary = nil
	})
	return nil
}

// Reset returns to Idle and clears results. The form is kept.
func (oc *OrderCreator) Reset() {
	oc.transition(StateIdle, func() {
		oc.violations = nil
		oc.failure = ""
		oc.summary = nil
		oc.pending = nil
	})
}

// fail moves to Failed. Conflicts carry the server message; anything else
// gets the generic one.
func (oc *OrderCreator) fail(err error) error {
	msg := "failed to create order"
	if remote.IsConflict(err) {
		msg = remote.Message(err)
	}
	oc.metrics.orderSubmission(OutcomeFailure)
	utils.ErrorLogger.WithError(err).Error("order creation failed")

	oc.transition(StateFailed, func() {
		oc.failure = msg
		oc.pending = nil
	})
	oc.publisher.Notify(events.LevelError, msg)
	return &OperationError{Op: "create order", Err: err}
}

func (oc *OrderCreator) complete(ctx context.Context, resp *models.CreateOrderResponse) {
	oc.metrics.orderSubmission(OutcomeSuccess)
	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id":  resp.OrderID,
		"order_tag": resp.OrderTag,
	}).Info("order created")

	if err := oc.basket.Clear(ctx); err != nil {
		utils.ErrorLogger.WithError(err).Warn("cart clear after order failed")
	}

	tracked := models.TrackedOrder{
		OrderTag: resp.OrderTag,
		TrackingInfo: models.TrackingInfo{
			OrderID:     resp.OrderID,
			OrderTag:    resp.OrderTag,
			OrderStatus: models.OrderStatusPending,
		},
		CreatedAt: oc.now().UTC(),
	}
	if err := oc.registry.Add(ctx, tracked); err != nil {
		utils.ErrorLogger.WithField("order_tag", resp.OrderTag).WithError(err).Error("failed to track new order")
	} else if _, err := oc.registry.LoadTracking(ctx, resp.OrderTag); err != nil {
		utils.ErrorLogger.WithField("order_tag", resp.OrderTag).WithError(err).Warn("initial tracking load failed")
	}

	oc.transition(StateSucceeded, func() {
		oc.form = models.OrderForm{TableID: oc.form.TableID}
		oc.lastOrder = resp
		oc.pending = nil
		oc.summary = nil
	})

	if oc.OnOrderCreated != nil {
		oc.OnOrderCreated(resp.OrderID)
	}
	oc.publisher.Publish(events.EventOrderCreated, events.OrderCreated{OrderID: resp.OrderID, OrderTag: resp.OrderTag})
	oc.publisher.Notify(events.LevelSuccess, fmt.Sprintf("Order %s placed", resp.OrderTag))
}
