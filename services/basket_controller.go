package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/shopspring/decimal"
	"github.com/yeremiapane/pos-dashboard/events"
	"github.com/yeremiapane/pos-dashboard/models"
	"github.com/yeremiapane/pos-dashboard/remote"
	"github.com/yeremiapane/pos-dashboard/utils"
)

// Operation names double as the tail of the "failed to ..." message.
const (
	OpLoadBasket   = "load basket"
	OpIncrease     = "increase item quantity"
	OpDecrease     = "decrease item quantity"
	OpAddonAdd     = "add addon"
	OpAddonRemove  = "remove addon"
	OpExtraUpdate  = "update extra"
	OpRemoveLine   = "remove item"
	OpClearBasket  = "clear cart"
	OpConfirmPrice = "confirm price changes"
)

// BasketController sequences every basket change as load-mutate-reload: one
// mutating call, then an unconditional full reload that replaces the local lines.
// Local lines are never patched.
type BasketController struct {
	client    BasketClient
	publisher events.Publisher
	metrics   *Metrics

	// mutateMu keeps at most one mutation in flight.
	mutateMu sync.Mutex

	mu       sync.RWMutex
	basketID string
	lines    []models.CartLine
	applied  uint64

	issued  atomic.Uint64
	loading atomic.Int32
}

func NewBasketController(client BasketClient, publisher events.Publisher, metrics *Metrics) *BasketController {
	return &BasketController{
		client:    client,
		publisher: publisher,
		metrics:   metrics,
	}
}

// Load fetches the basket and replaces the local lines wholesale. When reloads
// overlap, the most recently issued one wins.
func (bc *BasketController) Load(ctx context.Context) error {
	bc.loading.Add(1)
	defer bc.loading.Add(-1)
	return bc.reload(ctx)
}

func (bc *BasketController) reload(ctx context.Context) error {
	seq := bc.issued.Add(1)

	basket, err := bc.client.GetBasket(ctx)
	if err != nil {
		if apiErr, ok := remote.AsAPIError(err); ok && apiErr.StatusCode == http.StatusNotFound {
			basket = &models.Basket{}
		} else {
			utils.ErrorLogger.WithError(err).Error("basket reload failed")
			return &OperationError{Op: OpLoadBasket, Err: err}
		}
	}

	bc.mu.Lock()
	if seq < bc.applied {
		bc.mu.Unlock()
		utils.InfoLogger.WithField("seq", seq).Debug("discarding superseded basket reload")
		return nil
	}
	bc.applied = seq
	bc.basketID = basket.BasketID
	bc.lines = append([]models.CartLine(nil), basket.Items...)
	lines := bc.lines
	bc.mu.Unlock()

	bc.publisher.Publish(events.EventBasketLoaded, events.BasketLoaded{
		BasketID: basket.BasketID,
		Lines:    lines,
		Total:    CartTotal(lines),
	})
	return nil
}

// mutate runs one mutating call followed by an unconditional reload.
func (bc *BasketController) mutate(ctx context.Context, op string, call func(ctx context.Context) error) error {
	bc.mutateMu.Lock()
	defer bc.mutateMu.Unlock()

	bc.loading.Add(1)
	defer bc.loading.Add(-1)

	callErr := call(ctx)
	reloadErr := bc.reload(ctx)

	if callErr != nil {
		bc.metrics.basketMutation(op, OutcomeFailure)
		utils.ErrorLogger.WithFields(logrus.Fields{
			"operation": op,
		}).WithError(callErr).Error("basket mutation failed")
		return bc.fail(&OperationError{Op: op, Err: callErr})
	}
	if reloadErr != nil {
		bc.metrics.basketMutation(op, OutcomeFailure)
		return bc.fail(reloadErr)
	}

	bc.metrics.basketMutation(op, OutcomeSuccess)
	return nil
}

func (bc *BasketController) fail(err error) error {
	msg := UserMessage(err)
	op := ""
	var opErr *OperationError
	if errors.As(err, &opErr) {
		op = opErr.Op
	}
	bc.publisher.Publish(events.EventMutationFailed, events.MutationFailed{Operation: op, Message: msg})
	bc.publisher.Notify(events.LevelError, msg)
	return err
}

func (bc *BasketController) reject(op string) error {
	bc.metrics.basketMutation(op, OutcomeRejected)
	return ErrQuantityLimit
}

// Increase adds one unit of the line's product. The backend basket is additive,
// so this is "add 1 of product", not "set quantity + 1".
func (bc *BasketController) Increase(ctx context.Context, lineID string) error {
	line, ok := findLine(bc.Lines(), lineID)
	if !ok {
		return ErrLineNotFound
	}
	return bc.mutate(ctx, OpIncrease, func(ctx context.Context) error {
		return bc.client.AddUnifiedItem(ctx, models.UnifiedItem{ProductID: line.ProductID, Quantity: 1})
	})
}

// Decrease deletes the whole basket line and lets the reload show what the
// server kept.
func (bc *BasketController) Decrease(ctx context.Context, lineID string) error {
	return bc.mutate(ctx, OpDecrease, func(ctx context.Context) error {
		return bc.client.DeleteLine(ctx, lineID)
	})
}

// AddonIncrease adds one unit of an addon under its parent line. An addon with
// no parent in the current lines is logged and ignored.
func (bc *BasketController) AddonIncrease(ctx context.Context, addonLineID string) error {
	parent, addon, ok := findAddonParent(bc.Lines(), addonLineID)
	if !ok {
		utils.ErrorLogger.WithField("addon_line_id", addonLineID).Error(ErrAddonParentNotFound)
		return nil
	}
	if !CanIncreaseAddon(addon) {
		return bc.reject(OpAddonAdd)
	}

	parentLineID := parent.LineID
	return bc.mutate(ctx, OpAddonAdd, func(ctx context.Context) error {
		return bc.client.BatchAddItems(ctx, []models.BatchItem{{
			ProductID:    addon.ProductID,
			Quantity:     1,
			ParentLineID: &parentLineID,
		}})
	})
}

// AddonDecrease removes the addon's own basket line, mirroring Decrease.
func (bc *BasketController) AddonDecrease(ctx context.Context, addonLineID string) error {
	_, addon, ok := findAddonParent(bc.Lines(), addonLineID)
	if !ok {
		utils.ErrorLogger.WithField("addon_line_id", addonLineID).Error(ErrAddonParentNotFound)
		return nil
	}
	if !CanDecreaseAddon(addon) {
		return bc.reject(OpAddonRemove)
	}
	return bc.mutate(ctx, OpAddonRemove, func(ctx context.Context) error {
		return bc.client.DeleteLine(ctx, addon.LineID)
	})
}

// ExtraToggle flips a removal extra between "ingredient removed" and "added back".
func (bc *BasketController) ExtraToggle(ctx context.Context, lineID, extraID string) error {
	line, ok := findLine(bc.Lines(), lineID)
	if !ok {
		return ErrLineNotFound
	}
	next := 1
	if extra, found := line.FindExtra(extraID); found && extra.Quantity > 0 {
		next = 0
	}
	return bc.setExtra(ctx, line, extraID, next)
}

func (bc *BasketController) ExtraIncrease(ctx context.Context, lineID, extraID string) error {
	line, ok := findLine(bc.Lines(), lineID)
	if !ok {
		return ErrLineNotFound
	}
	extra, found := line.FindExtra(extraID)
	if found && !CanIncreaseExtra(extra) {
		return bc.reject(OpExtraUpdate)
	}
	return bc.setExtra(ctx, line, extraID, extra.Quantity+1)
}

func (bc *BasketController) ExtraDecrease(ctx context.Context, lineID, extraID string) error {
	line, ok := findLine(bc.Lines(), lineID)
	if !ok {
		return ErrLineNotFound
	}
	extra, found := line.FindExtra(extraID)
	if !found {
		return ErrExtraNotFound
	}
	if !CanDecreaseExtra(extra) {
		return bc.reject(OpExtraUpdate)
	}
	return bc.setExtra(ctx, line, extraID, extra.Quantity-1)
}

// setExtra sends the full set of extra totals for the line with one value changed.
func (bc *BasketController) setExtra(ctx context.Context, line models.CartLine, extraID string, quantity int) error {
	payload := make([]models.ExtraQuantity, 0, len(line.Extras)+1)
	replaced := false
	for _, e := range line.Extras {
		q := e.Quantity
		if e.ExtraID == extraID {
			q = quantity
			replaced = true
		}
		payload = append(payload, models.ExtraQuantity{ExtraID: e.ExtraID, Quantity: q})
	}
	if !replaced {
		payload = append(payload, models.ExtraQuantity{ExtraID: extraID, Quantity: quantity})
	}

	lineID := line.LineID
	return bc.mutate(ctx, OpExtraUpdate, func(ctx context.Context) error {
		return bc.client.UpdateLineExtras(ctx, lineID, payload)
	})
}

func (bc *BasketController) RemoveLine(ctx context.Context, lineID string) error {
	return bc.mutate(ctx, OpRemoveLine, func(ctx context.Context) error {
		return bc.client.DeleteLine(ctx, lineID)
	})
}

func (bc *BasketController) Clear(ctx context.Context) error {
	return bc.mutate(ctx, OpClearBasket, func(ctx context.Context) error {
		return bc.client.DeleteBasket(ctx)
	})
}

// ConfirmPriceChanges asks the basket service to accept the current prices and
// returns its human-readable summary.
func (bc *BasketController) ConfirmPriceChanges(ctx context.Context) (*models.PriceChangeSummary, error) {
	summary, err := bc.client.ConfirmPriceChanges(ctx, bc.BasketID())
	if err != nil {
		return nil, &OperationError{Op: OpConfirmPrice, Err: err}
	}
	return summary, nil
}

// Lines returns a copy of the last reloaded lines.
func (bc *BasketController) Lines() []models.CartLine {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return append([]models.CartLine(nil), bc.lines...)
}

func (bc *BasketController) BasketID() string {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.basketID
}

func (bc *BasketController) Total() decimal.Decimal {
	return CartTotal(bc.Lines())
}

func (bc *BasketController) Grouped() []models.GroupedCartItem {
	return GroupCartItems(bc.Lines())
}

// Loading reports whether a basket call is in flight. The UI disables the
// mutating controls while it is set.
func (bc *BasketController) Loading() bool {
	return bc.loading.Load() > 0
}

func (bc *BasketController) View() CartView {
	bc.mu.RLock()
	basketID := bc.basketID
	lines := append([]models.CartLine(nil), bc.lines...)
	bc.mu.RUnlock()
	return BuildCartView(basketID, lines, bc.Loading())
}
