package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/pos-dashboard/events"
	"github.com/yeremiapane/pos-dashboard/models"
	"github.com/yeremiapane/pos-dashboard/utils"
)

// TrackedOrdersKey is the storage key holding the tracked order list.
const TrackedOrdersKey = "trackedOrders"

// TrackingRegistry remembers submitted orders and mirrors the whole list into
// durable storage after every change. It also caches the updatable-order
// metadata for the tracked set.
type TrackingRegistry struct {
	store     KeyValueStore
	orders    OrderClient
	publisher events.Publisher
	metrics   *Metrics

	mu        sync.RWMutex
	tracked   []models.TrackedOrder
	updatable map[string]models.UpdatableOrder
	listeners []func()
}

func NewTrackingRegistry(store KeyValueStore, orders OrderClient, publisher events.Publisher, metrics *Metrics) *TrackingRegistry {
	return &TrackingRegistry{
		store:     store,
		orders:    orders,
		publisher: publisher,
		metrics:   metrics,
		updatable: make(map[string]models.UpdatableOrder),
	}
}

// OnChange registers fn to run after the tracked set or a status changes.
func (r *TrackingRegistry) OnChange(fn func()) {
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

func (r *TrackingRegistry) changed() {
	r.mu.RLock()
	listeners := append([]func(){}, r.listeners...)
	n := len(r.tracked)
	r.mu.RUnlock()

	r.metrics.setTrackedOrders(n)
	for _, fn := range listeners {
		fn()
	}
}

// Restore rehydrates the list from storage. Unreadable data is logged and
// treated as an empty list.
func (r *TrackingRegistry) Restore(ctx context.Context) error {
	raw, found, err := r.store.GetItem(ctx, TrackedOrdersKey)
	if err != nil {
		return fmt.Errorf("failed to read tracked orders: %w", err)
	}

	var tracked []models.TrackedOrder
	if found && raw != "" {
		if err := json.Unmarshal([]byte(raw), &tracked); err != nil {
			utils.ErrorLogger.WithError(err).Error("discarding unreadable tracked orders")
			tracked = nil
		}
	}

	r.mu.Lock()
	r.tracked = tracked
	r.mu.Unlock()

	utils.InfoLogger.WithField("count", len(tracked)).Info("tracked orders restored")
	r.changed()
	r.refreshUpdatableQuietly(ctx)
	return nil
}

// persist writes list as the whole stored value, or clears the key when it is
// empty. Callers hold r.mu and assign list to r.tracked only on success.
func (r *TrackingRegistry) persist(ctx context.Context, list []models.TrackedOrder) error {
	if len(list) == 0 {
		if err := r.store.RemoveItem(ctx, TrackedOrdersKey); err != nil {
			return fmt.Errorf("failed to clear tracked orders: %w", err)
		}
		return nil
	}

	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to encode tracked orders: %w", err)
	}
	if err := r.store.SetItem(ctx, TrackedOrdersKey, string(data)); err != nil {
		return fmt.Errorf("failed to save tracked orders: %w", err)
	}
	return nil
}

// Add registers an order, replacing any entry with the same tag.
func (r *TrackingRegistry) Add(ctx context.Context, order models.TrackedOrder) error {
	r.mu.Lock()
	next := append(make([]models.TrackedOrder, 0, len(r.tracked)+1), r.tracked...)
	replaced := false
	for i := range next {
		if next[i].OrderTag == order.OrderTag {
			next[i] = order
			replaced = true
			break
		}
	}
	if !replaced {
		next = append(next, order)
	}
	if err := r.persist(ctx, next); err != nil {
		r.mu.Unlock()
		return err
	}
	r.tracked = next
	r.mu.Unlock()

	utils.InfoLogger.WithField("order_tag", order.OrderTag).Info("order added to tracking")
	r.publisher.Publish(events.EventTrackingUpdated, order)
	r.changed()
	r.refreshUpdatableQuietly(ctx)
	return nil
}

// Remove forgets an order. Removing the last one clears the storage key.
func (r *TrackingRegistry) Remove(ctx context.Context, orderTag string) error {
	r.mu.Lock()
	idx := -1
	for i := range r.tracked {
		if r.tracked[i].OrderTag == orderTag {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.mu.Unlock()
		return ErrOrderNotTracked
	}
	next := append(r.tracked[:idx:idx], r.tracked[idx+1:]...)
	if err := r.persist(ctx, next); err != nil {
		r.mu.Unlock()
		return err
	}
	r.tracked = next
	delete(r.updatable, orderTag)
	r.mu.Unlock()

	utils.InfoLogger.WithField("order_tag", orderTag).Info("order removed from tracking")
	r.publisher.Publish(events.EventTrackingRemoved, events.OrderRef{OrderTag: orderTag})
	r.changed()
	r.refreshUpdatableQuietly(ctx)
	return nil
}

func (r *TrackingRegistry) Orders() []models.TrackedOrder {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.TrackedOrder(nil), r.tracked...)
}

func (r *TrackingRegistry) Get(orderTag string) (models.TrackedOrder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.tracked {
		if o.OrderTag == orderTag {
			return o, true
		}
	}
	return models.TrackedOrder{}, false
}

// HasPending reports whether any tracked order is still Pending.
func (r *TrackingRegistry) HasPending() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.tracked {
		if o.IsPending() {
			return true
		}
	}
	return false
}

// LoadTracking refreshes a single order's tracking info and persists it.
func (r *TrackingRegistry) LoadTracking(ctx context.Context, orderTag string) (models.TrackedOrder, error) {
	if _, ok := r.Get(orderTag); !ok {
		return models.TrackedOrder{}, ErrOrderNotTracked
	}

	info, err := r.orders.Track(ctx, orderTag)
	if err != nil {
		r.metrics.trackingRefreshed(OutcomeFailure)
		return models.TrackedOrder{}, &OperationError{Op: "load order tracking", Err: err}
	}

	r.mu.Lock()
	next := append([]models.TrackedOrder(nil), r.tracked...)
	var updated models.TrackedOrder
	found := false
	for i := range next {
		if next[i].OrderTag == orderTag {
			next[i].TrackingInfo = *info
			updated = next[i]
			found = true
			break
		}
	}
	if !found {
		// removed while the request was in flight
		r.mu.Unlock()
		return models.TrackedOrder{}, ErrOrderNotTracked
	}
	if err := r.persist(ctx, next); err != nil {
		r.mu.Unlock()
		return models.TrackedOrder{}, err
	}
	r.tracked = next
	r.mu.Unlock()

	r.metrics.trackingRefreshed(OutcomeSuccess)
	r.publisher.Publish(events.EventTrackingUpdated, updated)
	r.changed()
	return updated, nil
}

// RefreshPending reloads tracking for every pending order one at a time. A
// failure for one order does not stop the others; all failures are joined.
func (r *TrackingRegistry) RefreshPending(ctx context.Context) error {
	var errs []error
	for _, o := range r.Orders() {
		if !o.IsPending() {
			continue
		}
		if _, err := r.LoadTracking(ctx, o.OrderTag); err != nil {
			utils.ErrorLogger.WithFields(logrus.Fields{
				"order_tag": o.OrderTag,
			}).WithError(err).Warn("tracking refresh failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RefreshUpdatable re-fetches the updatable metadata for the whole tracked set
// and replaces the cache.
func (r *TrackingRegistry) RefreshUpdatable(ctx context.Context) error {
	tracked := r.Orders()
	if len(tracked) == 0 {
		r.mu.Lock()
		r.updatable = make(map[string]models.UpdatableOrder)
		r.mu.Unlock()
		return nil
	}

	tags := make([]string, 0, len(tracked))
	for _, o := range tracked {
		tags = append(tags, o.OrderTag)
	}

	list, err := r.orders.GetUpdatableOrders(ctx, tags)
	if err != nil {
		return &OperationError{Op: "load updatable orders", Err: err}
	}

	next := make(map[string]models.UpdatableOrder, len(list))
	for _, u := range list {
		next[u.OrderTag] = u
	}
	r.mu.Lock()
	r.updatable = next
	r.mu.Unlock()

	r.publisher.Publish(events.EventUpdatableRefreshed, list)
	return nil
}

func (r *TrackingRegistry) refreshUpdatableQuietly(ctx context.Context) {
	if err := r.RefreshUpdatable(ctx); err != nil {
		utils.ErrorLogger.WithError(err).Warn("updatable orders refresh failed")
	}
}

func (r *TrackingRegistry) Updatable(orderTag string) (models.UpdatableOrder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.updatable[orderTag]
	return u, ok
}

// TrackedOrderView pairs a tracked order with its edit metadata.
type TrackedOrderView struct {
	models.TrackedOrder
	Updatable *models.UpdatableOrder `json:"updatable,omitempty"`
	Editable  bool                   `json:"editable"`
	Countdown string                 `json:"countdown,omitempty"`
}

// Views returns every tracked order with the edit affordances evaluated at now.
func (r *TrackingRegistry) Views(now time.Time) []TrackedOrderView {
	tracked := r.Orders()
	views := make([]TrackedOrderView, 0, len(tracked))
	for _, o := range tracked {
		v := TrackedOrderView{TrackedOrder: o}
		if u, ok := r.Updatable(o.OrderTag); ok {
			u := u
			v.Updatable = &u
			v.Editable = IsEditable(o, u)
			if u.UpdateDeadline != nil {
				v.Countdown = FormatCountdown(*u.UpdateDeadline, now)
			}
		}
		views = append(views, v)
	}
	return views
}
