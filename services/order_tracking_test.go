package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/pos-dashboard/events"
	"github.com/yeremiapane/pos-dashboard/models"
)

func trackedOrder(tag string, status models.OrderStatus) models.TrackedOrder {
	return models.TrackedOrder{
		OrderTag: tag,
		TrackingInfo: models.TrackingInfo{
			OrderID:     "id-" + tag,
			OrderTag:    tag,
			OrderStatus: status,
		},
		CreatedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func newTestRegistry(orders *mockOrderClient) (*TrackingRegistry, *memoryStore) {
	store := newMemoryStore()
	return NewTrackingRegistry(store, orders, events.NewHub(), NewMetrics()), store
}

func TestAddPersistsWholeList(t *testing.T) {
	orders := &mockOrderClient{}
	orders.On("GetUpdatableOrders", mock.Anything, mock.Anything).Return([]models.UpdatableOrder{}, nil)
	registry, store := newTestRegistry(orders)
	ctx := context.Background()

	require.NoError(t, registry.Add(ctx, trackedOrder("A1", models.OrderStatusPending)))
	require.NoError(t, registry.Add(ctx, trackedOrder("B2", models.OrderStatusReady)))

	raw, found, err := store.GetItem(ctx, TrackedOrdersKey)
	require.NoError(t, err)
	require.True(t, found)

	var persisted []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &persisted))
	require.Len(t, persisted, 2)
	assert.Equal(t, "A1", persisted[0]["orderTag"])
	assert.Equal(t, "2026-03-14T09:30:00Z", persisted[0]["createdAt"])
	assert.True(t, registry.HasPending())
}

func TestRemovingLastOrderClearsStorageKey(t *testing.T) {
	orders := &mockOrderClient{}
	orders.On("GetUpdatableOrders", mock.Anything, mock.Anything).Return([]models.UpdatableOrder{}, nil)
	registry, store := newTestRegistry(orders)
	ctx := context.Background()

	require.NoError(t, registry.Add(ctx, trackedOrder("A1", models.OrderStatusPending)))
	require.NoError(t, registry.Remove(ctx, "A1"))

	_, found, err := store.GetItem(ctx, TrackedOrdersKey)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, registry.Orders())
	assert.ErrorIs(t, registry.Remove(ctx, "A1"), ErrOrderNotTracked)
}

func TestFailedWriteLeavesRegistryUnchanged(t *testing.T) {
	orders := &mockOrderClient{}
	orders.On("GetUpdatableOrders", mock.Anything, mock.Anything).Return([]models.UpdatableOrder{}, nil)
	orders.On("Track", mock.Anything, "A1").Return(&models.TrackingInfo{OrderTag: "A1", OrderStatus: models.OrderStatusReady}, nil)
	registry, store := newTestRegistry(orders)
	ctx := context.Background()

	require.NoError(t, registry.Add(ctx, trackedOrder("A1", models.OrderStatusPending)))
	saved, _, _ := store.GetItem(ctx, TrackedOrdersKey)

	store.failWrites = errors.New("disk full")

	assert.Error(t, registry.Add(ctx, trackedOrder("B2", models.OrderStatusPending)))
	assert.Error(t, registry.Remove(ctx, "A1"))
	_, err := registry.LoadTracking(ctx, "A1")
	assert.Error(t, err)

	kept := registry.Orders()
	require.Len(t, kept, 1)
	assert.Equal(t, "A1", kept[0].OrderTag)
	assert.Equal(t, models.OrderStatusPending, kept[0].TrackingInfo.OrderStatus)

	raw, found, err := store.GetItem(ctx, TrackedOrdersKey)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, saved, raw)
}

func TestRestoreParsesISODates(t *testing.T) {
	orders := &mockOrderClient{}
	orders.On("GetUpdatableOrders", mock.Anything, []string{"A1"}).Return([]models.UpdatableOrder{{OrderTag: "A1", IsUpdatable: true}}, nil).Once()
	registry, store := newTestRegistry(orders)
	ctx := context.Background()

	require.NoError(t, store.SetItem(ctx, TrackedOrdersKey,
		`[{"orderTag":"A1","trackingInfo":{"orderTag":"A1","orderStatus":"Pending"},"createdAt":"2026-03-14T09:30:00.000Z"}]`))

	require.NoError(t, registry.Restore(ctx))

	got, ok := registry.Get("A1")
	require.True(t, ok)
	assert.True(t, got.CreatedAt.Equal(time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)))
	_, ok = registry.Updatable("A1")
	assert.True(t, ok)
}

func TestRestoreDiscardsUnreadableData(t *testing.T) {
	registry, store := newTestRegistry(&mockOrderClient{})
	ctx := context.Background()
	require.NoError(t, store.SetItem(ctx, TrackedOrdersKey, "{not json"))

	require.NoError(t, registry.Restore(ctx))
	assert.Empty(t, registry.Orders())
}

func TestRefreshPendingIsolatesFailures(t *testing.T) {
	orders := &mockOrderClient{}
	orders.On("GetUpdatableOrders", mock.Anything, mock.Anything).Return([]models.UpdatableOrder{}, nil)
	registry, _ := newTestRegistry(orders)
	ctx := context.Background()

	for _, o := range []models.TrackedOrder{
		trackedOrder("A1", models.OrderStatusPending),
		trackedOrder("B2", models.OrderStatusPending),
		trackedOrder("C3", models.OrderStatusDelivered),
	} {
		require.NoError(t, registry.Add(ctx, o))
	}

	orders.On("Track", mock.Anything, "A1").Return(nil, errors.New("timeout")).Once()
	orders.On("Track", mock.Anything, "B2").Return(&models.TrackingInfo{OrderTag: "B2", OrderStatus: models.OrderStatusReady}, nil).Once()

	err := registry.RefreshPending(ctx)

	assert.Error(t, err)
	b2, _ := registry.Get("B2")
	assert.Equal(t, models.OrderStatusReady, b2.TrackingInfo.OrderStatus)
	orders.AssertNotCalled(t, "Track", mock.Anything, "C3")
}

func TestViewsEvaluateEditability(t *testing.T) {
	deadline := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	orders := &mockOrderClient{}
	orders.On("GetUpdatableOrders", mock.Anything, mock.Anything).Return([]models.UpdatableOrder{
		{OrderTag: "A1", IsUpdatable: true, UpdateDeadline: &deadline},
	}, nil)
	registry, _ := newTestRegistry(orders)
	require.NoError(t, registry.Add(context.Background(), trackedOrder("A1", models.OrderStatusPending)))

	views := registry.Views(deadline.Add(-2 * time.Minute))

	require.Len(t, views, 1)
	assert.True(t, views[0].Editable)
	assert.Equal(t, "02:00", views[0].Countdown)
}
