package services

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/yeremiapane/pos-dashboard/models"
	"github.com/yeremiapane/pos-dashboard/utils"
)

func init() {
	utils.SilenceLoggers()
}

type mockBasketClient struct {
	mock.Mock
}

func (m *mockBasketClient) GetBasket(ctx context.Context) (*models.Basket, error) {
	args := m.Called(ctx)
	basket, _ := args.Get(0).(*models.Basket)
	return basket, args.Error(1)
}

func (m *mockBasketClient) AddUnifiedItem(ctx context.Context, item models.UnifiedItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *mockBasketClient) BatchAddItems(ctx context.Context, items []models.BatchItem) error {
	return m.Called(ctx, items).Error(0)
}

func (m *mockBasketClient) UpdateLineExtras(ctx context.Context, lineID string, extras []models.ExtraQuantity) error {
	return m.Called(ctx, lineID, extras).Error(0)
}

func (m *mockBasketClient) DeleteLine(ctx context.Context, lineID string) error {
	return m.Called(ctx, lineID).Error(0)
}

func (m *mockBasketClient) DeleteBasket(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockBasketClient) ConfirmPriceChanges(ctx context.Context, basketID string) (*models.PriceChangeSummary, error) {
	args := m.Called(ctx, basketID)
	summary, _ := args.Get(0).(*models.PriceChangeSummary)
	return summary, args.Error(1)
}

type mockOrderClient struct {
	mock.Mock
}

func (m *mockOrderClient) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.CreateOrderResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*models.CreateOrderResponse)
	return resp, args.Error(1)
}

func (m *mockOrderClient) Track(ctx context.Context, orderTag string) (*models.TrackingInfo, error) {
	args := m.Called(ctx, orderTag)
	info, _ := args.Get(0).(*models.TrackingInfo)
	return info, args.Error(1)
}

func (m *mockOrderClient) GetUpdatableOrders(ctx context.Context, orderTags []string) ([]models.UpdatableOrder, error) {
	args := m.Called(ctx, orderTags)
	list, _ := args.Get(0).([]models.UpdatableOrder)
	return list, args.Error(1)
}

func (m *mockOrderClient) UpdatePendingOrder(ctx context.Context, req models.UpdatePendingOrderRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockOrderClient) CancelOrder(ctx context.Context, req models.CancelOrderRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockOrderClient) CanCancel(status models.OrderStatus) bool {
	return status == models.OrderStatusPending
}

type staticOrderTypes []models.OrderType

func (s staticOrderTypes) OrderTypes(ctx context.Context) ([]models.OrderType, error) {
	return s, nil
}

// memoryStore is a KeyValueStore that records writes.
type memoryStore struct {
	mu     sync.Mutex
	values map[string]string
	writes int
	// failWrites, when set, is returned by SetItem and RemoveItem.
	failWrites error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: make(map[string]string)}
}

func (s *memoryStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *memoryStore) SetItem(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites != nil {
		return s.failWrites
	}
	s.values[key] = value
	s.writes++
	return nil
}

func (s *memoryStore) RemoveItem(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites != nil {
		return s.failWrites
	}
	delete(s.values, key)
	s.writes++
	return nil
}
