package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/pos-dashboard/events"
	"github.com/yeremiapane/pos-dashboard/models"
	"github.com/yeremiapane/pos-dashboard/remote"
)

var testOrderTypes = staticOrderTypes{
	{ID: "dine-in", Name: "Dine In", RequiresTable: true},
	{
		ID:                   "delivery",
		Name:                 "Delivery",
		RequiresCustomerName: true,
		RequiresAddress:      true,
		RequiresPhone:        true,
		MinOrderAmount:       decimal.NewFromInt(50),
	},
}

type creatorFixture struct {
	basketClient *mockBasketClient
	orders       *mockOrderClient
	basket       *BasketController
	registry     *TrackingRegistry
	store        *memoryStore
	creator      *OrderCreator
	createdIDs   []string
}

func newCreatorFixture(t *testing.T) *creatorFixture {
	t.Helper()
	f := &creatorFixture{
		basketClient: &mockBasketClient{},
		orders:       &mockOrderClient{},
	}
	hub := events.NewHub()
	metrics := NewMetrics()

	f.basket = NewBasketController(f.basketClient, hub, metrics)
	f.basketClient.On("GetBasket", mock.Anything).Return(basketWith(burgerLine(1)), nil).Once()
	require.NoError(t, f.basket.Load(context.Background()))

	f.store = newMemoryStore()
	f.registry = NewTrackingRegistry(f.store, f.orders, hub, metrics)
	f.creator = NewOrderCreator(f.basket, f.orders, testOrderTypes, f.registry, hub, metrics)
	f.creator.OnOrderCreated = func(orderID string) {
		f.createdIDs = append(f.createdIDs, orderID)
	}
	f.creator.SetForm(models.OrderForm{
		CustomerName: "Ayu",
		OrderTypeID:  "dine-in",
		TableID:      "T7",
		Notes:        "no ice",
	})
	return f
}

func (f *creatorFixture) expectSuccessFollowUp() {
	f.basketClient.On("DeleteBasket", mock.Anything).Return(nil).Once()
	f.basketClient.On("GetBasket", mock.Anything).Return(basketWith(), nil).Once()
	f.orders.On("GetUpdatableOrders", mock.Anything, mock.Anything).Return([]models.UpdatableOrder{}, nil)
	f.orders.On("Track", mock.Anything, "ORD-42").Return(&models.TrackingInfo{
		OrderID: "42", OrderTag: "ORD-42", OrderStatus: models.OrderStatusPending,
	}, nil)
}

func confirmed(want bool) interface{} {
	return mock.MatchedBy(func(req models.CreateOrderRequest) bool {
		return req.PriceChangesConfirmed == want
	})
}

var priceConflict = &remote.APIError{StatusCode: http.StatusConflict, Message: "Unconfirmed price changes detected."}

func TestSubmitCreatesAndTracksOrder(t *testing.T) {
	f := newCreatorFixture(t)
	f.orders.On("CreateOrder", mock.Anything, models.CreateOrderRequest{
		BasketID:     "basket-1",
		OrderTypeID:  "dine-in",
		CustomerName: "Ayu",
		Notes:        "no ice",
		TableID:      "T7",
	}).Return(&models.CreateOrderResponse{OrderID: "42", OrderTag: "ORD-42"}, nil).Once()
	f.expectSuccessFollowUp()

	require.NoError(t, f.creator.Submit(context.Background()))

	assert.Equal(t, StateSucceeded, f.creator.State())
	assert.Empty(t, f.basket.Lines())
	assert.Equal(t, models.OrderForm{TableID: "T7"}, f.creator.Form())
	assert.Equal(t, []string{"42"}, f.createdIDs)
	require.Len(t, f.registry.Orders(), 1)
	assert.Equal(t, "ORD-42", f.registry.Orders()[0].OrderTag)
}

func TestSubmitCollectsEveryViolation(t *testing.T) {
	f := newCreatorFixture(t)
	f.creator.SetForm(models.OrderForm{OrderTypeID: "delivery"})

	err := f.creator.Submit(context.Background())

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Len(t, valErr.Violations, 4)
	assert.Equal(t, StateIdle, f.creator.State())
	assert.Equal(t, valErr.Violations, f.creator.Violations())
	f.orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestSubmitWithoutOrderType(t *testing.T) {
	f := newCreatorFixture(t)
	f.creator.SetForm(models.OrderForm{})

	err := f.creator.Submit(context.Background())

	require.Error(t, err)
	assert.Contains(t, f.creator.Violations(), "Order type is required")
}

func TestPriceChangeConfirmedRetrySucceeds(t *testing.T) {
	f := newCreatorFixture(t)
	summary := &models.PriceChangeSummary{Message: "Burger went from 10 to 11"}
	f.orders.On("CreateOrder", mock.Anything, confirmed(false)).Return(nil, priceConflict).Once()
	f.basketClient.On("ConfirmPriceChanges", mock.Anything, "basket-1").Return(summary, nil).Once()

	require.NoError(t, f.creator.Submit(context.Background()))
	assert.Equal(t, StateConflictPending, f.creator.State())
	assert.Equal(t, summary, f.creator.PriceChangeSummary())

	f.orders.On("CreateOrder", mock.Anything, confirmed(true)).Return(&models.CreateOrderResponse{OrderID: "42", OrderTag: "ORD-42"}, nil).Once()
	f.expectSuccessFollowUp()

	require.NoError(t, f.creator.ConfirmPriceChanges(context.Background()))

	assert.Equal(t, StateSucceeded, f.creator.State())
	assert.Empty(t, f.basket.Lines())
	assert.Len(t, f.registry.Orders(), 1)
	f.orders.AssertNumberOfCalls(t, "CreateOrder", 2)
}

func TestSecondPriceConflictIsTerminal(t *testing.T) {
	f := newCreatorFixture(t)
	f.orders.On("CreateOrder", mock.Anything, mock.Anything).Return(nil, priceConflict)
	f.basketClient.On("ConfirmPriceChanges", mock.Anything, "basket-1").Return(&models.PriceChangeSummary{Message: "changed"}, nil)

	require.NoError(t, f.creator.Submit(context.Background()))
	require.Error(t, f.creator.ConfirmPriceChanges(context.Background()))

	assert.Equal(t, StateFailed, f.creator.State())
	assert.ErrorIs(t, f.creator.ConfirmPriceChanges(context.Background()), ErrNoPendingPriceChange)
	f.orders.AssertNumberOfCalls(t, "CreateOrder", 2)
	assert.Empty(t, f.registry.Orders())
}

func TestSummaryFallbackWhenUnavailable(t *testing.T) {
	f := newCreatorFixture(t)
	f.orders.On("CreateOrder", mock.Anything, confirmed(false)).Return(nil, priceConflict).Once()
	f.basketClient.On("ConfirmPriceChanges", mock.Anything, "basket-1").Return(nil, errors.New("boom")).Once()

	require.NoError(t, f.creator.Submit(context.Background()))

	assert.Equal(t, StateConflictPending, f.creator.State())
	assert.Equal(t, DefaultPriceChangeMessage, f.creator.PriceChangeSummary().Message)
}

func TestOtherConflictFailsWithServerMessage(t *testing.T) {
	f := newCreatorFixture(t)
	f.orders.On("CreateOrder", mock.Anything, mock.Anything).
		Return(nil, &remote.APIError{StatusCode: http.StatusConflict, Message: "Table T7 is occupied"}).Once()

	require.Error(t, f.creator.Submit(context.Background()))

	assert.Equal(t, StateFailed, f.creator.State())
	assert.Equal(t, "Table T7 is occupied", f.creator.FailureMessage())
	f.basketClient.AssertNotCalled(t, "ConfirmPriceChanges", mock.Anything, mock.Anything)
}

func TestTransportErrorGetsGenericMessage(t *testing.T) {
	f := newCreatorFixture(t)
	f.orders.On("CreateOrder", mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: refused")).Once()

	err := f.creator.Submit(context.Background())

	require.Error(t, err)
	assert.Equal(t, "failed to create order", f.creator.FailureMessage())
	assert.Len(t, f.basket.Lines(), 1)
}

func TestDismissConflictReturnsToIdle(t *testing.T) {
	f := newCreatorFixture(t)
	f.orders.On("CreateOrder", mock.Anything, mock.Anything).Return(nil, priceConflict).Once()
	f.basketClient.On("ConfirmPriceChanges", mock.Anything, "basket-1").Return(&models.PriceChangeSummary{Message: "x"}, nil).Once()
	require.NoError(t, f.creator.Submit(context.Background()))

	require.NoError(t, f.creator.DismissConflict())

	assert.Equal(t, StateIdle, f.creator.State())
	assert.Nil(t, f.creator.PriceChangeSummary())
	assert.ErrorIs(t, f.creator.ConfirmPriceChanges(context.Background()), ErrNoPendingPriceChange)
}
