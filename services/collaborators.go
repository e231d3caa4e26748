package services

import (
	"context"

	"github.com/yeremiapane/pos-dashboard/models"
)

// BasketClient is the remote basket service. It owns basket state, addon and
// extra limits and price recomputation.
type BasketClient interface {
	GetBasket(ctx context.Context) (*models.Basket, error)
	AddUnifiedItem(ctx context.Context, item models.UnifiedItem) error
	BatchAddItems(ctx context.Context, items []models.BatchItem) error
	UpdateLineExtras(ctx context.Context, lineID string, extras []models.ExtraQuantity) error
	DeleteLine(ctx context.Context, lineID string) error
	DeleteBasket(ctx context.Context) error
	ConfirmPriceChanges(ctx context.Context, basketID string) (*models.PriceChangeSummary, error)
}

// OrderClient is the remote order service.
type OrderClient interface {
	CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.CreateOrderResponse, error)
	Track(ctx context.Context, orderTag string) (*models.TrackingInfo, error)
	GetUpdatableOrders(ctx context.Context, orderTags []string) ([]models.UpdatableOrder, error)
	UpdatePendingOrder(ctx context.Context, req models.UpdatePendingOrderRequest) error
	CancelOrder(ctx context.Context, req models.CancelOrderRequest) error
	CanCancel(status models.OrderStatus) bool
}

// OrderTypeProvider lists the selectable order types.
type OrderTypeProvider interface {
	OrderTypes(ctx context.Context) ([]models.OrderType, error)
}

// KeyValueStore is the durable local storage used for tracked orders.
// GetItem returns found=false for a missing key.
type KeyValueStore interface {
	GetItem(ctx context.Context, key string) (value string, found bool, err error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}
