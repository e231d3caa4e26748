package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/yeremiapane/pos-dashboard/models"
)

// OrderAPI talks to the backend order endpoints.
type OrderAPI struct {
	client      *Client
	cancellable map[models.OrderStatus]struct{}
}

// NewOrderAPI builds an OrderAPI. cancellable lists the statuses for which the
// backend accepts a cancellation; it defaults to Pending only.
func NewOrderAPI(client *Client, cancellable ...models.OrderStatus) *OrderAPI {
	if len(cancellable) == 0 {
		cancellable = []models.OrderStatus{models.OrderStatusPending}
	}
	set := make(map[models.OrderStatus]struct{}, len(cancellable))
	for _, s := range cancellable {
		set[s] = struct{}{}
	}
	return &OrderAPI{client: client, cancellable: set}
}

func (o *OrderAPI) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.CreateOrderResponse, error) {
	var resp models.CreateOrderResponse
	if err := o.client.do(ctx, http.MethodPost, "/api/orders", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (o *OrderAPI) Track(ctx context.Context, orderTag string) (*models.TrackingInfo, error) {
	path := fmt.Sprintf("/api/orders/track/%s", url.PathEscape(orderTag))
	var info models.TrackingInfo
	if err := o.client.do(ctx, http.MethodGet, path, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (o *OrderAPI) GetUpdatableOrders(ctx context.Context, orderTags []string) ([]models.UpdatableOrder, error) {
	payload := struct {
		OrderTags []string `json:"orderTags"`
	}{OrderTags: orderTags}

	var orders []models.UpdatableOrder
	if err := o.client.do(ctx, http.MethodPost, "/api/orders/updatable", payload, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (o *OrderAPI) UpdatePendingOrder(ctx context.Context, req models.UpdatePendingOrderRequest) error {
	path := fmt.Sprintf("/api/orders/%s/pending", url.PathEscape(req.OrderTag))
	return o.client.do(ctx, http.MethodPut, path, req, nil)
}

func (o *OrderAPI) CancelOrder(ctx context.Context, req models.CancelOrderRequest) error {
	path := fmt.Sprintf("/api/orders/%s/cancel", url.PathEscape(req.OrderTag))
	return o.client.do(ctx, http.MethodPost, path, req, nil)
}

// CanCancel is evaluated locally from the configured statuses.
func (o *OrderAPI) CanCancel(status models.OrderStatus) bool {
	_, ok := o.cancellable[status]
	return ok
}

// OrderTypeAPI serves the selectable order types.
type OrderTypeAPI struct {
	client *Client
}

func NewOrderTypeAPI(client *Client) *OrderTypeAPI {
	return &OrderTypeAPI{client: client}
}

func (t *OrderTypeAPI) OrderTypes(ctx context.Context) ([]models.OrderType, error) {
	var types []models.OrderType
	if err := t.client.do(ctx, http.MethodGet, "/api/order-types", nil, &types); err != nil {
		return nil, err
	}
	return types, nil
}
