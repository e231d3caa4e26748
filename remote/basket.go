package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/yeremiapane/pos-dashboard/models"
)

// BasketAPI talks to the backend basket endpoints.
type BasketAPI struct {
	client *Client
}

func NewBasketAPI(client *Client) *BasketAPI {
	return &BasketAPI{client: client}
}

func (b *BasketAPI) GetBasket(ctx context.Context) (*models.Basket, error) {
	var basket models.Basket
	if err := b.client.do(ctx, http.MethodGet, "/api/basket", nil, &basket); err != nil {
		return nil, err
	}
	return &basket, nil
}

func (b *BasketAPI) AddUnifiedItem(ctx context.Context, item models.UnifiedItem) error {
	return b.client.do(ctx, http.MethodPost, "/api/basket/unified-items", item, nil)
}

func (b *BasketAPI) BatchAddItems(ctx context.Context, items []models.BatchItem) error {
	return b.client.do(ctx, http.MethodPost, "/api/basket/items/batch", items, nil)
}

func (b *BasketAPI) UpdateLineExtras(ctx context.Context, lineID string, extras []models.ExtraQuantity) error {
	path := fmt.Sprintf("/api/basket/lines/%s/extras", url.PathEscape(lineID))
	return b.client.do(ctx, http.MethodPut, path, extras, nil)
}

func (b *BasketAPI) DeleteLine(ctx context.Context, lineID string) error {
	path := fmt.Sprintf("/api/basket/lines/%s", url.PathEscape(lineID))
	return b.client.do(ctx, http.MethodDelete, path, nil, nil)
}

func (b *BasketAPI) DeleteBasket(ctx context.Context) error {
	return b.client.do(ctx, http.MethodDelete, "/api/basket", nil, nil)
}

func (b *BasketAPI) ConfirmPriceChanges(ctx context.Context, basketID string) (*models.PriceChangeSummary, error) {
	path := fmt.Sprintf("/api/basket/%s/confirm-price-changes", url.PathEscape(basketID))
	var summary models.PriceChangeSummary
	if err := b.client.do(ctx, http.MethodPost, path, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}
