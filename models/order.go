package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusConfirmed OrderStatus = "Confirmed"
	OrderStatusPreparing OrderStatus = "Preparing"
	OrderStatusReady     OrderStatus = "Ready"
	OrderStatusDelivered OrderStatus = "Delivered"
	OrderStatusCompleted OrderStatus = "Completed"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// OrderForm is the transient checkout input. Empty strings mean "not provided".
type OrderForm struct {
	CustomerName    string `json:"customerName"`
	Notes           string `json:"notes"`
	OrderTypeID     string `json:"orderTypeId"`
	TableID         string `json:"tableId,omitempty"`
	DeliveryAddress string `json:"deliveryAddress,omitempty"`
	CustomerPhone   string `json:"customerPhone,omitempty"`
	PaymentMethod   string `json:"paymentMethod,omitempty"`
}

// OrderType is provided by the backend; its flags decide which form fields are required.
type OrderType struct {
	ID                    string          `json:"id"`
	Name                  string          `json:"name"`
	RequiresCustomerName  bool            `json:"requiresCustomerName"`
	RequiresTable         bool            `json:"requiresTable"`
	RequiresAddress       bool            `json:"requiresAddress"`
	RequiresPhone         bool            `json:"requiresPhone"`
	RequiresPaymentMethod bool            `json:"requiresPaymentMethod"`
	MinOrderAmount        decimal.Decimal `json:"minOrderAmount"`
	ServiceCharge         decimal.Decimal `json:"serviceCharge"`
	EstimatedMinutes      int             `json:"estimatedMinutes"`
}

type CreateOrderRequest struct {
	BasketID              string `json:"basketId"`
	OrderTypeID           string `json:"orderTypeId"`
	CustomerName          string `json:"customerName,omitempty"`
	Notes                 string `json:"notes,omitempty"`
	TableID               string `json:"tableId,omitempty"`
	DeliveryAddress       string `json:"deliveryAddress,omitempty"`
	CustomerPhone         string `json:"customerPhone,omitempty"`
	PaymentMethod         string `json:"paymentMethod,omitempty"`
	PriceChangesConfirmed bool   `json:"priceChangesConfirmed"`
}

type CreateOrderResponse struct {
	OrderID  string `json:"orderId"`
	OrderTag string `json:"orderTag"`
}

// TrackingInfo is what the backend reports for a tracked order.
type TrackingInfo struct {
	OrderID          string          `json:"orderId"`
	OrderTag         string          `json:"orderTag"`
	OrderStatus      OrderStatus     `json:"orderStatus"`
	OrderTypeName    string          `json:"orderTypeName,omitempty"`
	CustomerName     string          `json:"customerName,omitempty"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	EstimatedReadyAt *time.Time      `json:"estimatedReadyAt,omitempty"`
	Items            []TrackingItem  `json:"items,omitempty"`
}

type TrackingItem struct {
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Note        string          `json:"note,omitempty"`
}

// TrackedOrder is a locally remembered reference to a submitted order.
// It is identified by OrderTag.
type TrackedOrder struct {
	OrderTag     string       `json:"orderTag"`
	TrackingInfo TrackingInfo `json:"trackingInfo"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// IsPending reports whether polling and edit affordances apply.
func (o TrackedOrder) IsPending() bool {
	return o.TrackingInfo.OrderStatus == OrderStatusPending
}

// UpdatableOrder describes whether and until when a pending order may be edited.
type UpdatableOrder struct {
	OrderTag       string               `json:"orderTag"`
	IsUpdatable    bool                 `json:"isUpdatable"`
	UpdateDeadline *time.Time           `json:"updateDeadline,omitempty"`
	RowVersion     string               `json:"rowVersion"`
	ItemCount      int                  `json:"itemCount"`
	Items          []UpdatableOrderItem `json:"items"`
}

type UpdatableOrderItem struct {
	ItemID       string          `json:"itemId"`
	ProductID    string          `json:"productId"`
	ProductName  string          `json:"productName"`
	Quantity     int             `json:"quantity"`
	Note         string          `json:"note,omitempty"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	ParentItemID *string         `json:"parentItemId,omitempty"`
	IsAddon      bool            `json:"isAddon"`
}

type UpdatePendingOrderRequest struct {
	OrderTag              string            `json:"orderTag"`
	RowVersion            string            `json:"rowVersion"`
	Items                 []UpdateOrderItem `json:"items"`
	PriceChangesConfirmed bool              `json:"priceChangesConfirmed"`
}

type UpdateOrderItem struct {
	ItemID       string  `json:"itemId"`
	ProductID    string  `json:"productId"`
	Quantity     int     `json:"quantity"`
	Note         string  `json:"note,omitempty"`
	ParentItemID *string `json:"parentItemId,omitempty"`
	IsAddon      bool    `json:"isAddon"`
}

type CancelOrderRequest struct {
	OrderTag   string `json:"orderTag"`
	RowVersion string `json:"rowVersion"`
	Reason     string `json:"reason,omitempty"`
}
