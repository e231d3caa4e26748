package events

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yeremiapane/pos-dashboard/models"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a toast. The UI closes it by ID.
type Notification struct {
	ID      uuid.UUID `json:"id"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
}

type BasketLoaded struct {
	BasketID string            `json:"basketId"`
	Lines    []models.CartLine `json:"lines"`
	Total    decimal.Decimal   `json:"total"`
}

type MutationFailed struct {
	Operation string `json:"operation"`
	Message   string `json:"message"`
}

type OrderCreated struct {
	OrderID  string `json:"orderId"`
	OrderTag string `json:"orderTag"`
}

type CheckoutStateChanged struct {
	State   string   `json:"state"`
	Message string   `json:"message,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

type PollingStateChanged struct {
	Running bool `json:"running"`
}

type OrderRef struct {
	OrderTag string `json:"orderTag"`
}
