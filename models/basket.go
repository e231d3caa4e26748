package models

import "github.com/shopspring/decimal"

// Basket is the server-held cart as returned by the remote basket service.
type Basket struct {
	BasketID string     `json:"basketId"`
	Items    []CartLine `json:"items"`
}

// CartLine is one basket entry. LineTotal is computed by the server and already
// includes addon and extra contributions.
type CartLine struct {
	LineID      string          `json:"lineId"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	Addons      []AddonLine     `json:"addons,omitempty"`
	Extras      []ExtraLine     `json:"extras,omitempty"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

// IsPlain reports whether the line carries neither addons nor extras.
func (l CartLine) IsPlain() bool {
	return len(l.Addons) == 0 && len(l.Extras) == 0
}

// FindExtra returns the extra with the given id, if the line has it.
func (l CartLine) FindExtra(extraID string) (ExtraLine, bool) {
	for _, e := range l.Extras {
		if e.ExtraID == extraID {
			return e, true
		}
	}
	return ExtraLine{}, false
}

// AddonLine is an add-on product attached to a parent line. It is its own basket
// line on the server, hence the LineID.
type AddonLine struct {
	LineID      string          `json:"lineId"`
	ProductID   string          `json:"productId"`
	Name        string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	MinQuantity *int            `json:"minQuantity,omitempty"`
	MaxQuantity *int            `json:"maxQuantity,omitempty"`
}

// ExtraLine is a per-line modifier. Quantity is the total for the line, not a delta.
// When IsRemoval is set the extra removes a base ingredient and the quantity is
// binary (present or absent).
type ExtraLine struct {
	ExtraID     string          `json:"extraId"`
	Name        string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	MinQuantity *int            `json:"minQuantity,omitempty"`
	MaxQuantity *int            `json:"maxQuantity,omitempty"`
	IsRemoval   bool            `json:"isRemoval"`
}

// GroupedCartItem is the read-only per-product projection of the cart.
type GroupedCartItem struct {
	ProductID     string          `json:"productId"`
	ProductName   string          `json:"productName"`
	Variants      []CartLine      `json:"variants"`
	TotalQuantity int             `json:"totalQuantity"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
}

// UnifiedItem is the payload for adding units of a product to the basket.
type UnifiedItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// BatchItem adds a product, optionally as a child of an existing line.
type BatchItem struct {
	ProductID    string  `json:"productId"`
	Quantity     int     `json:"quantity"`
	ParentLineID *string `json:"parentLineId,omitempty"`
}

// ExtraQuantity sets the total quantity of one extra on a line.
type ExtraQuantity struct {
	ExtraID  string `json:"extraId"`
	Quantity int    `json:"quantity"`
}

// PriceChange is one entry of a price change summary.
type PriceChange struct {
	ProductName string          `json:"productName"`
	OldPrice    decimal.Decimal `json:"oldPrice"`
	NewPrice    decimal.Decimal `json:"newPrice"`
}

// PriceChangeSummary is shown to staff before confirming a price change.
type PriceChangeSummary struct {
	Message string        `json:"message"`
	Changes []PriceChange `json:"changes,omitempty"`
}

// IntPtr is a helper for optional quantity bounds.
func IntPtr(v int) *int {
	return &v
}
