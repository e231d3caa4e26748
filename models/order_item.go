package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// EditState tags an item in an edit session.
type EditState int

const (
	EditStateActive EditState = iota
	EditStateMarkedForDeletion
)

func (s EditState) String() string {
	if s == EditStateMarkedForDeletion {
		return "marked_for_deletion"
	}
	return "active"
}

func (s EditState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *EditState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "active":
		*s = EditStateActive
	case "marked_for_deletion":
		*s = EditStateMarkedForDeletion
	default:
		return fmt.Errorf("unknown edit state %q", text)
	}
	return nil
}

// EditableOrderItem is the working copy of an order line while editing.
// Deletion is a state change with the quantity zeroed, so it can be restored.
type EditableOrderItem struct {
	ItemID           string          `json:"itemId"`
	ProductID        string          `json:"productId"`
	ProductName      string          `json:"productName"`
	UnitPrice        decimal.Decimal `json:"unitPrice"`
	ParentItemID     *string         `json:"parentItemId,omitempty"`
	IsAddon          bool            `json:"isAddon"`
	OriginalQuantity int             `json:"originalQuantity"`
	OriginalNote     string          `json:"originalNote"`
	Quantity         int             `json:"quantity"`
	Note             string          `json:"note"`
	State            EditState       `json:"state"`
}

func (i EditableOrderItem) IsDeleted() bool {
	return i.State == EditStateMarkedForDeletion
}

// Changed reports whether quantity, note or deletion differ from the snapshot.
// Notes are compared as they will be sent, without surrounding whitespace.
func (i EditableOrderItem) Changed() bool {
	return i.IsDeleted() ||
		i.Quantity != i.OriginalQuantity ||
		strings.TrimSpace(i.Note) != strings.TrimSpace(i.OriginalNote)
}
