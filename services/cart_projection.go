package services

import (
	"github.com/shopspring/decimal"
	"github.com/yeremiapane/pos-dashboard/models"
)

// GroupCartItems groups lines by product in order of first appearance.
// The result is derived; it is rebuilt on every cart change.
func GroupCartItems(lines []models.CartLine) []models.GroupedCartItem {
	groups := make([]models.GroupedCartItem, 0, len(lines))
	index := make(map[string]int, len(lines))

	for _, line := range lines {
		i, ok := index[line.ProductID]
		if !ok {
			groups = append(groups, models.GroupedCartItem{
				ProductID:   line.ProductID,
				ProductName: line.ProductName,
				TotalPrice:  decimal.Zero,
			})
			i = len(groups) - 1
			index[line.ProductID] = i
		}

		g := &groups[i]
		g.Variants = append(g.Variants, line)
		g.TotalQuantity += line.Quantity
		g.TotalPrice = g.TotalPrice.Add(line.LineTotal)
	}
	return groups
}

// CalculateItemTotalPrice prices one line on the client: unit price times quantity
// plus every addon and every non-removal extra. Addon and extra quantities are
// totals for the line.
func CalculateItemTotalPrice(line models.CartLine) decimal.Decimal {
	total := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
	for _, a := range line.Addons {
		total = total.Add(a.UnitPrice.Mul(decimal.NewFromInt(int64(a.Quantity))))
	}
	for _, e := range line.Extras {
		if e.IsRemoval {
			continue
		}
		total = total.Add(e.UnitPrice.Mul(decimal.NewFromInt(int64(e.Quantity))))
	}
	return total
}

// CartTotal sums the server line totals. The server may apply discounts the client
// does not model, so totals are never recomputed from unit prices here.
func CartTotal(lines []models.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.LineTotal)
	}
	return total
}

// findAddonParent returns the line owning the addon line with the given id.
func findAddonParent(lines []models.CartLine, addonLineID string) (models.CartLine, models.AddonLine, bool) {
	for _, line := range lines {
		for _, addon := range line.Addons {
			if addon.LineID == addonLineID {
				return line, addon, true
			}
		}
	}
	return models.CartLine{}, models.AddonLine{}, false
}

func findLine(lines []models.CartLine, lineID string) (models.CartLine, bool) {
	for _, line := range lines {
		if line.LineID == lineID {
			return line, true
		}
	}
	return models.CartLine{}, false
}

// CartView is the render model handed to the sidebar.
type CartView struct {
	BasketID string                   `json:"basketId"`
	Lines    []CartLineView           `json:"lines"`
	Groups   []models.GroupedCartItem `json:"groups"`
	Total    decimal.Decimal          `json:"total"`
	Loading  bool                     `json:"loading"`
}

type CartLineView struct {
	models.CartLine
	IsPlain     bool            `json:"isPlain"`
	ClientTotal decimal.Decimal `json:"clientTotal"`
	AddonViews  []AddonView     `json:"addonViews,omitempty"`
	ExtraViews  []ExtraView     `json:"extraViews,omitempty"`
}

type AddonView struct {
	LineID        string `json:"lineId"`
	CanIncrease   bool   `json:"canIncrease"`
	CanDecrease   bool   `json:"canDecrease"`
	QuantityError string `json:"quantityError,omitempty"`
}

type ExtraView struct {
	ExtraID       string `json:"extraId"`
	CanIncrease   bool   `json:"canIncrease"`
	CanDecrease   bool   `json:"canDecrease"`
	QuantityError string `json:"quantityError,omitempty"`
}

// BuildCartView derives the full render model from the lines alone.
func BuildCartView(basketID string, lines []models.CartLine, loading bool) CartView {
	view := CartView{
		BasketID: basketID,
		Lines:    make([]CartLineView, 0, len(lines)),
		Groups:   GroupCartItems(lines),
		Total:    CartTotal(lines),
		Loading:  loading,
	}
	for _, line := range lines {
		lv := CartLineView{
			CartLine:    line,
			IsPlain:     line.IsPlain(),
			ClientTotal: CalculateItemTotalPrice(line),
		}
		for _, a := range line.Addons {
			lv.AddonViews = append(lv.AddonViews, AddonView{
				LineID:        a.LineID,
				CanIncrease:   CanIncreaseAddon(a),
				CanDecrease:   CanDecreaseAddon(a),
				QuantityError: AddonQuantityError(a),
			})
		}
		for _, e := range line.Extras {
			lv.ExtraViews = append(lv.ExtraViews, ExtraView{
				ExtraID:       e.ExtraID,
				CanIncrease:   CanIncreaseExtra(e),
				CanDecrease:   CanDecreaseExtra(e),
				QuantityError: ExtraQuantityError(e),
			})
		}
		view.Lines = append(view.Lines, lv)
	}
	return view
}
