package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/pos-dashboard/models"
	"github.com/yeremiapane/pos-dashboard/utils"
)

// ValidateCart reports every addon and extra outside its bounds. It never stops
// at the first violation.
func ValidateCart(lines []models.CartLine) []string {
	var violations []string
	for _, line := range lines {
		for _, addon := range line.Addons {
			if msg := AddonQuantityError(addon); msg != "" {
				violations = append(violations, fmt.Sprintf("%s: %s", line.ProductName, msg))
			}
		}
		for _, extra := range line.Extras {
			if msg := ExtraQuantityError(extra); msg != "" {
				violations = append(violations, fmt.Sprintf("%s: %s", line.ProductName, msg))
			}
		}
	}
	return violations
}

// ValidateForm checks the fields the selected order type requires and the
// minimum order amount against the live cart total.
func ValidateForm(form models.OrderForm, orderType *models.OrderType, cartTotal decimal.Decimal) []string {
	var violations []string

	if orderType == nil {
		return append(violations, "Order type is required")
	}

	required := []struct {
		needed bool
		value  string
		label  string
	}{
		{orderType.RequiresCustomerName, form.CustomerName, "Customer name"},
		{orderType.RequiresTable, form.TableID, "Table"},
		{orderType.RequiresAddress, form.DeliveryAddress, "Delivery address"},
		{orderType.RequiresPhone, form.CustomerPhone, "Phone number"},
		{orderType.RequiresPaymentMethod, form.PaymentMethod, "Payment method"},
	}
	for _, field := range required {
		if field.needed && strings.TrimSpace(field.value) == "" {
			violations = append(violations, fmt.Sprintf("%s is required for %s orders", field.label, orderType.Name))
		}
	}

	if orderType.MinOrderAmount.IsPositive() && cartTotal.LessThan(orderType.MinOrderAmount) {
		violations = append(violations, fmt.Sprintf("Minimum order amount for %s is %s",
			orderType.Name, utils.FormatCurrency(orderType.MinOrderAmount)))
	}

	return violations
}

// BuildCreateOrderRequest copies only the fields the order type uses.
func BuildCreateOrderRequest(basketID string, form models.OrderForm, orderType models.OrderType) models.CreateOrderRequest {
	req := models.CreateOrderRequest{
		BasketID:     basketID,
		OrderTypeID:  orderType.ID,
		CustomerName: strings.TrimSpace(form.CustomerName),
		Notes:        strings.TrimSpace(form.Notes),
	}
	if orderType.RequiresTable {
		req.TableID = form.TableID
	}
	if orderType.RequiresAddress {
		req.DeliveryAddress = strings.TrimSpace(form.DeliveryAddress)
	}
	if orderType.RequiresPhone {
		req.CustomerPhone = strings.TrimSpace(form.CustomerPhone)
	}
	if orderType.RequiresPaymentMethod {
		req.PaymentMethod = form.PaymentMethod
	}
	return req
}
