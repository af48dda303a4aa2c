package mapper

import (
	"fmt"
	"strings"
	"time"

	"cloudcart-storefront/internal/model"
	"cloudcart-storefront/internal/pricing"
)

var cloudCartStatuses = map[string]model.OrderStatus{
	"new":         model.OrderStatusPending,
	"unfulfilled": model.OrderStatusPending,
	"fulfilled":   model.OrderStatusCompleted,
	"completed":   model.OrderStatusCompleted,
	"cancelled":   model.OrderStatusCancelled,
}

// TranslateStatus maps a CloudCart status to the local enum; unknown values pass through.
func TranslateStatus(status string) model.OrderStatus {
	if mapped, ok := cloudCartStatuses[strings.ToLower(strings.TrimSpace(status))]; ok {
		return mapped
	}
	return model.OrderStatus(status)
}

// PlaceholderEmail is used for CloudCart orders that carry no customer email.
func PlaceholderEmail(externalID string) string {
	return fmt.Sprintf("cloudcart-order-%s@placeholder.invalid", externalID)
}

// MapOwner derives the order owner from the CloudCart customer fields.
// The second result is false when the order had no email and a placeholder was used.
func MapOwner(orderID string, attrs model.CloudCartOrderAttributes) (model.Owner, bool) {
	name := strings.TrimSpace(strings.TrimSpace(attrs.CustomerFirstName) + " " + strings.TrimSpace(attrs.CustomerLastName))

	email := strings.ToLower(strings.TrimSpace(attrs.CustomerEmail))
	if email == "" {
		return model.Owner{
			Kind:  model.OwnerKindGuest,
			Email: PlaceholderEmail(orderID),
			Name:  name,
		}, false
	}

	id := model.GuestUserID(email)
	if customerID := attrs.CustomerID.Ptr(); customerID != nil {
		id = *customerID
	}

	return model.Owner{
		Kind:  model.OwnerKindCustomer,
		ID:    id,
		Email: email,
		Name:  name,
	}, true
}

func MapOrderItem(position int, line model.CloudCartOrderProduct) model.OrderItem {
	attrs := line.Attributes

	quantity := 1
	if q, ok := attrs.Quantity.Float(); ok && q >= 1 {
		quantity = int(q)
	}

	unitPrice, _ := attrs.Price.Float()

	totalPrice, hasTotal := attrs.Total.Float()
	var totalCents int64
	if hasTotal {
		totalPrice = pricing.RoundMoney(totalPrice)
		totalCents = pricing.ToCents(totalPrice)
	} else {
		totalPrice, totalCents = pricing.LineTotal(unitPrice, quantity)
	}

	productID := line.ID
	if ref := attrs.ProductID.Ptr(); ref != nil {
		productID = *ref
	}

	item := model.OrderItem{
		Position:        position,
		ProductID:       productID,
		ProductName:     attrs.Name,
		VariantID:       attrs.VariantID.Ptr(),
		Quantity:        quantity,
		UnitPrice:       unitPrice,
		UnitPriceCents:  pricing.ToCents(unitPrice),
		TotalPrice:      totalPrice,
		TotalPriceCents: totalCents,
		Note:            "",
	}
	if sku := strings.TrimSpace(attrs.SKU); sku != "" {
		item.SKU = &sku
	}
	if img := strings.TrimSpace(attrs.ImageURL); img != "" {
		item.ImageURL = &img
	}
	return item
}

// MapCloudCartOrder builds the local order document for a CloudCart order and its
// separately fetched line items. Nothing is persisted.
func MapCloudCartOrder(order model.CloudCartOrder, lines []model.CloudCartOrderProduct, now time.Time) *model.Order {
	attrs := order.Attributes
	owner, _ := MapOwner(order.ID, attrs)

	items := make([]model.OrderItem, len(lines))
	for i, line := range lines {
		items[i] = MapOrderItem(i, line)
	}

	total, hasTotal := attrs.PriceTotal.Float()
	if !hasTotal {
		total, hasTotal = attrs.Total.Float()
	}
	if !hasTotal {
		var cents int64
		for _, item := range items {
			cents += item.TotalPriceCents
		}
		total = pricing.FromCents(cents)
	}

	subtotal, hasSubtotal := attrs.PriceSubtotal.Float()
	if !hasSubtotal {
		subtotal = total
	}

	createdAt := now
	if t, ok := parseCloudCartTime(attrs.DateAdded); ok {
		createdAt = t
	}

	externalID := order.ID
	return &model.Order{
		UserID:          owner.UserID(),
		OwnerKind:       owner.Kind,
		OwnerEmail:      owner.Email,
		OwnerName:       owner.Name,
		ExternalOrderID: &externalID,
		Status:          TranslateStatus(attrs.Status),
		Items:           items,
		Subtotal:        pricing.RoundMoney(subtotal),
		Total:           pricing.RoundMoney(total),
		SubtotalCents:   pricing.ToCents(subtotal),
		TotalCents:      pricing.ToCents(total),
		Source:          model.OrderSourceCloudCart,
		CloudCartData:   model.RawJSON(order.Raw),
		CreatedAt:       createdAt,
	}
}

func parseCloudCartTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
