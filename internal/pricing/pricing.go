package pricing

import (
	"cloudcart-storefront/internal/dto"
	"cloudcart-storefront/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Totals struct {
	Subtotal      float64
	Total         float64
	SubtotalCents int64
	TotalCents    int64
}

// RoundMoney rounds half away from zero to 2 decimal places.
func RoundMoney(amount float64) float64 {
	return decimal.NewFromFloat(amount).Round(2).InexactFloat64()
}

// ToCents converts a decimal amount to integer cents, rounding half away from zero.
func ToCents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(hundred).Round(0).IntPart()
}

func FromCents(cents int64) float64 {
	return decimal.New(cents, -2).InexactFloat64()
}

// LineTotal returns round(unitPrice*quantity, 2) and its cents. Cents come from the
// rounded decimal so they match what an invoice shows.
func LineTotal(unitPrice float64, quantity int) (float64, int64) {
	total := decimal.NewFromFloat(unitPrice).Mul(decimal.NewFromInt(int64(quantity))).Round(2)
	return total.InexactFloat64(), total.Mul(hundred).Round(0).IntPart()
}

// NormalizeItems converts validated items into order items carrying both decimal and
// cents prices, and derives order totals (no tax or shipping).
func NormalizeItems(items []dto.OrderItemInput) ([]model.OrderItem, Totals) {
	out := make([]model.OrderItem, len(items))
	var subtotalCents int64

	for i, item := range items {
		totalPrice, totalCents := LineTotal(item.UnitPrice, item.Quantity)

		note := ""
		if item.Note != nil {
			note = *item.Note
		}

		out[i] = model.OrderItem{
			Position:        i,
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			SKU:             item.SKU,
			VariantID:       item.VariantID,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			UnitPriceCents:  ToCents(item.UnitPrice),
			TotalPrice:      totalPrice,
			TotalPriceCents: totalCents,
			ImageURL:        item.ImageURL,
			Note:            note,
		}
		subtotalCents += totalCents
	}

	return out, TotalsFromCents(subtotalCents, subtotalCents)
}

func TotalsFromCents(subtotalCents, totalCents int64) Totals {
	return Totals{
		Subtotal:      FromCents(subtotalCents),
		Total:         FromCents(totalCents),
		SubtotalCents: subtotalCents,
		TotalCents:    totalCents,
	}
}

// Apply copies the totals onto an order.
func (t Totals) Apply(order *model.Order) {
	order.Subtotal = t.Subtotal
	order.Total = t.Total
	order.SubtotalCents = t.SubtotalCents
	order.TotalCents = t.TotalCents
}
