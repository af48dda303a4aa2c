package model

import "time"

type CartItem struct {
	ProductID   string  `json:"productId"`
	VariantID   string  `json:"variantId,omitempty"`
	ProductName string  `json:"productName"`
	SKU         string  `json:"sku,omitempty"`
	UnitPrice   float64 `json:"unitPrice"`
	Quantity    int     `json:"quantity"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	Source      string  `json:"source"`
}

// Key identifies a cart line: the same product in two variants is two lines.
func (i CartItem) Key() string {
	if i.VariantID == "" {
		return i.ProductID
	}
	return i.ProductID + ":" + i.VariantID
}

type Cart struct {
	ID        string     `json:"id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}
