package dto

import (
	"time"

	"cloudcart-storefront/internal/model"
)

type OrderItemInput struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	SKU         *string `json:"sku"`
	VariantID   *string `json:"variantId"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	ImageURL    *string `json:"imageUrl"`
	Note        *string `json:"note"`
}

type CreateOrderPayload struct {
	Owner    model.Owner      `json:"owner"`
	Items    []OrderItemInput `json:"items"`
	Subtotal *float64         `json:"subtotal,omitempty"` // informational, totals are recomputed
	Total    *float64         `json:"total,omitempty"`
}

type CreateOrderResponse struct {
	ID string `json:"id"`
}

type CreateOrderResult struct {
	ID       string
	Replayed bool // the idempotency key had already produced this order
}

type UpdateOrderPayload struct {
	Status *model.OrderStatus `json:"status,omitempty"`
	Items  []OrderItemInput   `json:"items,omitempty"`
}

type OrderFilter struct {
	Status  string
	Page    int
	PerPage int
}

type OrderList struct {
	Orders  []*model.Order
	Total   int64
	Page    int
	PerPage int
}

type SyncRequest struct {
	DateFrom *time.Time `json:"dateFrom,omitempty"`
	DateTo   *time.Time `json:"dateTo,omitempty"`
	Limit    int        `json:"limit"`
	Status   string     `json:"status,omitempty"`
}

type SyncResult struct {
	TotalFetched      int `json:"totalFetched"`
	NewOrdersSaved    int `json:"newOrdersSaved"`
	SkippedDuplicates int `json:"skippedDuplicates"`
	FailedOrders      int `json:"failedOrders"`
}

type StockUpdateRequest struct {
	Quantity *int `json:"quantity"`
}

type ImageOverrideRequest struct {
	ImageURL string `json:"imageUrl"`
}

type AddCartItemRequest struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
	Quantity  int    `json:"quantity"`
	Source    string `json:"source,omitempty"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type CheckoutRequest struct {
	Owner        model.Owner `json:"owner"`
	PaymentNonce string      `json:"paymentNonce,omitempty"`
}

type CheckoutResponse struct {
	OrderID       string            `json:"orderId"`
	Status        model.OrderStatus `json:"status"`
	TotalCents    int64             `json:"totalCents"`
	TransactionID string            `json:"transactionId,omitempty"`
	Replayed      bool              `json:"replayed,omitempty"`
}

// envelope

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

type ErrorBody struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type PageMetaEnvelope struct {
	Page interface{} `json:"page"`
}
