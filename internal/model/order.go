package model

import "strings"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type OwnerKind string

const (
	OwnerKindGuest    OwnerKind = "guest"
	OwnerKindCustomer OwnerKind = "customer"
)

type OrderSource string

const (
	OrderSourceManual    OrderSource = "manual"
	OrderSourceCloudCart OrderSource = "cloudcart"
)

// Owner is the guest or registered customer an order is attributed to.
type Owner struct {
	Kind  OwnerKind `json:"kind"`
	ID    string    `json:"id,omitempty"` // customer id, empty for guests
	Email string    `json:"email"`
	Name  string    `json:"name,omitempty"`
}

// UserID is the owner reference stored on the order document.
func (o Owner) UserID() string {
	if o.Kind == OwnerKindCustomer && o.ID != "" {
		return o.ID
	}
	return GuestUserID(o.Email)
}

// GuestUserID derives a deterministic owner reference from an email address.
func GuestUserID(email string) string {
	return "guest:" + strings.ToLower(strings.TrimSpace(email))
}
