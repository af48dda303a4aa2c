package model

import (
	"database/sql/driver"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type Order struct {
	ID              string      `gorm:"primaryKey;size:64;not null" json:"id"`
	UserID          string      `gorm:"size:320;index;not null" json:"userId"`
	OwnerKind       OwnerKind   `gorm:"size:16;not null" json:"ownerKind"`
	OwnerEmail      string      `gorm:"size:320;index" json:"ownerEmail"`
	OwnerName       string      `gorm:"size:255" json:"ownerName,omitempty"`
	ExternalOrderID *string     `gorm:"size:64;uniqueIndex" json:"externalOrderId,omitempty"` // cloudcart order id
	Status          OrderStatus `gorm:"size:32;index;not null" json:"status"`
	Items           []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Subtotal        float64     `gorm:"not null" json:"subtotal"`
	Total           float64     `gorm:"not null" json:"total"`
	SubtotalCents   int64       `gorm:"not null" json:"subtotalCents"`
	TotalCents      int64       `gorm:"not null" json:"totalCents"`
	Source          OrderSource `gorm:"size:16;index" json:"source,omitempty"`
	CloudCartData   RawJSON     `json:"cloudCartData,omitempty"` // raw external payload, sync path only
	CreatedAt       time.Time   `gorm:"index" json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

type OrderItem struct {
	ID              uint    `gorm:"primaryKey" json:"-"`
	OrderID         string  `gorm:"size:64;index;not null" json:"-"`
	Position        int     `gorm:"not null" json:"-"`
	ProductID       string  `gorm:"size:64;not null" json:"productId"`
	ProductName     string  `gorm:"size:255;not null" json:"productName"`
	SKU             *string `gorm:"size:128" json:"sku"`
	VariantID       *string `gorm:"size:64" json:"variantId"`
	Quantity        int     `gorm:"not null" json:"quantity"`
	UnitPrice       float64 `gorm:"not null" json:"unitPrice"`
	UnitPriceCents  int64   `gorm:"not null" json:"unitPriceCents"`
	TotalPrice      float64 `gorm:"not null" json:"totalPrice"`
	TotalPriceCents int64   `gorm:"not null" json:"totalPriceCents"`
	ImageURL        *string `gorm:"size:1024" json:"imageUrl"`
	Note            string  `gorm:"size:2000" json:"note"`
}

type IdempotencyRecord struct {
	Key        string    `gorm:"column:idempotency_key;primaryKey;size:255;not null"`
	OwnerID    string    `gorm:"size:320;index"`
	OrderID    string    `gorm:"size:64;index"`               // empty until the order is written
	ClaimToken string    `gorm:"size:64;not null;default:''"` // changes on every reserve or take over
	ReservedAt time.Time `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (r *IdempotencyRecord) Resolved() bool {
	return r.OrderID != ""
}

// Capture is one settled card charge against an order.
type Capture struct {
	ID            uint   `gorm:"primaryKey"`
	OrderID       string `gorm:"size:64;index;not null"`
	TransactionID string `gorm:"size:64;uniqueIndex;not null"`
	AmountCents   int64  `gorm:"not null"`
	Gateway       string `gorm:"size:32;not null"`
	CreatedAt     time.Time
}

// local catalog ("firestore" source)

type Category struct {
	ID        string  `gorm:"primaryKey;size:64;not null"`
	ParentID  *string `gorm:"size:64;index"`
	Name      string  `gorm:"size:255;not null"`
	Slug      string  `gorm:"size:255;uniqueIndex;not null"`
	ImageURL  string  `gorm:"size:1024"`
	Position  int     `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Product struct {
	ID          string  `gorm:"primaryKey;size:64;not null"`
	CategoryID  string  `gorm:"size:64;index;not null"`
	Name        string  `gorm:"size:255;not null"`
	Slug        string  `gorm:"size:255;uniqueIndex;not null"`
	SKU         string  `gorm:"size:128;index"`
	Description string  `gorm:"type:text"`
	Price       float64 `gorm:"not null"`
	Quantity    int     `gorm:"not null;default:0"`
	ImageURL    string  `gorm:"size:1024"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Variant struct {
	ID        string  `gorm:"primaryKey;size:64;not null"`
	ProductID string  `gorm:"size:64;index;not null"`
	Name      string  `gorm:"size:255"`
	SKU       string  `gorm:"size:128;index"`
	Price     float64 `gorm:"not null"`
	Quantity  int     `gorm:"not null;default:0"`
	ImageURL  string  `gorm:"size:1024"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ImageOverride struct {
	ProductID string `gorm:"primaryKey;size:64;not null"`
	ImageURL  string `gorm:"size:1024;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RawJSON keeps an external JSON document verbatim in a text column.
type RawJSON []byte

func (r RawJSON) Value() (driver.Value, error) {
	if len(r) == 0 {
		return nil, nil
	}
	return string(r), nil
}

func (r *RawJSON) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*r = nil
	case []byte:
		*r = append((*r)[:0], v...)
	case string:
		*r = RawJSON(v)
	default:
		return errors.New("raw json: unsupported column type")
	}
	return nil
}

func (r RawJSON) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

func (r *RawJSON) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = nil
		return nil
	}
	*r = append((*r)[:0], data...)
	return nil
}

func (RawJSON) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "mysql" {
		return "LONGTEXT"
	}
	return "TEXT"
}
