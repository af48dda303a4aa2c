package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// CloudCart speaks JSON:API: every record is a resource object with attributes.

type CloudCartResource[T any] struct {
	ID            string                           `json:"id"`
	Type          string                           `json:"type"`
	Attributes    T                                `json:"attributes"`
	Relationships map[string]CloudCartRelationship `json:"relationships,omitempty"`
}

type CloudCartRelationship struct {
	Data json.RawMessage `json:"data"`
}

type CloudCartIdentifier struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// IDs returns the related resource ids whether the relationship is to-one or to-many.
func (r CloudCartRelationship) IDs() []string {
	data := bytes.TrimSpace(r.Data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '[' {
		var many []CloudCartIdentifier
		if err := json.Unmarshal(data, &many); err != nil {
			return nil
		}
		ids := make([]string, 0, len(many))
		for _, id := range many {
			ids = append(ids, id.ID)
		}
		return ids
	}
	var one CloudCartIdentifier
	if err := json.Unmarshal(data, &one); err != nil || one.ID == "" {
		return nil
	}
	return []string{one.ID}
}

type CloudCartPage struct {
	CurrentPage int `json:"current-page"`
	PerPage     int `json:"per-page"`
	From        int `json:"from"`
	To          int `json:"to"`
	Total       int `json:"total"`
	LastPage    int `json:"last-page"`
}

type CloudCartMeta struct {
	Page CloudCartPage `json:"page"`
}

type CloudCartDocument[T any] struct {
	Data []CloudCartResource[T] `json:"data"`
	Meta CloudCartMeta          `json:"meta"`
}

type CloudCartSingle[T any] struct {
	Data CloudCartResource[T] `json:"data"`
}

type CloudCartCategoryAttributes struct {
	Name      string     `json:"name"`
	URLHandle string     `json:"url_handle"`
	ParentID  FlexString `json:"parent_id"`
	ImageID   FlexString `json:"image_id"`
	Order     int        `json:"order"`
}

type CloudCartProductAttributes struct {
	Name        string     `json:"name"`
	URLHandle   string     `json:"url_handle"`
	CategoryID  FlexString `json:"category_id"`
	SKU         string     `json:"sku"`
	Description string     `json:"description"`
	PriceFrom   Number     `json:"price_from"`
	PriceTo     Number     `json:"price_to"`
	Quantity    Number     `json:"quantity"`
	ImageID     FlexString `json:"image_id"`
}

type CloudCartVariantAttributes struct {
	ProductID FlexString `json:"item_id"`
	SKU       string     `json:"sku"`
	V1        string     `json:"v1"`
	V2        string     `json:"v2"`
	V3        string     `json:"v3"`
	Price     Number     `json:"price"`
	Quantity  Number     `json:"quantity"`
	ImageID   FlexString `json:"image_id"`
}

type CloudCartImageAttributes struct {
	Src string `json:"src"`
	URL string `json:"url"`
}

type CloudCartOrderAttributes struct {
	CustomerID        FlexString `json:"customer_id"`
	CustomerEmail     string     `json:"customer_email"`
	CustomerFirstName string     `json:"customer_first_name"`
	CustomerLastName  string     `json:"customer_last_name"`
	Status            string     `json:"status"`
	PriceTotal        Number     `json:"price_total"` // current total field
	Total             Number     `json:"total"`       // legacy total field
	PriceSubtotal     Number     `json:"price_subtotal"`
	DateAdded         string     `json:"date_added"`
}

// CloudCartOrder is an order resource together with the raw bytes it was decoded from.
type CloudCartOrder struct {
	CloudCartResource[CloudCartOrderAttributes]
	Raw json.RawMessage `json:"-"`
}

func (o *CloudCartOrder) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &o.CloudCartResource); err != nil {
		return err
	}
	o.Raw = append(json.RawMessage(nil), data...)
	return nil
}

type CloudCartOrderProductAttributes struct {
	OrderID   FlexString `json:"order_id"`
	ProductID FlexString `json:"product_id"`
	VariantID FlexString `json:"variant_id"`
	Name      string     `json:"name"`
	SKU       string     `json:"sku"`
	Quantity  Number     `json:"quantity"`
	Price     Number     `json:"price"`
	Total     Number     `json:"total"`
	ImageURL  string     `json:"image_url"`
}

type CloudCartOrderProduct = CloudCartResource[CloudCartOrderProductAttributes]

// Number accepts JSON numbers and numeric strings; CloudCart emits both.
// null and "" leave it unset.
type Number struct {
	value float64
	set   bool
}

func NewNumber(f float64) Number {
	return Number{value: f, set: true}
}

func (n *Number) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*n = Number{}
		return nil
	}
	s = strings.Trim(s, `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("cloudcart number %q: %w", s, err)
	}
	*n = NewNumber(f)
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.set {
		return []byte("null"), nil
	}
	return json.Marshal(n.value)
}

// Float reports false when the field was missing, null or empty.
func (n Number) Float() (float64, bool) {
	return n.value, n.set
}

// FlexString accepts ids encoded as JSON strings or numbers.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*f = FlexString(v)
		return nil
	}
	*f = FlexString(s)
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// Ptr returns nil for an empty or zero id.
func (f FlexString) Ptr() *string {
	s := strings.TrimSpace(string(f))
	if s == "" || s == "0" {
		return nil
	}
	return &s
}
