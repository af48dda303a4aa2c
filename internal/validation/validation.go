package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/mail"
	"strings"
	"time"

	"cloudcart-storefront/internal/dto"
	"cloudcart-storefront/internal/model"
)

const (
	MaxItems    = 500
	MaxQuantity = 100000

	DefaultSyncLimit = 20
	MaxSyncLimit     = 100
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a rejected payload with every field-level violation found.
type Error struct {
	Message string
	Details []FieldError
}

func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	parts := make([]string, len(e.Details))
	for i, d := range e.Details {
		parts[i] = d.Field + ": " + d.Message
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

// Invalid reports a single-field violation.
func Invalid(message, field, format string, args ...any) error {
	c := &collector{}
	c.add(field, format, args...)
	return c.err(message)
}

type collector struct {
	details []FieldError
}

func (c *collector) add(field, format string, args ...any) {
	c.details = append(c.details, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (c *collector) err(message string) error {
	if len(c.details) == 0 {
		return nil
	}
	return &Error{Message: message, Details: c.details}
}

// ParseCreateOrder decodes an untyped order-creation body into a bounds-checked payload.
func ParseCreateOrder(body []byte) (*dto.CreateOrderPayload, error) {
	raw, err := decodeObject(body)
	if err != nil {
		return nil, err
	}

	c := &collector{}
	payload := &dto.CreateOrderPayload{}

	ownerRaw, ok := raw["owner"]
	if !ok || ownerRaw == nil {
		c.add("owner", "is required")
	} else {
		payload.Owner = parseOwner(ownerRaw, "owner", c)
	}

	itemsRaw, ok := raw["items"]
	if !ok || itemsRaw == nil {
		c.add("items", "is required")
	} else {
		payload.Items = parseItems(itemsRaw, "items", c)
	}

	payload.Subtotal = optionalAmount(raw, "subtotal", c)
	payload.Total = optionalAmount(raw, "total", c)

	if err := c.err("invalid order payload"); err != nil {
		return nil, err
	}
	return payload, nil
}

// ValidateCreateOrder applies the same rules to an already typed payload.
func ValidateCreateOrder(payload *dto.CreateOrderPayload) error {
	c := &collector{}
	checkOwner(payload.Owner, "owner", c)
	if len(payload.Items) == 0 {
		c.add("items", "must contain at least one item")
	}
	if len(payload.Items) > MaxItems {
		c.add("items", "must contain at most %d items", MaxItems)
	}
	for i, item := range payload.Items {
		checkItem(item, fmt.Sprintf("items[%d]", i), c)
	}
	return c.err("invalid order payload")
}

// ParseUpdateOrder validates an admin edit: status and/or a full replacement item list.
func ParseUpdateOrder(body []byte) (*dto.UpdateOrderPayload, error) {
	raw, err := decodeObject(body)
	if err != nil {
		return nil, err
	}

	c := &collector{}
	payload := &dto.UpdateOrderPayload{}

	if v, ok := raw["status"]; ok && v != nil {
		s, isString := v.(string)
		if !isString || strings.TrimSpace(s) == "" {
			c.add("status", "must be a non-empty string")
		} else {
			status := model.OrderStatus(strings.TrimSpace(s))
			payload.Status = &status
		}
	}

	if v, ok := raw["items"]; ok && v != nil {
		payload.Items = parseItems(v, "items", c)
	}

	if payload.Status == nil && payload.Items == nil && len(c.details) == 0 {
		c.add("body", "must contain status or items")
	}

	if err := c.err("invalid order update"); err != nil {
		return nil, err
	}
	return payload, nil
}

// ParseSyncRequest validates the external order sync filters. An empty body means defaults.
func ParseSyncRequest(body []byte) (*dto.SyncRequest, error) {
	req := &dto.SyncRequest{Limit: DefaultSyncLimit}
	if len(bytes.TrimSpace(body)) == 0 {
		return req, nil
	}

	raw, err := decodeObject(body)
	if err != nil {
		return nil, err
	}

	c := &collector{}
	req.DateFrom = optionalDate(raw, "dateFrom", c)
	req.DateTo = optionalDate(raw, "dateTo", c)

	if v, ok := raw["limit"]; ok && v != nil {
		n, isInt := asInteger(v)
		if !isInt || n < 1 || n > MaxSyncLimit {
			c.add("limit", "must be an integer between 1 and %d", MaxSyncLimit)
		} else {
			req.Limit = int(n)
		}
	}

	if v, ok := raw["status"]; ok && v != nil {
		s, isString := v.(string)
		if !isString {
			c.add("status", "must be a string")
		} else {
			req.Status = strings.TrimSpace(s)
		}
	}

	if req.DateFrom != nil && req.DateTo != nil && req.DateFrom.After(*req.DateTo) {
		c.add("dateFrom", "must not be after dateTo")
	}

	if err := c.err("invalid sync request"); err != nil {
		return nil, err
	}
	return req, nil
}

// ParseCheckout validates the storefront checkout body.
func ParseCheckout(body []byte) (*dto.CheckoutRequest, error) {
	raw, err := decodeObject(body)
	if err != nil {
		return nil, err
	}

	c := &collector{}
	req := &dto.CheckoutRequest{}

	if v, ok := raw["owner"]; !ok || v == nil {
		c.add("owner", "is required")
	} else {
		req.Owner = parseOwner(v, "owner", c)
	}

	if v, ok := raw["paymentNonce"]; ok && v != nil {
		s, isString := v.(string)
		if !isString {
			c.add("paymentNonce", "must be a string")
		} else {
			req.PaymentNonce = s
		}
	}

	if err := c.err("invalid checkout request"); err != nil {
		return nil, err
	}
	return req, nil
}

func decodeObject(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &Error{Message: "invalid JSON body", Details: []FieldError{{Field: "body", Message: err.Error()}}}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &Error{Message: "invalid JSON body", Details: []FieldError{{Field: "body", Message: "must be a JSON object"}}}
	}
	return obj, nil
}

func parseOwner(v any, path string, c *collector) model.Owner {
	obj, ok := v.(map[string]any)
	if !ok {
		c.add(path, "must be an object")
		return model.Owner{}
	}

	owner := model.Owner{
		Kind:  model.OwnerKind(stringField(obj, "kind", path, c)),
		ID:    stringField(obj, "id", path, c),
		Email: strings.TrimSpace(stringField(obj, "email", path, c)),
		Name:  strings.TrimSpace(stringField(obj, "name", path, c)),
	}
	checkOwner(owner, path, c)
	return owner
}

func checkOwner(owner model.Owner, path string, c *collector) {
	switch owner.Kind {
	case model.OwnerKindGuest:
		if owner.ID != "" {
			c.add(path+".id", "must be empty for guest owners")
		}
	case model.OwnerKindCustomer:
		if strings.TrimSpace(owner.ID) == "" {
			c.add(path+".id", "is required for customer owners")
		}
	default:
		c.add(path+".kind", "must be %q or %q", model.OwnerKindGuest, model.OwnerKindCustomer)
	}

	if owner.Email == "" {
		c.add(path+".email", "is required")
	} else if !validEmail(owner.Email) {
		c.add(path+".email", "must be a valid email address")
	}
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func parseItems(v any, path string, c *collector) []dto.OrderItemInput {
	list, ok := v.([]any)
	if !ok {
		c.add(path, "must be an array")
		return nil
	}
	if len(list) == 0 {
		c.add(path, "must contain at least one item")
		return []dto.OrderItemInput{}
	}
	if len(list) > MaxItems {
		c.add(path, "must contain at most %d items", MaxItems)
		return nil
	}

	items := make([]dto.OrderItemInput, 0, len(list))
	for i, rawItem := range list {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		obj, ok := rawItem.(map[string]any)
		if !ok {
			c.add(itemPath, "must be an object")
			continue
		}

		item := dto.OrderItemInput{
			ProductID:   strings.TrimSpace(stringField(obj, "productId", itemPath, c)),
			ProductName: strings.TrimSpace(stringField(obj, "productName", itemPath, c)),
			SKU:         nullableString(obj, "sku", itemPath, c),
			VariantID:   nullableString(obj, "variantId", itemPath, c),
			ImageURL:    nullableString(obj, "imageUrl", itemPath, c),
			Note:        nullableString(obj, "note", itemPath, c),
		}

		quantityOK := true
		if q, present := obj["quantity"]; !present || q == nil {
			c.add(itemPath+".quantity", "is required")
			quantityOK = false
		} else if n, isInt := asInteger(q); !isInt {
			c.add(itemPath+".quantity", "must be an integer")
			quantityOK = false
		} else if n < 1 || n > MaxQuantity {
			c.add(itemPath+".quantity", "must be between 1 and %d", MaxQuantity)
			quantityOK = false
		} else {
			item.Quantity = int(n)
		}

		priceOK := true
		if p, present := obj["unitPrice"]; !present || p == nil {
			c.add(itemPath+".unitPrice", "is required")
			priceOK = false
		} else if f, isNum := asFloat(p); !isNum {
			c.add(itemPath+".unitPrice", "must be a finite number")
			priceOK = false
		} else {
			item.UnitPrice = f
		}

		// quantity and price were reported above when they failed to parse
		checkItemFields(item, itemPath, c, quantityOK, priceOK)
		items = append(items, item)
	}
	return items
}

func checkItem(item dto.OrderItemInput, path string, c *collector) {
	checkItemFields(item, path, c, true, true)
}

func checkItemFields(item dto.OrderItemInput, path string, c *collector, checkQuantity, checkPrice bool) {
	if item.ProductID == "" {
		c.add(path+".productId", "is required")
	}
	if item.ProductName == "" {
		c.add(path+".productName", "is required")
	}
	if checkQuantity && (item.Quantity < 1 || item.Quantity > MaxQuantity) {
		c.add(path+".quantity", "must be between 1 and %d", MaxQuantity)
	}
	if checkPrice && (item.UnitPrice < 0 || math.IsNaN(item.UnitPrice) || math.IsInf(item.UnitPrice, 0)) {
		c.add(path+".unitPrice", "must be a non-negative finite number")
	}
}

func stringField(obj map[string]any, key, path string, c *collector) string {
	v, ok := obj[key]
	if !ok || v == nil {
		return ""
	}
	s, isString := v.(string)
	if !isString {
		c.add(path+"."+key, "must be a string")
		return ""
	}
	return s
}

func nullableString(obj map[string]any, key, path string, c *collector) *string {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil
	}
	s, isString := v.(string)
	if !isString {
		c.add(path+"."+key, "must be a string or null")
		return nil
	}
	return &s
}

func optionalAmount(obj map[string]any, key string, c *collector) *float64 {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil
	}
	f, isNum := asFloat(v)
	if !isNum || f < 0 {
		c.add(key, "must be a non-negative number")
		return nil
	}
	return &f
}

func optionalDate(obj map[string]any, key string, c *collector) *time.Time {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil
	}
	s, isString := v.(string)
	if !isString || strings.TrimSpace(s) == "" {
		c.add(key, "must be a date string")
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return &t
		}
	}
	c.add(key, "must be RFC3339 or YYYY-MM-DD")
	return nil
}

func asFloat(v any) (float64, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func asInteger(v any) (int64, bool) {
	f, ok := asFloat(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int64(f), true
}
