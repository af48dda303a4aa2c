package catalog

import (
	"context"
	"errors"
	"strings"
)

// Source selects which backend serves a catalog request.
type Source string

const (
	SourceCloudCart Source = "cloudcart"
	// SourceFirestore is the local store; the flag value is kept for existing clients.
	SourceFirestore Source = "firestore"
)

const MaxPerPage = 100

var (
	ErrNotFound      = errors.New("catalog entry not found")
	ErrInvalidSource = errors.New("invalid catalog source")
)

func ParseSource(s string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(s))) {
	case SourceCloudCart:
		return SourceCloudCart, nil
	case SourceFirestore:
		return SourceFirestore, nil
	default:
		return "", ErrInvalidSource
	}
}

type Category struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	ParentID *string `json:"parentId"`
	ImageURL string  `json:"imageUrl,omitempty"`
	Position int     `json:"position"`
	Source   Source  `json:"source"`
}

type Product struct {
	ID          string  `json:"id"`
	CategoryID  string  `json:"categoryId,omitempty"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	SKU         string  `json:"sku,omitempty"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	PriceMax    float64 `json:"priceMax,omitempty"` // set when variants are priced differently
	Quantity    int     `json:"quantity"`
	InStock     bool    `json:"inStock"`
	ImageID     string  `json:"-"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	Source      Source  `json:"source"`
}

type Variant struct {
	ID        string  `json:"id"`
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	SKU       string  `json:"sku,omitempty"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	ImageURL  string  `json:"imageUrl,omitempty"`
	Source    Source  `json:"source"`
}

type PageMeta struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	From        int   `json:"from"`
	To          int   `json:"to"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
}

// NewPageMeta builds the envelope for a 1-indexed page of a result set of size total.
func NewPageMeta(page, perPage int, total int64) PageMeta {
	meta := PageMeta{CurrentPage: page, PerPage: perPage, Total: total, LastPage: 1}
	if perPage > 0 && total > 0 {
		meta.LastPage = int((total + int64(perPage) - 1) / int64(perPage))
	}

	first := int64((page-1)*perPage) + 1
	if total > 0 && first <= total {
		meta.From = int(first)
		meta.To = int(min(int64(page*perPage), total))
	}
	return meta
}

type Page[T any] struct {
	Items []T
	Meta  PageMeta
}

type Query struct {
	Page    int
	PerPage int
	Search  string
}

func (q Query) Normalize(defaultPerPage int) Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = defaultPerPage
	}
	if q.PerPage > MaxPerPage {
		q.PerPage = MaxPerPage
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

// Catalog is the read contract both backends implement, plus the one stock write admins need.
type Catalog interface {
	ListCategories(ctx context.Context, q Query) (*Page[Category], error)
	GetCategory(ctx context.Context, categoryID string) (*Category, error)
	ListProducts(ctx context.Context, categoryID string, q Query) (*Page[Product], error)
	GetProduct(ctx context.Context, productID string) (*Product, error)
	ListVariants(ctx context.Context, productID string) ([]Variant, error)
	UpdateVariantStock(ctx context.Context, variantID string, quantity int) error
}
