package catalog

import (
	"context"
	"log/slog"
)

// ImageOverrides looks up admin-chosen product images by product id.
type ImageOverrides interface {
	FindMany(ctx context.Context, productIDs []string) (map[string]string, error)
}

// Facade hands out the backend for an explicitly requested source.
type Facade struct {
	backends      map[Source]Catalog
	defaultSource Source
	overrides     ImageOverrides
	logger        *slog.Logger
}

func NewFacade(defaultSource Source, backends map[Source]Catalog, overrides ImageOverrides, logger *slog.Logger) *Facade {
	return &Facade{
		backends:      backends,
		defaultSource: defaultSource,
		overrides:     overrides,
		logger:        logger,
	}
}

// For returns the catalog for source. An empty source selects the configured default.
func (f *Facade) For(source string) (Catalog, Source, error) {
	selected := f.defaultSource
	if source != "" {
		parsed, err := ParseSource(source)
		if err != nil {
			return nil, "", err
		}
		selected = parsed
	}

	backend, ok := f.backends[selected]
	if !ok {
		return nil, "", ErrInvalidSource
	}

	if f.overrides == nil {
		return backend, selected, nil
	}
	return &overriddenCatalog{Catalog: backend, overrides: f.overrides, logger: f.logger}, selected, nil
}

type overriddenCatalog struct {
	Catalog
	overrides ImageOverrides
	logger    *slog.Logger
}

func (o *overriddenCatalog) ListProducts(ctx context.Context, categoryID string, q Query) (*Page[Product], error) {
	page, err := o.Catalog.ListProducts(ctx, categoryID, q)
	if err != nil {
		return nil, err
	}
	o.apply(ctx, page.Items)
	return page, nil
}

func (o *overriddenCatalog) GetProduct(ctx context.Context, productID string) (*Product, error) {
	product, err := o.Catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	products := []Product{*product}
	o.apply(ctx, products)
	return &products[0], nil
}

func (o *overriddenCatalog) apply(ctx context.Context, products []Product) {
	if len(products) == 0 {
		return
	}

	ids := make([]string, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}

	urls, err := o.overrides.FindMany(ctx, ids)
	if err != nil {
		o.logger.WarnContext(ctx, "image override lookup failed", "error", err)
		return
	}

	for i := range products {
		if url, ok := urls[products[i].ID]; ok {
			products[i].ImageURL = url
		}
	}
}
