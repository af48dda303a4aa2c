package catalog

import (
	"context"
	"errors"
	"fmt"

	"cloudcart-storefront/internal/model"
	"cloudcart-storefront/internal/repository"
)

// LocalCatalog serves the catalog from the application's own database. Image URLs are stored inline.
type LocalCatalog struct {
	repo           repository.CatalogRepository
	defaultPerPage int
}

func NewLocalCatalog(repo repository.CatalogRepository, defaultPerPage int) *LocalCatalog {
	return &LocalCatalog{
		repo:           repo,
		defaultPerPage: defaultPerPage,
	}
}

func (l *LocalCatalog) ListCategories(ctx context.Context, q Query) (*Page[Category], error) {
	q = q.Normalize(l.defaultPerPage)

	rows, total, err := l.repo.ListCategories(ctx, q.Search, q.Page, q.PerPage)
	if err != nil {
		return nil, fmt.Errorf("local categories: %w", err)
	}

	items := make([]Category, 0, len(rows))
	for _, row := range rows {
		items = append(items, categoryFromLocal(row))
	}
	return &Page[Category]{Items: items, Meta: NewPageMeta(q.Page, q.PerPage, total)}, nil
}

func (l *LocalCatalog) GetCategory(ctx context.Context, categoryID string) (*Category, error) {
	row, err := l.repo.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, localNotFoundOr(err)
	}

	category := categoryFromLocal(row)
	return &category, nil
}

func (l *LocalCatalog) ListProducts(ctx context.Context, categoryID string, q Query) (*Page[Product], error) {
	q = q.Normalize(l.defaultPerPage)

	rows, total, err := l.repo.ListProducts(ctx, categoryID, q.Search, q.Page, q.PerPage)
	if err != nil {
		return nil, fmt.Errorf("local products: %w", err)
	}

	items := make([]Product, 0, len(rows))
	for _, row := range rows {
		items = append(items, productFromLocal(row))
	}
	return &Page[Product]{Items: items, Meta: NewPageMeta(q.Page, q.PerPage, total)}, nil
}

func (l *LocalCatalog) GetProduct(ctx context.Context, productID string) (*Product, error) {
	row, err := l.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, localNotFoundOr(err)
	}

	product := productFromLocal(row)
	return &product, nil
}

func (l *LocalCatalog) ListVariants(ctx context.Context, productID string) ([]Variant, error) {
	rows, err := l.repo.ListVariants(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("local variants: %w", err)
	}

	variants := make([]Variant, 0, len(rows))
	for _, row := range rows {
		variants = append(variants, Variant{
			ID:        row.ID,
			ProductID: row.ProductID,
			Name:      row.Name,
			SKU:       row.SKU,
			Price:     row.Price,
			Quantity:  row.Quantity,
			ImageURL:  row.ImageURL,
			Source:    SourceFirestore,
		})
	}
	return variants, nil
}

func (l *LocalCatalog) UpdateVariantStock(ctx context.Context, variantID string, quantity int) error {
	if err := l.repo.UpdateVariantQuantity(ctx, variantID, quantity); err != nil {
		return localNotFoundOr(err)
	}
	return nil
}

func localNotFoundOr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func categoryFromLocal(row *model.Category) Category {
	return Category{
		ID:       row.ID,
		Name:     row.Name,
		Slug:     row.Slug,
		ParentID: row.ParentID,
		ImageURL: row.ImageURL,
		Position: row.Position,
		Source:   SourceFirestore,
	}
}

func productFromLocal(row *model.Product) Product {
	return Product{
		ID:          row.ID,
		CategoryID:  row.CategoryID,
		Name:        row.Name,
		Slug:        row.Slug,
		SKU:         row.SKU,
		Description: row.Description,
		Price:       row.Price,
		Quantity:    row.Quantity,
		InStock:     row.Quantity > 0,
		ImageURL:    row.ImageURL,
		Source:      SourceFirestore,
	}
}
