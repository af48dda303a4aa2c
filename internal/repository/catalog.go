package repository

import (
	"context"
	"strings"
	"time"

	"cloudcart-storefront/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CatalogRepository interface {
	Seed(ctx context.Context) error
	ListCategories(ctx context.Context, search string, page, perPage int) ([]*model.Category, int64, error)
	GetCategory(ctx context.Context, categoryID string) (*model.Category, error)
	ListProducts(ctx context.Context, categoryID, search string, page, perPage int) ([]*model.Product, int64, error)
	GetProduct(ctx context.Context, productID string) (*model.Product, error)
	ListVariants(ctx context.Context, productID string) ([]*model.Variant, error)
	UpdateVariantQuantity(ctx context.Context, variantID string, quantity int) error
}

type catalogRepoImpl struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepoImpl{
		db: db,
	}
}

func (r *catalogRepoImpl) Seed(ctx context.Context) error {
	categories := []model.Category{
		{ID: "cat-mugs", Name: "Mugs", Slug: "mugs", Position: 1},
		{ID: "cat-tees", Name: "T-Shirts", Slug: "t-shirts", Position: 2},
	}
	products := []model.Product{
		{ID: "prod-mug-classic", CategoryID: "cat-mugs", Name: "Classic Mug", Slug: "classic-mug", SKU: "MUG-CL", Price: 9.99, Quantity: 120},
		{ID: "prod-mug-travel", CategoryID: "cat-mugs", Name: "Travel Mug", Slug: "travel-mug", SKU: "MUG-TR", Price: 19.5, Quantity: 40},
		{ID: "prod-tee-logo", CategoryID: "cat-tees", Name: "Logo Tee", Slug: "logo-tee", SKU: "TEE-LG", Price: 25, Quantity: 0},
	}
	variants := []model.Variant{
		{ID: "var-tee-logo-s", ProductID: "prod-tee-logo", Name: "S", SKU: "TEE-LG-S", Price: 25, Quantity: 10},
		{ID: "var-tee-logo-m", ProductID: "prod-tee-logo", Name: "M", SKU: "TEE-LG-M", Price: 25, Quantity: 15},
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&categories).Error; err != nil {
			return err
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&products).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&variants).Error
	})
}

func searchPattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}

func (r *catalogRepoImpl) ListCategories(ctx context.Context, search string, page, perPage int) ([]*model.Category, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Category{})
	if strings.TrimSpace(search) != "" {
		query = query.Where("LOWER(name) LIKE ?", searchPattern(search))
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := pageBounds(page, perPage)

	var categories []*model.Category
	err := query.
		Order("position ASC").
		Order("name ASC").
		Offset(offset).
		Limit(limit).
		Find(&categories).Error
	if err != nil {
		return nil, 0, err
	}

	return categories, total, nil
}

func (r *catalogRepoImpl) GetCategory(ctx context.Context, categoryID string) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).
		Where("id = ?", categoryID).
		First(&category).Error

	if err != nil {
		return nil, translate(err)
	}

	return &category, nil
}

func (r *catalogRepoImpl) ListProducts(ctx context.Context, categoryID, search string, page, perPage int) ([]*model.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Product{})
	if categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	if strings.TrimSpace(search) != "" {
		pattern := searchPattern(search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", pattern, pattern)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := pageBounds(page, perPage)

	var products []*model.Product
	err := query.
		Order("name ASC").
		Offset(offset).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *catalogRepoImpl) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error

	if err != nil {
		return nil, translate(err)
	}

	return &product, nil
}

func (r *catalogRepoImpl) ListVariants(ctx context.Context, productID string) ([]*model.Variant, error) {
	var variants []*model.Variant
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("name ASC").
		Find(&variants).Error

	if err != nil {
		return nil, err
	}

	return variants, nil
}

func (r *catalogRepoImpl) UpdateVariantQuantity(ctx context.Context, variantID string, quantity int) error {
	result := r.db.WithContext(ctx).
		Model(&model.Variant{}).
		Where("id = ?", variantID).
		Updates(map[string]interface{}{
			"quantity":   quantity,
			"updated_at": time.Now().UTC(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
