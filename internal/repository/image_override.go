package repository

import (
	"context"
	"time"

	"cloudcart-storefront/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ImageOverrideRepository interface {
	Upsert(ctx context.Context, productID, imageURL string) error
	Delete(ctx context.Context, productID string) error
	FindMany(ctx context.Context, productIDs []string) (map[string]string, error)
}

type imageOverrideRepoImpl struct {
	db *gorm.DB
}

func NewImageOverrideRepository(db *gorm.DB) ImageOverrideRepository {
	return &imageOverrideRepoImpl{
		db: db,
	}
}

func (r *imageOverrideRepoImpl) Upsert(ctx context.Context, productID, imageURL string) error {
	override := &model.ImageOverride{
		ProductID: productID,
		ImageURL:  imageURL,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"image_url":  imageURL,
			"updated_at": time.Now().UTC(),
		}),
	}).Create(override).Error
}

func (r *imageOverrideRepoImpl) Delete(ctx context.Context, productID string) error {
	result := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&model.ImageOverride{})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *imageOverrideRepoImpl) FindMany(ctx context.Context, productIDs []string) (map[string]string, error) {
	overrides := make(map[string]string, len(productIDs))
	if len(productIDs) == 0 {
		return overrides, nil
	}

	var rows []*model.ImageOverride
	err := r.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Find(&rows).
		Error

	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		overrides[row.ProductID] = row.ImageURL
	}
	return overrides, nil
}
