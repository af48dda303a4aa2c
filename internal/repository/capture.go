package repository

import (
	"context"

	"cloudcart-storefront/internal/model"

	"gorm.io/gorm"
)

type CaptureRepository interface {
	Create(ctx context.Context, capture *model.Capture) error
	LatestForOrder(ctx context.Context, orderID string) (*model.Capture, error)
}

type captureRepositoryImpl struct {
	db *gorm.DB
}

func NewCaptureRepository(db *gorm.DB) CaptureRepository {
	return &captureRepositoryImpl{
		db: db,
	}
}

func (r *captureRepositoryImpl) Create(ctx context.Context, capture *model.Capture) error {
	return r.db.WithContext(ctx).Create(capture).Error
}

func (r *captureRepositoryImpl) LatestForOrder(ctx context.Context, orderID string) (*model.Capture, error) {
	var capture model.Capture
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id DESC").
		First(&capture).Error
	if err != nil {
		return nil, translate(err)
	}
	return &capture, nil
}
