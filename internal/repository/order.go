package repository

import (
	"context"
	"time"

	"cloudcart-storefront/internal/dto"
	"cloudcart-storefront/internal/model"

	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	FindByID(ctx context.Context, orderID string) (*model.Order, error)
	FindByExternalID(ctx context.Context, externalOrderID string) (*model.Order, error)
	List(ctx context.Context, filter dto.OrderFilter) ([]*model.Order, int64, error)
	Update(ctx context.Context, order *model.Order, replaceItems bool) error
	UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) error
	Delete(ctx context.Context, orderID string) error
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	for i := range order.Items {
		order.Items[i].Position = i
	}
	return r.conn(tx).WithContext(ctx).Create(order).Error
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *orderRepoImpl) FindByID(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items", preloadItems).
		Where("id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, translate(err)
	}

	return &order, nil
}

func (r *orderRepoImpl) FindByExternalID(ctx context.Context, externalOrderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("external_order_id = ?", externalOrderID).
		First(&order).Error

	if err != nil {
		return nil, translate(err)
	}

	return &order, nil
}

func (r *orderRepoImpl) List(ctx context.Context, filter dto.OrderFilter) ([]*model.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Order{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := pageBounds(filter.Page, filter.PerPage)

	var orders []*model.Order
	err := query.
		Preload("Items", preloadItems).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// Update overwrites status and totals, and the item list when replaceItems is set.
// There is no version check: the last writer wins.
func (r *orderRepoImpl) Update(ctx context.Context, order *model.Order, replaceItems bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Order{}).
			Where("id = ?", order.ID).
			Updates(map[string]interface{}{
				"status":         order.Status,
				"subtotal":       order.Subtotal,
				"total":          order.Total,
				"subtotal_cents": order.SubtotalCents,
				"total_cents":    order.TotalCents,
				"updated_at":     time.Now().UTC(),
			})

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		if !replaceItems {
			return nil
		}

		if err := tx.Where("order_id = ?", order.ID).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}
		if len(order.Items) == 0 {
			return nil
		}
		for i := range order.Items {
			order.Items[i].ID = 0
			order.Items[i].OrderID = order.ID
			order.Items[i].Position = i
		}
		return tx.Create(&order.Items).Error
	})
}

func (r *orderRepoImpl) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) error {
	result := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"status":     status,
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

func (r *orderRepoImpl) Delete(ctx context.Context, orderID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", orderID).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", orderID).Delete(&model.Order{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
