package repository

import (
	"context"
	"errors"
	"time"

	"cloudcart-storefront/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrClaimLost means the reservation was taken over or resolved by another request.
var ErrClaimLost = errors.New("idempotency claim lost")

type IdempotencyRepository interface {
	// Reserve inserts the key if absent. It reports false when the key already existed.
	Reserve(ctx context.Context, key, ownerID, token string) (bool, error)
	Find(ctx context.Context, key string) (*model.IdempotencyRecord, error)
	// TakeOver re-reserves an unresolved key whose reservation is older than staleBefore,
	// handing it the new token.
	TakeOver(ctx context.Context, key string, staleBefore time.Time, token string) (bool, error)
	// Resolve points the key at orderID only while token still holds the reservation.
	Resolve(ctx context.Context, tx *gorm.DB, key, token, orderID string) error
	Release(ctx context.Context, key, token string) error
	PurgeResolvedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type idempotencyRepoImpl struct {
	db *gorm.DB
}

func NewIdempotencyRepository(db *gorm.DB) IdempotencyRepository {
	return &idempotencyRepoImpl{
		db: db,
	}
}

func (r *idempotencyRepoImpl) Reserve(ctx context.Context, key, ownerID, token string) (bool, error) {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.IdempotencyRecord{
			Key:        key,
			OwnerID:    ownerID,
			ClaimToken: token,
			ReservedAt: now,
		})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

func (r *idempotencyRepoImpl) Find(ctx context.Context, key string) (*model.IdempotencyRecord, error) {
	var record model.IdempotencyRecord
	err := r.db.WithContext(ctx).
		Where("idempotency_key = ?", key).
		First(&record).Error

	if err != nil {
		return nil, translate(err)
	}

	return &record, nil
}

func (r *idempotencyRepoImpl) TakeOver(ctx context.Context, key string, staleBefore time.Time, token string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.IdempotencyRecord{}).
		Where("idempotency_key = ? AND order_id = ? AND reserved_at < ?", key, "", staleBefore.UTC()).
		Updates(map[string]interface{}{
			"claim_token": token,
			"reserved_at": time.Now().UTC(),
			"updated_at":  time.Now().UTC(),
		})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

func (r *idempotencyRepoImpl) Resolve(ctx context.Context, tx *gorm.DB, key, token, orderID string) error {
	if tx == nil {
		tx = r.db
	}

	result := tx.WithContext(ctx).
		Model(&model.IdempotencyRecord{}).
		Where("idempotency_key = ? AND order_id = ? AND claim_token = ?", key, "", token).
		Updates(map[string]interface{}{
			"order_id":   orderID,
			"updated_at": time.Now().UTC(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrClaimLost
	}
	return nil
}

func (r *idempotencyRepoImpl) Release(ctx context.Context, key, token string) error {
	return r.db.WithContext(ctx).
		Where("idempotency_key = ? AND order_id = ? AND claim_token = ?", key, "", token).
		Delete(&model.IdempotencyRecord{}).Error
}

func (r *idempotencyRepoImpl) PurgeResolvedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("order_id <> ? AND created_at < ?", "", cutoff.UTC()).
		Delete(&model.IdempotencyRecord{})

	return result.RowsAffected, result.Error
}
