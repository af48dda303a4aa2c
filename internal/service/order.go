package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloudcart-storefront/internal/dto"
	"cloudcart-storefront/internal/model"
	"cloudcart-storefront/internal/pricing"
	"cloudcart-storefront/internal/repository"
	"cloudcart-storefront/internal/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultOrdersPerPage = 20
	maxOrdersPerPage     = 100
)

type OrderService interface {
	CreateOrder(ctx context.Context, payload *dto.CreateOrderPayload, idempotencyKey string) (*dto.CreateOrderResult, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*dto.CreateOrderResult, error)
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
	ListOrders(ctx context.Context, filter dto.OrderFilter) (*dto.OrderList, error)
	UpdateOrder(ctx context.Context, orderID string, payload *dto.UpdateOrderPayload) (*model.Order, error)
	SetStatus(ctx context.Context, orderID string, status model.OrderStatus) error
	DeleteOrder(ctx context.Context, orderID string) error
	PurgeIdempotencyKeys(ctx context.Context, olderThan time.Duration) (int64, error)
}

type orderServiceImpl struct {
	db              *gorm.DB
	orderRepo       repository.OrderRepository
	idempotencyRepo repository.IdempotencyRepository
	lease           time.Duration
	logger          *slog.Logger
	now             func() time.Time
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	idempotencyRepo repository.IdempotencyRepository,
	lease time.Duration,
	logger *slog.Logger,
) OrderService {
	return &orderServiceImpl{
		db:              db,
		orderRepo:       orderRepo,
		idempotencyRepo: idempotencyRepo,
		lease:           lease,
		logger:          logger,
		now:             time.Now,
	}
}

func (s *orderServiceImpl) CreateOrder(ctx context.Context, payload *dto.CreateOrderPayload, idempotencyKey string) (*dto.CreateOrderResult, error) {
	if err := validation.ValidateCreateOrder(payload); err != nil {
		return nil, err
	}

	key := strings.TrimSpace(idempotencyKey)
	var token string
	if key != "" {
		token = uuid.NewString()
		replay, err := s.claimKey(ctx, key, payload.Owner.UserID(), token)
		if err != nil {
			return nil, err
		}
		if replay != nil {
			return replay, nil
		}
	}

	items, totals := pricing.NormalizeItems(payload.Items)
	order := &model.Order{
		ID:         uuid.NewString(),
		UserID:     payload.Owner.UserID(),
		OwnerKind:  payload.Owner.Kind,
		OwnerEmail: strings.ToLower(strings.TrimSpace(payload.Owner.Email)),
		OwnerName:  strings.TrimSpace(payload.Owner.Name),
		Status:     model.OrderStatusPending,
		Items:      items,
		Source:     model.OrderSourceManual,
	}
	totals.Apply(order)

	return s.store(ctx, order, key, token)
}

// store writes the order and resolves key in one transaction. When token no longer holds
// the reservation nothing is written and the winner's result is returned instead.
func (s *orderServiceImpl) store(ctx context.Context, order *model.Order, key, token string) (*dto.CreateOrderResult, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order in db: %w", err)
		}
		if key != "" {
			if err := s.idempotencyRepo.Resolve(ctx, tx, key, token, order.ID); err != nil {
				return fmt.Errorf("resolve idempotency key: %w", err)
			}
		}
		return nil
	})
	if errors.Is(err, repository.ErrClaimLost) {
		s.logger.WarnContext(ctx, "idempotency reservation lost before commit", "key", key, "order_id", order.ID)
		replay, findErr := s.FindByIdempotencyKey(ctx, key)
		if findErr != nil {
			return nil, findErr
		}
		if replay == nil {
			return nil, ErrIdempotencyInProgress
		}
		return replay, nil
	}
	if err != nil {
		if key != "" {
			if relErr := s.idempotencyRepo.Release(context.WithoutCancel(ctx), key, token); relErr != nil {
				s.logger.ErrorContext(ctx, "release idempotency key", "key", key, "error", relErr)
			}
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "order created",
		"order_id", order.ID,
		"user_id", order.UserID,
		"total_cents", order.TotalCents,
		"items", len(order.Items),
	)
	return &dto.CreateOrderResult{ID: order.ID}, nil
}

// FindByIdempotencyKey returns the replay result for a key that already produced an order,
// or nil when the key is unknown or still reserved.
func (s *orderServiceImpl) FindByIdempotencyKey(ctx context.Context, key string) (*dto.CreateOrderResult, error) {
	record, err := s.idempotencyRepo.Find(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("idempotency lookup: %w", err)
	}
	if !record.Resolved() {
		return nil, nil
	}
	return &dto.CreateOrderResult{ID: record.OrderID, Replayed: true}, nil
}

// claimKey makes token the sole writer for key. It returns a result when the key
// already produced an order, and ErrIdempotencyInProgress when another live request holds it.
func (s *orderServiceImpl) claimKey(ctx context.Context, key, ownerID, token string) (*dto.CreateOrderResult, error) {
	record, err := s.idempotencyRepo.Find(ctx, key)
	switch {
	case err == nil && record.Resolved():
		return &dto.CreateOrderResult{ID: record.OrderID, Replayed: true}, nil
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("idempotency lookup: %w", err)
	}

	reserved, err := s.idempotencyRepo.Reserve(ctx, key, ownerID, token)
	if err != nil {
		return nil, fmt.Errorf("reserve idempotency key: %w", err)
	}
	if reserved {
		return nil, nil
	}

	record, err = s.idempotencyRepo.Find(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		// the holder failed and released the key between our insert and read
		return nil, ErrIdempotencyInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("idempotency lookup: %w", err)
	}
	if record.Resolved() {
		return &dto.CreateOrderResult{ID: record.OrderID, Replayed: true}, nil
	}

	staleBefore := s.now().Add(-s.lease)
	if record.ReservedAt.After(staleBefore) {
		return nil, ErrIdempotencyInProgress
	}

	took, err := s.idempotencyRepo.TakeOver(ctx, key, staleBefore, token)
	if err != nil {
		return nil, fmt.Errorf("take over idempotency key: %w", err)
	}
	if !took {
		return nil, ErrIdempotencyInProgress
	}

	s.logger.WarnContext(ctx, "took over stale idempotency reservation", "key", key, "reserved_at", record.ReservedAt)
	return nil, nil
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, notFound(err)
	}
	return order, nil
}

func (s *orderServiceImpl) ListOrders(ctx context.Context, filter dto.OrderFilter) (*dto.OrderList, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 {
		filter.PerPage = defaultOrdersPerPage
	}
	if filter.PerPage > maxOrdersPerPage {
		filter.PerPage = maxOrdersPerPage
	}

	orders, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	return &dto.OrderList{Orders: orders, Total: total, Page: filter.Page, PerPage: filter.PerPage}, nil
}

// UpdateOrder applies an admin edit. Concurrent edits are last-writer-wins.
func (s *orderServiceImpl) UpdateOrder(ctx context.Context, orderID string, payload *dto.UpdateOrderPayload) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, notFound(err)
	}

	if payload.Status != nil {
		order.Status = *payload.Status
	}

	replaceItems := payload.Items != nil
	if replaceItems {
		items, totals := pricing.NormalizeItems(payload.Items)
		order.Items = items
		totals.Apply(order)
	}

	if err := s.orderRepo.Update(ctx, order, replaceItems); err != nil {
		return nil, notFound(err)
	}

	s.logger.InfoContext(ctx, "order updated", "order_id", orderID, "status", order.Status, "items_replaced", replaceItems)
	return s.GetOrder(ctx, orderID)
}

func (s *orderServiceImpl) SetStatus(ctx context.Context, orderID string, status model.OrderStatus) error {
	if err := s.orderRepo.UpdateStatus(ctx, orderID, status); err != nil {
		return notFound(err)
	}
	return nil
}

func (s *orderServiceImpl) DeleteOrder(ctx context.Context, orderID string) error {
	if err := s.orderRepo.Delete(ctx, orderID); err != nil {
		return notFound(err)
	}
	s.logger.InfoContext(ctx, "order deleted", "order_id", orderID)
	return nil
}

func (s *orderServiceImpl) PurgeIdempotencyKeys(ctx context.Context, olderThan time.Duration) (int64, error) {
	purged, err := s.idempotencyRepo.PurgeResolvedBefore(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("purge idempotency keys: %w", err)
	}
	return purged, nil
}

func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
