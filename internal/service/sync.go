package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloudcart-storefront/internal/client"
	"cloudcart-storefront/internal/dto"
	"cloudcart-storefront/internal/mapper"
	"cloudcart-storefront/internal/model"
	"cloudcart-storefront/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SyncService interface {
	// SyncOrders imports one page of CloudCart orders. Orders already imported are skipped and
	// per-order failures are counted without stopping the batch.
	SyncOrders(ctx context.Context, req dto.SyncRequest) (*dto.SyncResult, error)
}

type syncServiceImpl struct {
	cloudCart client.CloudCartClient
	orderRepo repository.OrderRepository
	logger    *slog.Logger
	now       func() time.Time
}

func NewSyncService(
	cloudCart client.CloudCartClient,
	orderRepo repository.OrderRepository,
	logger *slog.Logger,
) SyncService {
	return &syncServiceImpl{
		cloudCart: cloudCart,
		orderRepo: orderRepo,
		logger:    logger,
		now:       time.Now,
	}
}

type syncOutcome int

const (
	syncSaved syncOutcome = iota
	syncDuplicate
)

func (s *syncServiceImpl) SyncOrders(ctx context.Context, req dto.SyncRequest) (*dto.SyncResult, error) {
	batch, err := s.cloudCart.ListOrders(ctx, client.OrderFilter{
		DateFrom: req.DateFrom,
		DateTo:   req.DateTo,
		Status:   req.Status,
		Limit:    req.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch cloudcart orders: %w", err)
	}

	result := &dto.SyncResult{
		TotalFetched: len(batch.Orders) + len(batch.Rejected),
		FailedOrders: len(batch.Rejected),
	}
	for _, rejected := range batch.Rejected {
		s.logger.ErrorContext(ctx, "failed to decode cloudcart order", "external_order_id", rejected.ID, "error", rejected.Err)
	}

	for _, ext := range batch.Orders {
		if err := ctx.Err(); err != nil {
			s.logger.WarnContext(ctx, "order sync interrupted", "processed", result.NewOrdersSaved+result.SkippedDuplicates+result.FailedOrders, "error", err)
			return result, err
		}

		outcome, err := s.syncOne(ctx, ext)
		if err != nil {
			result.FailedOrders++
			s.logger.ErrorContext(ctx, "failed to sync cloudcart order", "external_order_id", ext.ID, "error", err)
			continue
		}

		switch outcome {
		case syncSaved:
			result.NewOrdersSaved++
		case syncDuplicate:
			result.SkippedDuplicates++
		}
	}

	s.logger.InfoContext(ctx, "order sync finished",
		"fetched", result.TotalFetched,
		"saved", result.NewOrdersSaved,
		"skipped", result.SkippedDuplicates,
		"failed", result.FailedOrders,
	)
	return result, nil
}

func (s *syncServiceImpl) syncOne(ctx context.Context, ext model.CloudCartOrder) (syncOutcome, error) {
	if ext.ID == "" {
		return 0, errors.New("cloudcart order without id")
	}

	_, err := s.orderRepo.FindByExternalID(ctx, ext.ID)
	if err == nil {
		return syncDuplicate, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return 0, fmt.Errorf("dedupe lookup: %w", err)
	}

	lines, err := s.cloudCart.ListOrderProducts(ctx, ext.ID)
	if err != nil {
		return 0, fmt.Errorf("fetch line items: %w", err)
	}

	if _, hasEmail := mapper.MapOwner(ext.ID, ext.Attributes); !hasEmail {
		s.logger.WarnContext(ctx, "cloudcart order has no customer email, using placeholder owner", "external_order_id", ext.ID)
	}

	order := mapper.MapCloudCartOrder(ext, lines, s.now().UTC())
	order.ID = uuid.NewString()

	if err := s.orderRepo.Create(ctx, nil, order); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// a concurrent sync stored it first
			return syncDuplicate, nil
		}
		return 0, fmt.Errorf("store order: %w", err)
	}

	return syncSaved, nil
}
