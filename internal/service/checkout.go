package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cloudcart-storefront/internal/client"
	"cloudcart-storefront/internal/dto"
	"cloudcart-storefront/internal/model"
	"cloudcart-storefront/internal/repository"
)

type CheckoutService interface {
	Checkout(ctx context.Context, cartID string, req *dto.CheckoutRequest, idempotencyKey string) (*dto.CheckoutResponse, error)
}

type checkoutServiceImpl struct {
	cartRepo     repository.CartRepository
	captureRepo  repository.CaptureRepository
	orderService OrderService
	payments     client.BraintreeClient // nil when card payments are not configured
	logger       *slog.Logger
}

func NewCheckoutService(
	cartRepo repository.CartRepository,
	captureRepo repository.CaptureRepository,
	orderService OrderService,
	payments client.BraintreeClient,
	logger *slog.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		cartRepo:     cartRepo,
		captureRepo:  captureRepo,
		orderService: orderService,
		payments:     payments,
		logger:       logger,
	}
}

func (s *checkoutServiceImpl) Checkout(ctx context.Context, cartID string, req *dto.CheckoutRequest, idempotencyKey string) (*dto.CheckoutResponse, error) {
	key := strings.TrimSpace(idempotencyKey)
	if key != "" {
		// replays never read the cart
		done, err := s.orderService.FindByIdempotencyKey(ctx, key)
		if err != nil {
			return nil, err
		}
		if done != nil {
			return s.replay(ctx, done.ID)
		}
	}

	cart, err := s.cartRepo.Get(ctx, cartID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCartEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, ErrCartEmpty
	}

	payload := &dto.CreateOrderPayload{
		Owner: req.Owner,
		Items: make([]dto.OrderItemInput, len(cart.Items)),
	}
	for i, item := range cart.Items {
		payload.Items[i] = dto.OrderItemInput{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			SKU:         optional(item.SKU),
			VariantID:   optional(item.VariantID),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			ImageURL:    optional(item.ImageURL),
		}
	}

	created, err := s.orderService.CreateOrder(ctx, payload, key)
	if err != nil {
		return nil, err
	}
	if created.Replayed {
		return s.replay(ctx, created.ID)
	}

	order, err := s.orderService.GetOrder(ctx, created.ID)
	if err != nil {
		return nil, fmt.Errorf("reload order: %w", err)
	}

	resp := &dto.CheckoutResponse{
		OrderID:    order.ID,
		Status:     order.Status,
		TotalCents: order.TotalCents,
	}

	if req.PaymentNonce != "" {
		if s.payments == nil {
			s.logger.InfoContext(ctx, "payment nonce ignored, card payments disabled", "order_id", order.ID)
		} else {
			txID, err := s.charge(ctx, order, req.PaymentNonce)
			if err != nil {
				return nil, err
			}
			resp.TransactionID = txID
			resp.Status = model.OrderStatusProcessing
		}
	}

	if err := s.cartRepo.Delete(ctx, cartID); err != nil {
		s.logger.WarnContext(ctx, "failed to clear cart after checkout", "cart_id", cartID, "error", err)
	}

	return resp, nil
}

// replay rebuilds the response of an earlier checkout. The cart is left alone and nothing is charged.
func (s *checkoutServiceImpl) replay(ctx context.Context, orderID string) (*dto.CheckoutResponse, error) {
	order, err := s.orderService.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("reload order: %w", err)
	}

	resp := &dto.CheckoutResponse{
		OrderID:    order.ID,
		Status:     order.Status,
		TotalCents: order.TotalCents,
		Replayed:   true,
	}

	capture, err := s.captureRepo.LatestForOrder(ctx, order.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load capture: %w", err)
	}
	if capture != nil {
		resp.TransactionID = capture.TransactionID
	}
	return resp, nil
}

func (s *checkoutServiceImpl) charge(ctx context.Context, order *model.Order, nonce string) (string, error) {
	txID, err := s.payments.ChargeNonce(ctx, nonce, order.TotalCents, order.ID)
	if errors.Is(err, client.ErrTransactionDeclined) {
		s.logger.WarnContext(ctx, "payment declined", "order_id", order.ID, "error", err)
		return "", ErrPaymentDeclined
	}
	if err != nil {
		return "", fmt.Errorf("charge order %s: %w", order.ID, err)
	}

	if err := s.orderService.SetStatus(ctx, order.ID, model.OrderStatusProcessing); err != nil {
		if voidErr := s.payments.Void(context.WithoutCancel(ctx), txID); voidErr != nil {
			s.logger.ErrorContext(ctx, "failed to void charge for unrecorded payment", "order_id", order.ID, "transaction_id", txID, "error", voidErr)
		}
		return "", fmt.Errorf("mark order %s paid: %w", order.ID, err)
	}

	err = s.captureRepo.Create(context.WithoutCancel(ctx), &model.Capture{
		OrderID:       order.ID,
		TransactionID: txID,
		AmountCents:   order.TotalCents,
		Gateway:       "braintree",
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to record capture", "order_id", order.ID, "transaction_id", txID, "error", err)
	}

	s.logger.InfoContext(ctx, "order paid", "order_id", order.ID, "transaction_id", txID, "amount_cents", order.TotalCents)
	return txID, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
