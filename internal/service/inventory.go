package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"cloudcart-storefront/internal/catalog"
	"cloudcart-storefront/internal/repository"
	"cloudcart-storefront/internal/validation"
)

type InventoryService interface {
	UpdateVariantStock(ctx context.Context, source, variantID string, quantity int) error
	SetImageOverride(ctx context.Context, productID, imageURL string) error
	ClearImageOverride(ctx context.Context, productID string) error
}

type inventoryServiceImpl struct {
	catalogs  *catalog.Facade
	overrides repository.ImageOverrideRepository
	logger    *slog.Logger
}

func NewInventoryService(
	catalogs *catalog.Facade,
	overrides repository.ImageOverrideRepository,
	logger *slog.Logger,
) InventoryService {
	return &inventoryServiceImpl{
		catalogs:  catalogs,
		overrides: overrides,
		logger:    logger,
	}
}

func (s *inventoryServiceImpl) UpdateVariantStock(ctx context.Context, source, variantID string, quantity int) error {
	if quantity < 0 {
		return validation.Invalid("invalid stock update", "quantity", "must be a non-negative integer")
	}

	backend, selected, err := s.catalogs.For(source)
	if err != nil {
		return catalogErr(err)
	}

	if err := backend.UpdateVariantStock(ctx, variantID, quantity); err != nil {
		return catalogErr(err)
	}

	s.logger.InfoContext(ctx, "variant stock updated", "source", selected, "variant_id", variantID, "quantity", quantity)
	return nil
}

func (s *inventoryServiceImpl) SetImageOverride(ctx context.Context, productID, imageURL string) error {
	imageURL = strings.TrimSpace(imageURL)
	u, err := url.Parse(imageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return validation.Invalid("invalid image override", "imageUrl", "must be an absolute http(s) URL")
	}

	if err := s.overrides.Upsert(ctx, productID, imageURL); err != nil {
		return fmt.Errorf("store image override: %w", err)
	}

	s.logger.InfoContext(ctx, "image override set", "product_id", productID)
	return nil
}

func (s *inventoryServiceImpl) ClearImageOverride(ctx context.Context, productID string) error {
	if err := s.overrides.Delete(ctx, productID); err != nil {
		return notFound(err)
	}
	s.logger.InfoContext(ctx, "image override cleared", "product_id", productID)
	return nil
}
