package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloudcart-storefront/internal/catalog"
	"cloudcart-storefront/internal/dto"
	"cloudcart-storefront/internal/model"
	"cloudcart-storefront/internal/repository"
	"cloudcart-storefront/internal/validation"
)

const invalidCartItem = "invalid cart item"

type CartService interface {
	GetCart(ctx context.Context, cartID string) (*model.Cart, error)
	AddItem(ctx context.Context, cartID string, req dto.AddCartItemRequest) (*model.Cart, error)
	UpdateItemQuantity(ctx context.Context, cartID, itemKey string, quantity int) (*model.Cart, error)
	RemoveItem(ctx context.Context, cartID, itemKey string) (*model.Cart, error)
	Clear(ctx context.Context, cartID string) error
}

type cartServiceImpl struct {
	cartRepo repository.CartRepository
	catalogs *catalog.Facade
	logger   *slog.Logger
	now      func() time.Time
}

func NewCartService(cartRepo repository.CartRepository, catalogs *catalog.Facade, logger *slog.Logger) CartService {
	return &cartServiceImpl{
		cartRepo: cartRepo,
		catalogs: catalogs,
		logger:   logger,
		now:      time.Now,
	}
}

// GetCart returns the stored cart, or an empty one when nothing is stored under cartID.
func (s *cartServiceImpl) GetCart(ctx context.Context, cartID string) (*model.Cart, error) {
	cart, err := s.cartRepo.Get(ctx, cartID)
	if errors.Is(err, repository.ErrNotFound) {
		return &model.Cart{ID: cartID, Items: []model.CartItem{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return cart, nil
}

// AddItem snapshots name, price and image from the catalog; clients only send ids.
func (s *cartServiceImpl) AddItem(ctx context.Context, cartID string, req dto.AddCartItemRequest) (*model.Cart, error) {
	req.ProductID = strings.TrimSpace(req.ProductID)
	req.VariantID = strings.TrimSpace(req.VariantID)
	if req.ProductID == "" {
		return nil, validation.Invalid(invalidCartItem, "productId", "is required")
	}
	if req.Quantity < 1 || req.Quantity > validation.MaxQuantity {
		return nil, validation.Invalid(invalidCartItem, "quantity", "must be an integer between 1 and %d", validation.MaxQuantity)
	}

	item, err := s.snapshot(ctx, req)
	if err != nil {
		return nil, err
	}

	cart, err := s.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range cart.Items {
		if cart.Items[i].Key() == item.Key() {
			quantity := min(cart.Items[i].Quantity+req.Quantity, validation.MaxQuantity)
			cart.Items[i] = *item
			cart.Items[i].Quantity = quantity
			merged = true
			break
		}
	}
	if !merged {
		if len(cart.Items) >= validation.MaxItems {
			return nil, validation.Invalid(invalidCartItem, "items", "a cart holds at most %d lines", validation.MaxItems)
		}
		cart.Items = append(cart.Items, *item)
	}

	return s.save(ctx, cart)
}

func (s *cartServiceImpl) snapshot(ctx context.Context, req dto.AddCartItemRequest) (*model.CartItem, error) {
	backend, source, err := s.catalogs.For(req.Source)
	if err != nil {
		return nil, catalogErr(err)
	}

	product, err := backend.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, catalogErr(err)
	}

	item := &model.CartItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		SKU:         product.SKU,
		UnitPrice:   product.Price,
		Quantity:    req.Quantity,
		ImageURL:    product.ImageURL,
		Source:      string(source),
	}
	if req.VariantID == "" {
		return item, nil
	}

	variants, err := backend.ListVariants(ctx, product.ID)
	if err != nil {
		return nil, catalogErr(err)
	}
	for _, v := range variants {
		if v.ID != req.VariantID {
			continue
		}
		item.VariantID = v.ID
		item.UnitPrice = v.Price
		if v.Name != "" {
			item.ProductName = product.Name + " (" + v.Name + ")"
		}
		if v.SKU != "" {
			item.SKU = v.SKU
		}
		if v.ImageURL != "" {
			item.ImageURL = v.ImageURL
		}
		return item, nil
	}
	return nil, ErrNotFound
}

func (s *cartServiceImpl) UpdateItemQuantity(ctx context.Context, cartID, itemKey string, quantity int) (*model.Cart, error) {
	if quantity == 0 {
		return s.RemoveItem(ctx, cartID, itemKey)
	}
	if quantity < 0 || quantity > validation.MaxQuantity {
		return nil, validation.Invalid(invalidCartItem, "quantity", "must be an integer between 0 and %d", validation.MaxQuantity)
	}

	cart, err := s.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	for i := range cart.Items {
		if cart.Items[i].Key() == itemKey {
			cart.Items[i].Quantity = quantity
			return s.save(ctx, cart)
		}
	}
	return nil, ErrNotFound
}

func (s *cartServiceImpl) RemoveItem(ctx context.Context, cartID, itemKey string) (*model.Cart, error) {
	cart, err := s.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if item.Key() != itemKey {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(cart.Items) {
		return nil, ErrNotFound
	}
	cart.Items = kept

	return s.save(ctx, cart)
}

func (s *cartServiceImpl) Clear(ctx context.Context, cartID string) error {
	if err := s.cartRepo.Delete(ctx, cartID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (s *cartServiceImpl) save(ctx context.Context, cart *model.Cart) (*model.Cart, error) {
	cart.UpdatedAt = s.now().UTC()
	if err := s.cartRepo.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

func catalogErr(err error) error {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, catalog.ErrInvalidSource):
		return ErrInvalidSource
	default:
		return err
	}
}
