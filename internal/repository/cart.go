package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloudcart-storefront/internal/model"

	"github.com/redis/go-redis/v9"
)

type CartRepository interface {
	Get(ctx context.Context, cartID string) (*model.Cart, error)
	Save(ctx context.Context, cart *model.Cart) error
	Delete(ctx context.Context, cartID string) error
}

type cartRepoImpl struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCartRepository(client *redis.Client, ttl time.Duration) CartRepository {
	return &cartRepoImpl{
		client: client,
		ttl:    ttl,
	}
}

// Get returns ErrNotFound for unknown or expired carts.
func (r *cartRepoImpl) Get(ctx context.Context, cartID string) (*model.Cart, error) {
	data, err := r.client.Get(ctx, cartKey(cartID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	var cart model.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}

	return &cart, nil
}

// Save writes the cart and refreshes its TTL.
func (r *cartRepoImpl) Save(ctx context.Context, cart *model.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	if err := r.client.Set(ctx, cartKey(cart.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

func (r *cartRepoImpl) Delete(ctx context.Context, cartID string) error {
	if err := r.client.Del(ctx, cartKey(cartID)).Err(); err != nil {
		return fmt.Errorf("redis delete cart: %w", err)
	}
	return nil
}

func cartKey(cartID string) string {
	return fmt.Sprintf("cart:%s", cartID)
}
