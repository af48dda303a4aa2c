package service

import (
	"context"
	"errors"
	"testing"

	"cloudcart-storefront/internal/dto"
	"cloudcart-storefront/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartService_AddItemSnapshotsCatalog(t *testing.T) {
	env := setupTestEnv(t)
	svc := NewCartService(env.carts, env.facade, env.logger)
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, "c1", dto.AddCartItemRequest{ProductID: "prod-mug-classic", Quantity: 2})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "Classic Mug", cart.Items[0].ProductName)
	assert.Equal(t, 9.99, cart.Items[0].UnitPrice)
	assert.Equal(t, "MUG-CL", cart.Items[0].SKU)
	assert.Equal(t, "firestore", cart.Items[0].Source)

	cart, err = svc.AddItem(ctx, "c1", dto.AddCartItemRequest{ProductID: "prod-mug-classic", Quantity: 1})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity, "same line is merged")

	cart, err = svc.AddItem(ctx, "c1", dto.AddCartItemRequest{ProductID: "prod-tee-logo", VariantID: "var-tee-logo-s", Quantity: 1, Source: "firestore"})
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, "Logo Tee (S)", cart.Items[1].ProductName)
	assert.Equal(t, "TEE-LG-S", cart.Items[1].SKU)
	assert.Equal(t, "prod-tee-logo:var-tee-logo-s", cart.Items[1].Key())

	stored, err := svc.GetCart(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, stored.Items, 2)
	assert.False(t, stored.UpdatedAt.IsZero())
}

func TestCartService_AddItemRejections(t *testing.T) {
	env := setupTestEnv(t)
	svc := NewCartService(env.carts, env.facade, env.logger)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "c1", dto.AddCartItemRequest{ProductID: "nope", Quantity: 1})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.AddItem(ctx, "c1", dto.AddCartItemRequest{ProductID: "prod-tee-logo", VariantID: "var-missing", Quantity: 1})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.AddItem(ctx, "c1", dto.AddCartItemRequest{ProductID: "prod-mug-classic", Quantity: 1, Source: "magento"})
	assert.ErrorIs(t, err, ErrInvalidSource)

	_, err = svc.AddItem(ctx, "c1", dto.AddCartItemRequest{ProductID: "prod-mug-classic", Quantity: 0})
	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "quantity", verr.Details[0].Field)

	cart, err := svc.GetCart(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCartService_UpdateAndRemove(t *testing.T) {
	env := setupTestEnv(t)
	svc := NewCartService(env.carts, env.facade, env.logger)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "c2", dto.AddCartItemRequest{ProductID: "prod-mug-classic", Quantity: 1})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "c2", dto.AddCartItemRequest{ProductID: "prod-mug-travel", Quantity: 1})
	require.NoError(t, err)

	cart, err := svc.UpdateItemQuantity(ctx, "c2", "prod-mug-travel", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Items[1].Quantity)

	_, err = svc.UpdateItemQuantity(ctx, "c2", "prod-missing", 4)
	assert.ErrorIs(t, err, ErrNotFound)

	cart, err = svc.UpdateItemQuantity(ctx, "c2", "prod-mug-classic", 0)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "prod-mug-travel", cart.Items[0].ProductID)

	cart, err = svc.RemoveItem(ctx, "c2", "prod-mug-travel")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	_, err = svc.RemoveItem(ctx, "c2", "prod-mug-travel")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.Clear(ctx, "c2"))
}

func TestCartService_AppliesImageOverride(t *testing.T) {
	env := setupTestEnv(t)
	svc := NewCartService(env.carts, env.facade, env.logger)
	ctx := context.Background()

	require.NoError(t, env.overrides.Upsert(ctx, "prod-mug-classic", "https://img.example/mug.png"))

	cart, err := svc.AddItem(ctx, "c3", dto.AddCartItemRequest{ProductID: "prod-mug-classic", Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/mug.png", cart.Items[0].ImageURL)
}
