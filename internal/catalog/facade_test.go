package catalog

import (
	"context"
	"testing"

	"cloudcart-storefront/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFacade_For(t *testing.T) {
	local, db := seededLocalCatalog(t)
	remote := NewCloudCartCatalog(&fakeCloudCart{products: productsDoc}, nil, 24, quietLogger())

	f := NewFacade(SourceCloudCart, map[Source]Catalog{
		SourceCloudCart: remote,
		SourceFirestore: local,
	}, repository.NewImageOverrideRepository(db), quietLogger())

	_, source, err := f.For("")
	require.NoError(t, err)
	assert.Equal(t, SourceCloudCart, source)

	_, source, err = f.For("FireStore")
	require.NoError(t, err)
	assert.Equal(t, SourceFirestore, source)

	_, _, err = f.For("shopify")
	assert.ErrorIs(t, err, ErrInvalidSource)
}

func TestFacade_MissingBackend(t *testing.T) {
	local, _ := seededLocalCatalog(t)
	f := NewFacade(SourceCloudCart, map[Source]Catalog{SourceFirestore: local}, nil, quietLogger())

	_, _, err := f.For("cloudcart")
	assert.ErrorIs(t, err, ErrInvalidSource)
}

func TestFacade_AppliesImageOverrides(t *testing.T) {
	local, db := seededLocalCatalog(t)
	overrides := repository.NewImageOverrideRepository(db)
	require.NoError(t, overrides.Upsert(context.Background(), "prod-mug-travel", "https://img.example/travel.png"))

	f := NewFacade(SourceFirestore, map[Source]Catalog{SourceFirestore: local}, overrides, quietLogger())
	c, _, err := f.For("")
	require.NoError(t, err)

	page, err := c.ListProducts(context.Background(), "cat-mugs", Query{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Empty(t, page.Items[0].ImageURL)
	assert.Equal(t, "https://img.example/travel.png", page.Items[1].ImageURL)

	product, err := c.GetProduct(context.Background(), "prod-mug-travel")
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/travel.png", product.ImageURL)

	_, err = c.GetProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
