package catalog

import (
	"context"
	"testing"

	"cloudcart-storefront/internal/client"
	"cloudcart-storefront/internal/config"
	"cloudcart-storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := client.InitDatabase(config.Database{
		Driver: "sqlite",
		URL:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func seededLocalCatalog(t *testing.T) (*LocalCatalog, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	repo := repository.NewCatalogRepository(db)
	require.NoError(t, repo.Seed(context.Background()))
	return NewLocalCatalog(repo, 24), db
}

func TestLocalCatalog_Categories(t *testing.T) {
	c, _ := seededLocalCatalog(t)
	ctx := context.Background()

	page, err := c.ListCategories(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Mugs", page.Items[0].Name)
	assert.Equal(t, SourceFirestore, page.Items[0].Source)
	assert.Equal(t, PageMeta{CurrentPage: 1, PerPage: 24, From: 1, To: 2, Total: 2, LastPage: 1}, page.Meta)

	category, err := c.GetCategory(ctx, "cat-tees")
	require.NoError(t, err)
	assert.Equal(t, "t-shirts", category.Slug)

	_, err = c.GetCategory(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalCatalog_ProductsPagingAndSearch(t *testing.T) {
	c, _ := seededLocalCatalog(t)
	ctx := context.Background()

	page, err := c.ListProducts(ctx, "cat-mugs", Query{Page: 2, PerPage: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Travel Mug", page.Items[0].Name)
	assert.Equal(t, PageMeta{CurrentPage: 2, PerPage: 1, From: 2, To: 2, Total: 2, LastPage: 2}, page.Meta)

	page, err = c.ListProducts(ctx, "", Query{Search: "TEE"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "prod-tee-logo", page.Items[0].ID)
	assert.False(t, page.Items[0].InStock)

	page, err = c.ListProducts(ctx, "cat-mugs", Query{Page: 9})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.Meta.From)
	assert.Equal(t, 0, page.Meta.To)
}

func TestLocalCatalog_VariantsAndStock(t *testing.T) {
	c, _ := seededLocalCatalog(t)
	ctx := context.Background()

	require.NoError(t, c.UpdateVariantStock(ctx, "var-tee-logo-s", 3))

	variants, err := c.ListVariants(ctx, "prod-tee-logo")
	require.NoError(t, err)
	require.Len(t, variants, 2)
	assert.Equal(t, "M", variants[0].Name)
	assert.Equal(t, "S", variants[1].Name)
	assert.Equal(t, 3, variants[1].Quantity)

	assert.ErrorIs(t, c.UpdateVariantStock(ctx, "missing", 1), ErrNotFound)
}

func TestNewPageMeta(t *testing.T) {
	tests := []struct {
		name             string
		page, perPage    int
		total            int64
		wantFrom, wantTo int
		wantLast         int
	}{
		{"empty", 1, 10, 0, 0, 0, 1},
		{"first page", 1, 10, 25, 1, 10, 3},
		{"last partial page", 3, 10, 25, 21, 25, 3},
		{"past the end", 4, 10, 25, 0, 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := NewPageMeta(tt.page, tt.perPage, tt.total)
			assert.Equal(t, tt.wantFrom, meta.From)
			assert.Equal(t, tt.wantTo, meta.To)
			assert.Equal(t, tt.wantLast, meta.LastPage)
		})
	}
}
