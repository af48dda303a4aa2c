package repository

import (
	"context"
	"testing"
	"time"

	"cloudcart-storefront/internal/dto"
	"cloudcart-storefront/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.Order{},
		&model.OrderItem{},
		&model.IdempotencyRecord{},
		&model.Capture{},
		&model.Category{},
		&model.Product{},
		&model.Variant{},
		&model.ImageOverride{},
	))
	return db
}

func newOrder(externalID *string, status model.OrderStatus) *model.Order {
	sku := "SKU"
	return &model.Order{
		ID:              uuid.NewString(),
		UserID:          "guest:a@b.co",
		OwnerKind:       model.OwnerKindGuest,
		OwnerEmail:      "a@b.co",
		ExternalOrderID: externalID,
		Status:          status,
		Items: []model.OrderItem{
			{ProductID: "p2", ProductName: "Second", Quantity: 1, UnitPrice: 1, UnitPriceCents: 100, TotalPrice: 1, TotalPriceCents: 100},
			{ProductID: "p1", ProductName: "First", SKU: &sku, Quantity: 2, UnitPrice: 2, UnitPriceCents: 200, TotalPrice: 4, TotalPriceCents: 400},
		},
		Subtotal: 5, Total: 5, SubtotalCents: 500, TotalCents: 500,
		Source: model.OrderSourceManual,
	}
}

func TestIdempotencyRepository_ReserveIsExclusive(t *testing.T) {
	repo := NewIdempotencyRepository(setupTestDB(t))
	ctx := context.Background()

	ok, err := repo.Reserve(ctx, "k", "owner-1", "t1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Reserve(ctx, "k", "owner-2", "t2")
	require.NoError(t, err)
	assert.False(t, ok)

	record, err := repo.Find(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "owner-1", record.OwnerID)
	assert.Equal(t, "t1", record.ClaimToken)
	assert.False(t, record.Resolved())

	_, err = repo.Find(ctx, "other")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIdempotencyRepository_TakeOverOnlyStaleUnresolved(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIdempotencyRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&model.IdempotencyRecord{Key: "stale", ClaimToken: "old", ReservedAt: time.Now().UTC().Add(-time.Hour)}).Error)
	_, err := repo.Reserve(ctx, "fresh", "o", "t1")
	require.NoError(t, err)

	cutoff := time.Now().UTC().Add(-time.Minute)

	took, err := repo.TakeOver(ctx, "fresh", cutoff, "t2")
	require.NoError(t, err)
	assert.False(t, took)

	took, err = repo.TakeOver(ctx, "stale", cutoff, "new")
	require.NoError(t, err)
	assert.True(t, took)

	record, err := repo.Find(ctx, "stale")
	require.NoError(t, err)
	assert.Equal(t, "new", record.ClaimToken)

	took, err = repo.TakeOver(ctx, "stale", cutoff, "newer")
	require.NoError(t, err)
	assert.False(t, took, "the reservation was refreshed by the first take over")
}

func TestIdempotencyRepository_ResolveAndRelease(t *testing.T) {
	repo := NewIdempotencyRepository(setupTestDB(t))
	ctx := context.Background()

	_, err := repo.Reserve(ctx, "a", "o", "ta")
	require.NoError(t, err)
	_, err = repo.Reserve(ctx, "b", "o", "tb")
	require.NoError(t, err)

	require.NoError(t, repo.Resolve(ctx, nil, "a", "ta", "order-1"))
	assert.ErrorIs(t, repo.Resolve(ctx, nil, "a", "ta", "order-2"), ErrClaimLost, "a resolved key cannot be repointed")
	assert.ErrorIs(t, repo.Resolve(ctx, nil, "missing", "ta", "order-1"), ErrClaimLost)

	require.NoError(t, repo.Release(ctx, "a", "ta"))
	require.NoError(t, repo.Release(ctx, "b", "tb"))

	record, err := repo.Find(ctx, "a")
	require.NoError(t, err, "resolved keys survive a release")
	assert.Equal(t, "order-1", record.OrderID)

	_, err = repo.Find(ctx, "b")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIdempotencyRepository_TokenScopesResolveAndRelease(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIdempotencyRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&model.IdempotencyRecord{Key: "k", ClaimToken: "first", ReservedAt: time.Now().UTC().Add(-time.Hour)}).Error)
	took, err := repo.TakeOver(ctx, "k", time.Now().UTC().Add(-time.Minute), "second")
	require.NoError(t, err)
	require.True(t, took)

	// the displaced holder can neither release nor resolve the key
	require.NoError(t, repo.Release(ctx, "k", "first"))
	assert.ErrorIs(t, repo.Resolve(ctx, nil, "k", "first", "order-a"), ErrClaimLost)

	record, err := repo.Find(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "second", record.ClaimToken)
	assert.False(t, record.Resolved())

	require.NoError(t, repo.Resolve(ctx, nil, "k", "second", "order-b"))
	record, err = repo.Find(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "order-b", record.OrderID)
}

func TestOrderRepository_CreateAndFind(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t))
	ctx := context.Background()

	ext := "cc-1"
	order := newOrder(&ext, model.OrderStatusPending)
	require.NoError(t, repo.Create(ctx, nil, order))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 2)
	assert.Equal(t, "p2", found.Items[0].ProductID, "items keep their submitted order")
	assert.Nil(t, found.Items[0].SKU)
	assert.Equal(t, "SKU", *found.Items[1].SKU)

	byExt, err := repo.FindByExternalID(ctx, "cc-1")
	require.NoError(t, err)
	assert.Equal(t, order.ID, byExt.ID)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderRepository_ExternalIDIsUnique(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t))
	ctx := context.Background()

	ext := "cc-9"
	require.NoError(t, repo.Create(ctx, nil, newOrder(&ext, model.OrderStatusPending)))

	err := repo.Create(ctx, nil, newOrder(&ext, model.OrderStatusPending))
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// manual orders have no external id and never collide
	require.NoError(t, repo.Create(ctx, nil, newOrder(nil, model.OrderStatusPending)))
	require.NoError(t, repo.Create(ctx, nil, newOrder(nil, model.OrderStatusPending)))
}

func TestOrderRepository_ListPaging(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, nil, newOrder(nil, model.OrderStatusPending)))
	}
	require.NoError(t, repo.Create(ctx, nil, newOrder(nil, model.OrderStatusCompleted)))

	orders, total, err := repo.List(ctx, dto.OrderFilter{Status: "pending", Page: 2, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, orders, 1)

	orders, total, err = repo.List(ctx, dto.OrderFilter{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, orders, 4)
}

func TestImageOverrideRepository(t *testing.T) {
	repo := NewImageOverrideRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "p1", "https://a"))
	require.NoError(t, repo.Upsert(ctx, "p1", "https://b"))
	require.NoError(t, repo.Upsert(ctx, "p2", "https://c"))

	urls, err := repo.FindMany(ctx, []string{"p1", "p3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"p1": "https://b"}, urls)

	require.NoError(t, repo.Delete(ctx, "p1"))
	assert.ErrorIs(t, repo.Delete(ctx, "p1"), ErrNotFound)
}

func TestCaptureRepository(t *testing.T) {
	repo := NewCaptureRepository(setupTestDB(t))
	ctx := context.Background()

	_, err := repo.LatestForOrder(ctx, "order-1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Create(ctx, &model.Capture{OrderID: "order-1", TransactionID: "tx-1", AmountCents: 100, Gateway: "braintree"}))
	require.NoError(t, repo.Create(ctx, &model.Capture{OrderID: "order-1", TransactionID: "tx-2", AmountCents: 100, Gateway: "braintree"}))

	err = repo.Create(ctx, &model.Capture{OrderID: "order-2", TransactionID: "tx-1", AmountCents: 5, Gateway: "braintree"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	latest, err := repo.LatestForOrder(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, "tx-2", latest.TransactionID)
}
