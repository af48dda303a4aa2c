package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"cloudcart-storefront/internal/catalog"
	"cloudcart-storefront/internal/client"
	"cloudcart-storefront/internal/config"
	"cloudcart-storefront/internal/dto"
	"cloudcart-storefront/internal/model"
	"cloudcart-storefront/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db          *gorm.DB
	rdb         *redis.Client
	orders      repository.OrderRepository
	idempotency repository.IdempotencyRepository
	carts       repository.CartRepository
	captures    repository.CaptureRepository
	overrides   repository.ImageOverrideRepository
	facade      *catalog.Facade
	logger      *slog.Logger

	orderService OrderService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := client.InitDatabase(config.Database{
		Driver: "sqlite",
		URL:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	catalogRepo := repository.NewCatalogRepository(db)
	require.NoError(t, catalogRepo.Seed(context.Background()))

	env := &testEnv{
		db:          db,
		rdb:         rdb,
		orders:      repository.NewOrderRepository(db),
		idempotency: repository.NewIdempotencyRepository(db),
		carts:       repository.NewCartRepository(rdb, time.Hour),
		captures:    repository.NewCaptureRepository(db),
		overrides:   repository.NewImageOverrideRepository(db),
		logger:      logger,
	}
	env.facade = catalog.NewFacade(catalog.SourceFirestore, map[catalog.Source]catalog.Catalog{
		catalog.SourceFirestore: catalog.NewLocalCatalog(catalogRepo, 24),
	}, env.overrides, logger)
	env.orderService = NewOrderService(db, env.orders, env.idempotency, 30*time.Second, logger)

	return env
}

func (e *testEnv) countOrders(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&model.Order{}).Count(&n).Error)
	return n
}

func (e *testEnv) countIdempotencyRecords(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&model.IdempotencyRecord{}).Count(&n).Error)
	return n
}

func strPtr(s string) *string { return &s }

func scenarioPayload() *dto.CreateOrderPayload {
	return &dto.CreateOrderPayload{
		Owner: model.Owner{Kind: model.OwnerKindGuest, Email: "Guest@Example.com", Name: "Guest"},
		Items: []dto.OrderItemInput{
			{ProductID: "p1", ProductName: "Mug", Quantity: 2, UnitPrice: 9.99, SKU: strPtr("MUG-1")},
			{ProductID: "p2", ProductName: "Tee", Quantity: 1, UnitPrice: 5},
		},
	}
}
