package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloudcart-storefront/internal/cache"
	"cloudcart-storefront/internal/catalog"
	"cloudcart-storefront/internal/client"
	"cloudcart-storefront/internal/config"
	"cloudcart-storefront/internal/logging"
	"cloudcart-storefront/internal/repository"
	"cloudcart-storefront/internal/server"
	"cloudcart-storefront/internal/service"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("api stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	db, err := client.InitDatabase(cfg.Database)
	if err != nil {
		return err
	}
	rdb, err := client.InitRedisClient(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	orderRepo := repository.NewOrderRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	cartRepo := repository.NewCartRepository(rdb, cfg.Catalog.CartTTL)
	overrideRepo := repository.NewImageOverrideRepository(db)

	if cfg.Environment.Name == "development" {
		if err := catalogRepo.Seed(ctx); err != nil {
			return fmt.Errorf("seed local catalog: %w", err)
		}
	}

	backends := map[catalog.Source]catalog.Catalog{
		catalog.SourceFirestore: catalog.NewLocalCatalog(catalogRepo, cfg.Catalog.PageSize),
	}

	cloudCartClient := client.NewCloudCartClient(&cfg.CloudCart)
	if cfg.CloudCart.BaseApiURL != "" {
		images := cache.NewRedisImageCache(rdb, cfg.Catalog.ImageCacheTTL)
		backends[catalog.SourceCloudCart] = catalog.NewCloudCartCatalog(cloudCartClient, images, cfg.Catalog.PageSize, logger)
	} else {
		logger.Warn("CLOUDCART_BASE_API_URL is not set, cloudcart catalog and order sync are unavailable")
	}

	defaultSource, err := catalog.ParseSource(cfg.Catalog.DefaultSource)
	if err != nil {
		return fmt.Errorf("CATALOG_DEFAULT_SOURCE: %w", err)
	}
	if _, ok := backends[defaultSource]; !ok {
		logger.Warn("default catalog source is not configured, falling back", "source", defaultSource, "fallback", catalog.SourceFirestore)
		defaultSource = catalog.SourceFirestore
	}
	facade := catalog.NewFacade(defaultSource, backends, overrideRepo, logger)

	var payments client.BraintreeClient
	if cfg.BrainTree.Enabled() {
		payments = client.NewBraintreeClient(&cfg.BrainTree)
	} else {
		logger.Info("braintree is not configured, checkout leaves orders pending")
	}

	orderService := service.NewOrderService(db, orderRepo, idempotencyRepo, cfg.Orders.IdempotencyLease, logger)
	syncService := service.NewSyncService(cloudCartClient, orderRepo, logger)
	cartService := service.NewCartService(cartRepo, facade, logger)
	checkoutService := service.NewCheckoutService(cartRepo, repository.NewCaptureRepository(db), orderService, payments, logger)
	inventoryService := service.NewInventoryService(facade, overrideRepo, logger)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	// Init HTTP server
	srv := server.NewServer(cfg, logger, facade, orderService, syncService, cartService, checkoutService, inventoryService)

	errCh := make(chan error, 1)
	logger.Info("starting HTTP server", "addr", serverAddr, "environment", cfg.Environment.Name)
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigChan:
		logger.Info("signal received, starting graceful shutdown", "signal", sig.String())
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
