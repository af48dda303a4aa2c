package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"cloudcart-storefront/internal/client"
	"cloudcart-storefront/internal/config"
	"cloudcart-storefront/internal/dto"
	"cloudcart-storefront/internal/logging"
	"cloudcart-storefront/internal/repository"
	"cloudcart-storefront/internal/service"
	"cloudcart-storefront/internal/validation"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
)

type options struct {
	from   string
	to     string
	limit  int
	status string
	purge  time.Duration
}

func main() {
	_ = godotenv.Load()

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	opts := options{}
	flag.StringVar(&opts.from, "from", "", "only orders created on or after this date (YYYY-MM-DD or RFC3339)")
	flag.StringVar(&opts.to, "to", "", "only orders created on or before this date (YYYY-MM-DD or RFC3339)")
	flag.IntVar(&opts.limit, "limit", validation.DefaultSyncLimit, fmt.Sprintf("orders to fetch, 1..%d", validation.MaxSyncLimit))
	flag.StringVar(&opts.status, "status", "", "CloudCart order status filter")
	flag.DurationVar(&opts.purge, "purge-idempotency", cfg.Orders.IdempotencyRetention,
		"delete resolved idempotency keys older than this (0 disables)")
	flag.Parse()

	logger := logging.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, logger, os.Stdout); err != nil {
		logger.Error("order sync failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, logger *slog.Logger, out io.Writer) error {
	req, err := syncRequest(opts)
	if err != nil {
		return err
	}
	if cfg.CloudCart.BaseApiURL == "" {
		return errors.New("CLOUDCART_BASE_API_URL is required")
	}

	db, err := client.InitDatabase(cfg.Database)
	if err != nil {
		return err
	}

	orderRepo := repository.NewOrderRepository(db)
	syncService := service.NewSyncService(client.NewCloudCartClient(&cfg.CloudCart), orderRepo, logger)
	orderService := service.NewOrderService(db, orderRepo, repository.NewIdempotencyRepository(db), cfg.Orders.IdempotencyLease, logger)

	result, syncErr := syncService.SyncOrders(ctx, *req)

	var purged int64
	if syncErr == nil && opts.purge > 0 {
		if purged, err = orderService.PurgeIdempotencyKeys(ctx, opts.purge); err != nil {
			return err
		}
	}

	if result != nil {
		if err := printSummary(out, result, opts.purge, purged); err != nil {
			return err
		}
	}
	return syncErr
}

// syncRequest runs the flags through the same validator as the admin endpoint.
func syncRequest(opts options) (*dto.SyncRequest, error) {
	body := map[string]any{"limit": opts.limit}
	if opts.from != "" {
		body["dateFrom"] = opts.from
	}
	if opts.to != "" {
		body["dateTo"] = opts.to
	}
	if opts.status != "" {
		body["status"] = opts.status
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return validation.ParseSyncRequest(raw)
}

func printSummary(out io.Writer, result *dto.SyncResult, purgeAge time.Duration, purged int64) error {
	table := tablewriter.NewWriter(out)
	table.Header("Metric", "Count")

	rows := [][]string{
		{"fetched", strconv.Itoa(result.TotalFetched)},
		{"saved", strconv.Itoa(result.NewOrdersSaved)},
		{"skipped (duplicate)", strconv.Itoa(result.SkippedDuplicates)},
		{"failed", strconv.Itoa(result.FailedOrders)},
	}
	if purgeAge > 0 {
		rows = append(rows, []string{"idempotency keys purged (> " + purgeAge.String() + ")", strconv.FormatInt(purged, 10)})
	}

	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}
