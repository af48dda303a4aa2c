package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cloudcart-storefront/internal/config"
	"cloudcart-storefront/internal/dto"
	"cloudcart-storefront/internal/validation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncRequest(t *testing.T) {
	req, err := syncRequest(options{from: "2024-01-01", to: "2024-02-01", limit: 50, status: "paid"})
	require.NoError(t, err)
	assert.Equal(t, 50, req.Limit)
	assert.Equal(t, "paid", req.Status)
	require.NotNil(t, req.DateFrom)
	assert.Equal(t, time.January, req.DateFrom.Month())

	var verr *validation.Error
	_, err = syncRequest(options{limit: 0})
	assert.ErrorAs(t, err, &verr)

	_, err = syncRequest(options{limit: 10, from: "2024-03-01", to: "2024-02-01"})
	assert.ErrorAs(t, err, &verr)
}

func TestPrintSummary(t *testing.T) {
	var out bytes.Buffer
	err := printSummary(&out, &dto.SyncResult{TotalFetched: 3, NewOrdersSaved: 2, SkippedDuplicates: 1}, time.Hour, 7)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "skipped (duplicate)")
	assert.Contains(t, text, "idempotency keys purged")
	assert.Contains(t, text, "7")
}

func TestRun(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer upstream.Close()

	cfg := &config.Config{
		Database:  config.Database{Driver: "sqlite", URL: "file:" + uuid.NewString() + "?mode=memory&cache=shared"},
		CloudCart: config.CloudCart{BaseApiURL: upstream.URL, Timeout: time.Second},
		Orders:    config.Orders{IdempotencyLease: 30 * time.Second},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var out bytes.Buffer
	err := run(context.Background(), cfg, options{limit: 5, purge: time.Hour}, logger, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "fetched")

	cfg.CloudCart.BaseApiURL = ""
	assert.Error(t, run(context.Background(), cfg, options{limit: 5}, logger, &out))
}
