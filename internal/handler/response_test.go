package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"cloudcart-storefront/internal/catalog"
	"cloudcart-storefront/internal/service"
	"cloudcart-storefront/internal/validation"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"validation", validation.Invalid("invalid order payload", "items", "is required"), http.StatusBadRequest, "invalid order payload"},
		{"service not found", fmt.Errorf("load: %w", service.ErrNotFound), http.StatusNotFound, "not found"},
		{"catalog not found", catalog.ErrNotFound, http.StatusNotFound, "not found"},
		{"invalid source", catalog.ErrInvalidSource, http.StatusBadRequest, "invalid source"},
		{"in progress", service.ErrIdempotencyInProgress, http.StatusConflict, "a request with this idempotency key is still being processed"},
		{"declined", service.ErrPaymentDeclined, http.StatusPaymentRequired, "payment declined"},
		{"empty cart", service.ErrCartEmpty, http.StatusBadRequest, "cart is empty"},
		{"forbidden", echo.NewHTTPError(http.StatusForbidden, "forbidden"), http.StatusForbidden, "forbidden"},
		{"echo 5xx", echo.NewHTTPError(http.StatusServiceUnavailable, "db is down"), http.StatusServiceUnavailable, "Service Unavailable"},
		{"unknown", errors.New("dial tcp: connection refused"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := classify(tt.err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestErrorHandler_HidesInternalErrors(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	ErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))(errors.New("secret dsn leaked"), c)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":{"message":"internal server error"}}`, rec.Body.String())
}

func TestPageParams(t *testing.T) {
	e := echo.New()

	tests := []struct {
		query   string
		page    int
		perPage int
		wantErr bool
	}{
		{"", 0, 0, false},
		{"page=2&per_page=10", 2, 10, false},
		{"limit=7", 0, 7, false},
		{"per_page=3&limit=7", 0, 3, false},
		{"page=-1", 0, 0, true},
		{"limit=abc", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil), httptest.NewRecorder())
			page, perPage, err := pageParams(c)
			if tt.wantErr {
				var verr *validation.Error
				assert.ErrorAs(t, err, &verr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.page, page)
			assert.Equal(t, tt.perPage, perPage)
		})
	}
}
