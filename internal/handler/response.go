package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"cloudcart-storefront/internal/catalog"
	"cloudcart-storefront/internal/dto"
	"cloudcart-storefront/internal/service"
	"cloudcart-storefront/internal/validation"

	"github.com/labstack/echo/v4"
)

const HeaderIdempotencyKey = "Idempotency-Key"

func respond(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, dto.Response{Success: true, Data: data})
}

func respondPage(c echo.Context, data interface{}, meta catalog.PageMeta) error {
	return c.JSON(http.StatusOK, dto.Response{
		Success: true,
		Data:    data,
		Meta:    dto.PageMetaEnvelope{Page: meta},
	})
}

// ErrorHandler renders every error, including echo's own routing errors and recovered
// panics, in the failure envelope. Internal details are logged, never returned.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := classify(err)
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request().Context(), "request failed",
				"method", c.Request().Method,
				"path", c.Path(),
				"error", err,
			)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, dto.Response{Success: false, Error: body})
	}
}

func classify(err error) (int, *dto.ErrorBody) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return http.StatusBadRequest, &dto.ErrorBody{Message: verr.Message, Details: verr.Details}
	}

	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound, &dto.ErrorBody{Message: "not found"}
	case errors.Is(err, service.ErrInvalidSource), errors.Is(err, catalog.ErrInvalidSource):
		return http.StatusBadRequest, &dto.ErrorBody{
			Message: "invalid source",
			Details: []validation.FieldError{{Field: "source", Message: "must be one of cloudcart, firestore"}},
		}
	case errors.Is(err, service.ErrIdempotencyInProgress):
		return http.StatusConflict, &dto.ErrorBody{Message: "a request with this idempotency key is still being processed"}
	case errors.Is(err, service.ErrPaymentDeclined):
		return http.StatusPaymentRequired, &dto.ErrorBody{Message: "payment declined"}
	case errors.Is(err, service.ErrCartEmpty):
		return http.StatusBadRequest, &dto.ErrorBody{Message: "cart is empty"}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		message, ok := he.Message.(string)
		if !ok || he.Code >= http.StatusInternalServerError {
			message = http.StatusText(he.Code)
		}
		return he.Code, &dto.ErrorBody{Message: message}
	}

	return http.StatusInternalServerError, &dto.ErrorBody{Message: "internal server error"}
}

func readBody(c echo.Context) ([]byte, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, validation.Invalid("invalid request body", "body", "could not be read")
	}
	return body, nil
}

// pageParams reads page and per_page (or its alias limit). Zero means "use the default".
func pageParams(c echo.Context) (int, int, error) {
	page, err := intParam(c, "page")
	if err != nil {
		return 0, 0, err
	}

	perPageName := "per_page"
	if c.QueryParam(perPageName) == "" {
		perPageName = "limit"
	}
	perPage, err := intParam(c, perPageName)
	if err != nil {
		return 0, 0, err
	}
	return page, perPage, nil
}

func intParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, validation.Invalid("invalid query", name, "must be a positive integer")
	}
	return v, nil
}
