package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"cloudcart-storefront/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	ContextAdminSubject = "admin_subject"
	ContextAdminEmail   = "admin_email"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrForbidden    = errors.New("admin access required")
)

// AdminAuth rejects requests without a valid HS256 bearer token (401) and tokens that
// belong to non-admins (403). A token is an admin token when it carries the configured
// boolean claim or its email is on the allow list.
func AdminAuth(cfg config.Auth) echo.MiddlewareFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	allowed := make([]string, 0, len(cfg.AdminEmails))
	for _, email := range cfg.AdminEmails {
		if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
			allowed = append(allowed, email)
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request())
			if !ok || cfg.JWTSecret == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized").SetInternal(ErrMissingToken)
			}

			claims := jwt.MapClaims{}
			_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
				return []byte(cfg.JWTSecret), nil
			})
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized").SetInternal(err)
			}

			email, _ := claims["email"].(string)
			email = strings.ToLower(strings.TrimSpace(email))
			isAdmin, _ := claims[cfg.AdminClaim].(bool)
			if !isAdmin && (email == "" || !slices.Contains(allowed, email)) {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden").SetInternal(ErrForbidden)
			}

			subject, _ := claims.GetSubject()
			c.Set(ContextAdminSubject, subject)
			c.Set(ContextAdminEmail, email)
			return next(c)
		}
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get(echo.HeaderAuthorization)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
