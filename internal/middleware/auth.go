package middleware // middleware provides shared request processing for handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/social-feed-api/internal/model"
	"github.com/iliyamo/social-feed-api/internal/repository"
	"github.com/iliyamo/social-feed-api/internal/service"
)

// viewerKey is the context key under which the resolved account is
// stored for handlers.
const viewerKey = "viewer"

// Viewer returns the authenticated account from the context, or nil
// for anonymous requests.
func Viewer(c echo.Context) *model.User {
	if u, ok := c.Get(viewerKey).(*model.User); ok {
		return u
	}
	return nil
}

// RequireAuth resolves the Bearer access credential through the
// session lifecycle's Authenticate and stores the account under the
// viewer key. The resolution already rejects wrong-kind tokens and
// revoked sessions; this middleware only maps the failures to HTTP.
func RequireAuth(auth *service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			u, err := auth.Authenticate(c.Request().Context(), raw)
			if err != nil {
				switch {
				case errors.Is(err, repository.ErrNotFound):
					return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
				case errors.Is(err, service.ErrInactiveAccount):
					return c.JSON(http.StatusForbidden, echo.Map{"error": "inactive account"})
				default:
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
				}
			}
			c.Set(viewerKey, u)
			return next(c)
		}
	}
}

// OptionalAuth resolves the viewer when a valid Bearer credential is
// present and otherwise lets the request through anonymously. Used on
// read endpoints where public content needs no session.
func OptionalAuth(auth *service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw, ok := bearerToken(c); ok {
				if u, err := auth.Authenticate(c.Request().Context(), raw); err == nil {
					c.Set(viewerKey, u)
				}
			}
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, bool) {
	h := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return raw, raw != ""
}
