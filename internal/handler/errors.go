package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/social-feed-api/internal/repository"
	"github.com/iliyamo/social-feed-api/internal/service"
	"github.com/iliyamo/social-feed-api/internal/utils"
)

// writeError translates core sentinels to HTTP status codes. The
// mapping lives only here; the service layer stays transport-free.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrAuthRequired),
		errors.Is(err, utils.ErrTokenExpired),
		errors.Is(err, utils.ErrTokenMalformed),
		errors.Is(err, utils.ErrTokenClaims),
		errors.Is(err, utils.ErrWrongKind),
		errors.Is(err, repository.ErrSessionRevoked),
		errors.Is(err, repository.ErrSessionMismatch):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrEmailUnverified),
		errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrInactiveAccount):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrSelfFollow),
		errors.Is(err, repository.ErrNotFollowing):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
