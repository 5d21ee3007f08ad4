package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/plataforma-media/user-accounts-api/internal/core/domain"
)

// errorEnvelope is the canonical error body for all API errors:
// {"success": false, "status": <code>, "message": "...", "errors": [...]}.
type errorEnvelope struct {
	Success bool     `json:"success"`
	Status  int      `json:"status"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Never exposes a ConsistencyAlarm beyond a generic 500; the alarm itself
//     is already logged by the coordinator and counted in metrics.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorEnvelope{Success: false, Status: code, Message: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// A partial dual-store commit that could not be compensated. The client
	// gets a plain 500; reconciliation happens out of band.
	var alarm *domain.ConsistencyAlarm
	if errors.As(err, &alarm) {
		return http.StatusInternalServerError, "internal server error"
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrPasswordMismatch):
		return http.StatusBadRequest, "passwords do not match"
	case errors.Is(err, domain.ErrInvalidRole):
		return http.StatusBadRequest, "invalid role"
	case errors.Is(err, domain.ErrWrongPassword):
		return http.StatusBadRequest, "current password is incorrect"
	case errors.Is(err, domain.ErrPasswordNotUpdatable):
		return http.StatusBadRequest, "password cannot be updated here; use the password change endpoint"
	case errors.Is(err, domain.ErrAlreadyDeleted):
		return http.StatusBadRequest, "user already deleted"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials or inactive user"
	case errors.Is(err, domain.ErrTokenExpired):
		return http.StatusUnauthorized, "token expired"
	case errors.Is(err, domain.ErrTokenInvalid):
		return http.StatusUnauthorized, "invalid token"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden"
	case errors.Is(err, domain.ErrIdentityNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict, "email already registered"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "a backing store is unavailable"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
