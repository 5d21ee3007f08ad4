package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/plataforma-media/user-accounts-api/internal/api/middleware"
	"github.com/plataforma-media/user-accounts-api/internal/core/domain"
)

// callerFromContext extracts the authenticated caller injected by the Auth
// middleware. Presence of a non-zero caller proves the middleware ran;
// without it the request must not reach a protected handler.
func callerFromContext(c echo.Context) (domain.Caller, error) {
	caller, _ := c.Get(middleware.CallerContextKey).(domain.Caller)
	if caller.IsZero() {
		return domain.Caller{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return caller, nil
}

// optionalCallerFromContext returns the caller if one was authenticated and a
// zero Caller otherwise. Used on routes behind OptionalAuth.
func optionalCallerFromContext(c echo.Context) domain.Caller {
	caller, _ := c.Get(middleware.CallerContextKey).(domain.Caller)
	return caller
}
