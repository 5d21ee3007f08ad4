package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/plataforma-media/user-accounts-api/internal/core/domain"
)

// RBAC enforces role-based access control over the caller injected by Auth.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, _ := c.Get(CallerContextKey).(domain.Caller)
			if _, ok := allowed[caller.Role]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "access forbidden")
			}
			return next(c)
		}
	}
}
