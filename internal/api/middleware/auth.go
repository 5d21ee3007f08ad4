package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/plataforma-media/user-accounts-api/internal/core/domain"
	"github.com/plataforma-media/user-accounts-api/internal/core/ports"
)

// CallerContextKey is where the authenticated caller is stored in the echo
// context. Handlers read it through handler.CallerFromContext.
const CallerContextKey = "caller"

// Auth validates the Bearer token, rejects revoked identities, and injects
// the authenticated caller into the request context. Expired and malformed
// tokens surface as distinct 401 messages.
func Auth(tokens ports.TokenIssuer, revoked ports.SessionRevoker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := bearerToken(c)
			if err != nil {
				return err
			}

			caller, err := authenticate(c, raw, tokens, revoked)
			if err != nil {
				return err
			}

			c.Set(CallerContextKey, caller)
			return next(c)
		}
	}
}

// OptionalAuth authenticates the caller when an Authorization header is
// present and continues anonymously when it is absent. A header that is
// present but invalid is still rejected. Used on registration, where creating
// an Administrator requires an authenticated Administrator but creating a
// Client does not.
func OptionalAuth(tokens ports.TokenIssuer, revoked ports.SessionRevoker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") == "" {
				return next(c)
			}

			raw, err := bearerToken(c)
			if err != nil {
				return err
			}
			caller, err := authenticate(c, raw, tokens, revoked)
			if err != nil {
				return err
			}

			c.Set(CallerContextKey, caller)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return parts[1], nil
}

func authenticate(c echo.Context, raw string, tokens ports.TokenIssuer, revoked ports.SessionRevoker) (domain.Caller, error) {
	caller, err := tokens.Verify(raw)
	if err != nil {
		// domain.ErrTokenExpired / ErrTokenInvalid map to distinct messages.
		return domain.Caller{}, err
	}

	if revoked != nil {
		isRevoked, err := revoked.IsRevoked(c.Request().Context(), caller.ID)
		if err != nil {
			return domain.Caller{}, err
		}
		if isRevoked {
			return domain.Caller{}, domain.ErrTokenInvalid
		}
	}

	return caller, nil
}
