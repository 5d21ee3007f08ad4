package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/plataforma-media/user-accounts-api/internal/core/domain"
	"github.com/plataforma-media/user-accounts-api/internal/core/service"
)

type stubRevoker struct {
	revoked map[string]bool
}

func (r *stubRevoker) Revoke(_ context.Context, id string) error {
	r.revoked[id] = true
	return nil
}

func (r *stubRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	return r.revoked[id], nil
}

func issueToken(t *testing.T) string {
	t.Helper()
	token, err := service.NewJWTIssuer("secret", time.Hour).Issue(&domain.Identity{
		ID:    "id-1",
		Email: "a@x.com",
		Role:  domain.RoleClient,
	})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func expiredToken(t *testing.T) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "id-1",
		IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newAuthContext(authorization string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuth_ValidToken(t *testing.T) {
	c, rec := newAuthContext("Bearer " + issueToken(t))

	called := false
	handler := Auth(service.NewJWTIssuer("secret", time.Hour), nil)(func(c echo.Context) error {
		called = true
		caller, ok := c.Get(CallerContextKey).(domain.Caller)
		if !ok {
			t.Fatalf("caller not set")
		}
		if caller.ID != "id-1" || caller.Email != "a@x.com" || caller.Role != domain.RoleClient {
			t.Fatalf("unexpected caller: %+v", caller)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuth_MissingHeader(t *testing.T) {
	c, _ := newAuthContext("")

	handler := Auth(service.NewJWTIssuer("secret", time.Hour), nil)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	err := handler(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestAuth_InvalidHeaderFormat(t *testing.T) {
	c, _ := newAuthContext("Token abc")

	handler := Auth(service.NewJWTIssuer("secret", time.Hour), nil)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	err := handler(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	c, _ := newAuthContext("Bearer not-a-token")

	handler := Auth(service.NewJWTIssuer("secret", time.Hour), nil)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestAuth_ExpiredToken(t *testing.T) {
	c, _ := newAuthContext("Bearer " + expiredToken(t))

	handler := Auth(service.NewJWTIssuer("secret", time.Hour), nil)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestAuth_RevokedIdentityRejected(t *testing.T) {
	revoker := &stubRevoker{revoked: map[string]bool{"id-1": true}}
	c, _ := newAuthContext("Bearer " + issueToken(t))

	handler := Auth(service.NewJWTIssuer("secret", time.Hour), revoker)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for revoked identity, got %v", err)
	}
}

func TestOptionalAuth_NoHeaderContinuesAnonymously(t *testing.T) {
	c, rec := newAuthContext("")

	handler := OptionalAuth(service.NewJWTIssuer("secret", time.Hour), nil)(func(c echo.Context) error {
		if c.Get(CallerContextKey) != nil {
			t.Fatalf("caller must not be set for anonymous request")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestOptionalAuth_BadHeaderStillRejected(t *testing.T) {
	c, _ := newAuthContext("Bearer not-a-token")

	handler := OptionalAuth(service.NewJWTIssuer("secret", time.Hour), nil)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}
