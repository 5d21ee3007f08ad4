package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/plataforma-media/user-accounts-api/internal/core/domain"
)

func renderError(t *testing.T, err error) (int, errorEnvelope) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop())(err, c)

	var body errorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json body: %v", err)
	}
	return rec.Code, body
}

func TestErrorHandler_DomainErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"password mismatch", domain.ErrPasswordMismatch, http.StatusBadRequest},
		{"invalid role", domain.ErrInvalidRole, http.StatusBadRequest},
		{"wrong password", domain.ErrWrongPassword, http.StatusBadRequest},
		{"password not updatable", domain.ErrPasswordNotUpdatable, http.StatusBadRequest},
		{"already deleted", domain.ErrAlreadyDeleted, http.StatusBadRequest},
		{"invalid credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{"token expired", domain.ErrTokenExpired, http.StatusUnauthorized},
		{"token invalid", domain.ErrTokenInvalid, http.StatusUnauthorized},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden},
		{"not found", domain.ErrIdentityNotFound, http.StatusNotFound},
		{"email taken", domain.ErrEmailTaken, http.StatusConflict},
		{"store unavailable", domain.ErrStoreUnavailable, http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := renderError(t, tc.err)
			if code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, code)
			}
			if body.Success {
				t.Fatalf("success must be false")
			}
			if body.Status != tc.code {
				t.Fatalf("status field %d must match code %d", body.Status, tc.code)
			}
			if body.Message == "" {
				t.Fatalf("message must not be empty")
			}
		})
	}
}

func TestErrorHandler_WrappedDomainErrorStillMapped(t *testing.T) {
	code, _ := renderError(t, fmt.Errorf("create: insert credential: %w", domain.ErrEmailTaken))
	if code != http.StatusConflict {
		t.Fatalf("expected 409 for wrapped error, got %d", code)
	}
}

func TestErrorHandler_ConsistencyAlarmHiddenFromClient(t *testing.T) {
	alarm := &domain.ConsistencyAlarm{
		Operation:  "create",
		IdentityID: "id-1",
		Committed:  "profile",
		Cause:      errors.New("credential commit failed"),
	}

	code, body := renderError(t, alarm)
	if code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", code)
	}
	if body.Message != "internal server error" {
		t.Fatalf("alarm details must not leak: %q", body.Message)
	}
}

func TestErrorHandler_EchoHTTPErrorPassthrough(t *testing.T) {
	code, body := renderError(t, echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header"))
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
	if body.Message != "missing authorization header" {
		t.Fatalf("unexpected message %q", body.Message)
	}
}

func TestErrorHandler_UnexpectedErrorIsGeneric(t *testing.T) {
	code, body := renderError(t, errors.New("pq: connection reset"))
	if code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", code)
	}
	if body.Message != "internal server error" {
		t.Fatalf("internal details must not leak: %q", body.Message)
	}
}
