package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/plataforma-media/user-accounts-api/internal/api/middleware"
	"github.com/plataforma-media/user-accounts-api/internal/core/domain"
	"github.com/plataforma-media/user-accounts-api/internal/core/ports"
)

// stubIdentityService lets each test wire only the methods it exercises.
type stubIdentityService struct {
	createFn         func(ctx context.Context, in ports.CreateIdentityInput) (*domain.Identity, error)
	getFn            func(ctx context.Context, id string, caller domain.Caller) (*domain.Identity, error)
	listFn           func(ctx context.Context, in ports.ListIdentitiesInput) ([]*domain.Identity, error)
	updateFn         func(ctx context.Context, in ports.UpdateProfileInput) (*domain.Identity, error)
	changePasswordFn func(ctx context.Context, in ports.ChangePasswordInput) error
	deleteFn         func(ctx context.Context, id string, caller domain.Caller) error
	authenticateFn   func(ctx context.Context, email, password string) (*domain.Identity, string, error)
}

func (s *stubIdentityService) Create(ctx context.Context, in ports.CreateIdentityInput) (*domain.Identity, error) {
	return s.createFn(ctx, in)
}

func (s *stubIdentityService) Get(ctx context.Context, id string, caller domain.Caller) (*domain.Identity, error) {
	return s.getFn(ctx, id, caller)
}

func (s *stubIdentityService) List(ctx context.Context, in ports.ListIdentitiesInput) ([]*domain.Identity, error) {
	return s.listFn(ctx, in)
}

func (s *stubIdentityService) UpdateProfile(ctx context.Context, in ports.UpdateProfileInput) (*domain.Identity, error) {
	return s.updateFn(ctx, in)
}

func (s *stubIdentityService) ChangePassword(ctx context.Context, in ports.ChangePasswordInput) error {
	return s.changePasswordFn(ctx, in)
}

func (s *stubIdentityService) Delete(ctx context.Context, id string, caller domain.Caller) error {
	return s.deleteFn(ctx, id, caller)
}

func (s *stubIdentityService) Authenticate(ctx context.Context, email, password string) (*domain.Identity, string, error) {
	return s.authenticateFn(ctx, email, password)
}

func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func setCaller(c echo.Context, caller domain.Caller) {
	c.Set(middleware.CallerContextKey, caller)
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubIdentityService{
		authenticateFn: func(ctx context.Context, email, password string) (*domain.Identity, string, error) {
			if email != "a@x.com" || password != "Abc12345!" {
				t.Fatalf("unexpected credentials: %s %s", email, password)
			}
			return &domain.Identity{ID: "id-1", Email: email, Role: domain.RoleClient}, "signed-token", nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newJSONContext(http.MethodPost, "/auth/login", `{"email":"a@x.com","password":"Abc12345!"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "signed-token" {
		t.Fatalf("token missing from response: %+v", resp)
	}
	user, ok := resp["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user in response")
	}
	if user["email"] != "a@x.com" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Fatalf("password hash must never be serialized")
	}
}

func TestAuthHandler_Login_InvalidCredentialsPropagates(t *testing.T) {
	stub := &stubIdentityService{
		authenticateFn: func(ctx context.Context, email, password string) (*domain.Identity, string, error) {
			return nil, "", domain.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(stub)

	c, _ := newJSONContext(http.MethodPost, "/auth/login", `{"email":"a@x.com","password":"wrong"}`)
	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthHandler_Login_RejectsMissingFields(t *testing.T) {
	h := NewAuthHandler(&stubIdentityService{})

	c, _ := newJSONContext(http.MethodPost, "/auth/login", `{"email":"not-an-email"}`)
	err := h.Login(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAuthHandler_ChangePassword_Success(t *testing.T) {
	stub := &stubIdentityService{
		changePasswordFn: func(ctx context.Context, in ports.ChangePasswordInput) error {
			if in.ID != "id-1" || in.CurrentPassword != "old-pass1" || in.NewPassword != "new-pass1" {
				t.Fatalf("unexpected input: %+v", in)
			}
			if in.Caller.ID != "id-1" {
				t.Fatalf("caller not propagated: %+v", in.Caller)
			}
			return nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newJSONContext(http.MethodPatch, "/auth/users/id-1", `{"current_password":"old-pass1","new_password":"new-pass1"}`)
	c.SetParamNames("id")
	c.SetParamValues("id-1")
	setCaller(c, domain.Caller{ID: "id-1", Role: domain.RoleClient})

	if err := h.ChangePassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthHandler_ChangePassword_RequiresCaller(t *testing.T) {
	h := NewAuthHandler(&stubIdentityService{})

	c, _ := newJSONContext(http.MethodPatch, "/auth/users/id-1", `{"current_password":"old-pass1","new_password":"new-pass1"}`)
	c.SetParamNames("id")
	c.SetParamValues("id-1")

	err := h.ChangePassword(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestAuthHandler_ChangePassword_ShortNewPasswordRejected(t *testing.T) {
	h := NewAuthHandler(&stubIdentityService{})

	c, _ := newJSONContext(http.MethodPatch, "/auth/users/id-1", `{"current_password":"old-pass1","new_password":"short"}`)
	c.SetParamNames("id")
	c.SetParamValues("id-1")
	setCaller(c, domain.Caller{ID: "id-1", Role: domain.RoleClient})

	err := h.ChangePassword(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}
