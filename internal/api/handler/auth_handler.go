package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/plataforma-media/user-accounts-api/internal/core/ports"
)

// AuthHandler exposes login and password change.
type AuthHandler struct {
	identities ports.IdentityService
}

func NewAuthHandler(identities ports.IdentityService) *AuthHandler {
	return &AuthHandler{identities: identities}
}

// Login authenticates a user and returns a signed token. Unknown email,
// inactive account, and wrong password all produce the same 401 body.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginEnvelope
// @Failure      401   {object}  map[string]any
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	identity, token, err := h.identities.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, loginEnvelope{
		Success: true,
		Message: "login successful",
		User:    toUserResponse(identity),
		Token:   token,
	})
}

// ChangePassword rotates the caller's password in both stores. Self or
// Administrator.
//
// @Summary      Change a user's password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        id    path      string                 true  "User id"
// @Param        body  body      changePasswordRequest  true  "Current and new password"
// @Success      200   {object}  map[string]any
// @Failure      400   {object}  map[string]any
// @Failure      403   {object}  map[string]any
// @Failure      404   {object}  map[string]any
// @Router       /auth/users/{id} [patch]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.identities.ChangePassword(c.Request().Context(), ports.ChangePasswordInput{
		ID:              c.Param("id"),
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		Caller:          caller,
	}); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "password updated successfully",
	})
}
