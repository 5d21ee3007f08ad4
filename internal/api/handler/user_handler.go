package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/plataforma-media/user-accounts-api/internal/core/domain"
	"github.com/plataforma-media/user-accounts-api/internal/core/ports"
)

// UserHandler exposes the identity CRUD surface. Every mutation goes through
// the dual-store coordinator; errors propagate to the central error handler.
type UserHandler struct {
	identities ports.IdentityService
}

func NewUserHandler(identities ports.IdentityService) *UserHandler {
	return &UserHandler{identities: identities}
}

// Create registers a new user in both stores.
//
// @Summary      Create a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "User registration details"
// @Success      201   {object}  userEnvelope
// @Failure      400   {object}  map[string]any
// @Failure      403   {object}  map[string]any
// @Failure      409   {object}  map[string]any
// @Router       /users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	identity, err := h.identities.Create(c.Request().Context(), ports.CreateIdentityInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Role:            req.Role,
		Caller:          optionalCallerFromContext(c),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, userEnvelope{
		Success: true,
		Message: "user created successfully",
		User:    toUserResponse(identity),
	})
}

// Get returns a single user. Self or Administrator.
//
// @Summary      Get a user by id
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  userEnvelope
// @Failure      403  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}

	identity, err := h.identities.Get(c.Request().Context(), c.Param("id"), caller)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, userEnvelope{Success: true, User: toUserResponse(identity)})
}

// List returns the user directory. Administrator only.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Param        email  query     string  false  "Partial email filter"
// @Param        query  query     string  false  "Free-text search over names and email"
// @Success      200    {object}  userListEnvelope
// @Failure      403    {object}  map[string]any
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}

	identities, err := h.identities.List(c.Request().Context(), ports.ListIdentitiesInput{
		Email:  c.QueryParam("email"),
		Query:  c.QueryParam("query"),
		Caller: caller,
	})
	if err != nil {
		return err
	}

	users := make([]*userResponse, 0, len(identities))
	for _, identity := range identities {
		users = append(users, toUserResponse(identity))
	}

	return c.JSON(http.StatusOK, userListEnvelope{Success: true, Count: len(users), Users: users})
}

// Update changes name and email fields. Self or Administrator. Password
// fields are rejected; password changes have their own endpoint.
//
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "User id"
// @Param        body  body      updateUserRequest  true  "Fields to update"
// @Success      200   {object}  userEnvelope
// @Failure      400   {object}  map[string]any
// @Failure      404   {object}  map[string]any
// @Failure      409   {object}  map[string]any
// @Router       /users/{id} [patch]
func (h *UserHandler) Update(c echo.Context) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	identity, err := h.identities.UpdateProfile(c.Request().Context(), ports.UpdateProfileInput{
		ID:              c.Param("id"),
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		PasswordPresent: req.Password != "",
		Caller:          caller,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, userEnvelope{
		Success: true,
		Message: "user updated successfully",
		User:    toUserResponse(identity),
	})
}

// Delete soft-deletes a user in both stores. Administrator only.
//
// @Summary      Delete a user
// @Tags         users
// @Param        id   path  string  true  "User id"
// @Success      204
// @Failure      400  {object}  map[string]any
// @Failure      403  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}

	if err := h.identities.Delete(c.Request().Context(), c.Param("id"), caller); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func toUserResponse(identity *domain.Identity) *userResponse {
	return &userResponse{
		ID:        identity.ID,
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
		Email:     identity.Email,
		Role:      identity.Role,
		LastLogin: identity.LastLogin,
		CreatedAt: identity.CreatedAt,
		UpdatedAt: identity.UpdatedAt,
	}
}
