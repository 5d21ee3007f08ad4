package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/plataforma-media/user-accounts-api/internal/api/handler"
	"github.com/plataforma-media/user-accounts-api/internal/api/middleware"
	"github.com/plataforma-media/user-accounts-api/internal/core/domain"
	"github.com/plataforma-media/user-accounts-api/internal/core/ports"
	"github.com/plataforma-media/user-accounts-api/internal/infrastructure/http/handlers"
)

// Deps carries the components the router wires into routes. Health is
// optional; when nil only the liveness probe is registered.
type Deps struct {
	Identities ports.IdentityService
	Tokens     ports.TokenIssuer
	Revoker    ports.SessionRevoker
	Health     *handlers.HealthDependenciesHandler
	Logger     zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("accounts"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Identities)
	userHandler := handler.NewUserHandler(deps.Identities)

	requireAuth := middleware.Auth(deps.Tokens, deps.Revoker)
	optionalAuth := middleware.OptionalAuth(deps.Tokens, deps.Revoker)
	adminOnly := middleware.RBAC(domain.RoleAdministrator)

	// --- Auth routes ---
	e.POST("/auth/login", authHandler.Login)
	e.PATCH("/auth/users/:id", authHandler.ChangePassword, requireAuth)

	// --- User routes ---
	// Registration is open for the Client role; creating an Administrator
	// requires an authenticated Administrator, enforced by the coordinator
	// from the optionally-authenticated caller.
	e.POST("/users", userHandler.Create, optionalAuth)
	e.GET("/users", userHandler.List, requireAuth, adminOnly)
	e.GET("/users/:id", userHandler.Get, requireAuth)
	e.PATCH("/users/:id", userHandler.Update, requireAuth)
	e.DELETE("/users/:id", userHandler.Delete, requireAuth, adminOnly)

	// --- Health probes (no auth required) ---
	e.GET("/health", handlers.NewHealthHandler().Liveness)
	if deps.Health != nil {
		e.GET("/health/ready", deps.Health.Readiness)
	}

	// --- Metrics ---
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
