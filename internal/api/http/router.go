package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/user-account-service/internal/api/http/handlers"
	"github.com/spec-kit/user-account-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health     *handlers.HealthHandler
	Users      *handlers.UsersHandler
	Auth       *handlers.AuthHandler
	Authorizer *auth.RequestAuthorizer
}

// RegisterRoutes wires HTTP routes. The authorizer resolves a principal when
// credentials are present but never rejects by itself; each handler decides
// what an absent principal means.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api/1.0", cfg.Authorizer.Handle)

	api.Post("/users", cfg.Users.Register)
	api.Post("/users/token/:token", cfg.Users.Activate)
	api.Get("/users", cfg.Users.List)
	api.Get("/users/:id", cfg.Users.Get)
	api.Put("/users/:id", cfg.Users.Update)
	api.Delete("/users/:id", cfg.Users.Delete)

	api.Post("/auth", cfg.Auth.Login)
	api.Post("/logout", cfg.Auth.Logout)
}
