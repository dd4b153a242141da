package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/bus-tracking/internal/api/http/handlers"
	"github.com/spec-kit/bus-tracking/internal/auth"
	"github.com/spec-kit/bus-tracking/internal/domain"
	"github.com/spec-kit/bus-tracking/internal/observability"
	apperrors "github.com/spec-kit/bus-tracking/pkg/util"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	AuthMiddleware *auth.AuthMiddleware
	// CredentialLimit guards register and login; nil disables limiting.
	CredentialLimit fiber.Handler
	Metrics         *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	api := app.Group("/api")
	api.Get("/health", cfg.Health.Live)
	api.Get("/health/ready", cfg.Health.Ready)

	limited := func(h fiber.Handler) []fiber.Handler {
		if cfg.CredentialLimit == nil {
			return []fiber.Handler{h}
		}
		return []fiber.Handler{cfg.CredentialLimit, h}
	}

	authGroup := api.Group("/auth")
	authGroup.Post("/register", limited(cfg.Auth.Register)...)
	authGroup.Post("/login", limited(cfg.Auth.Login)...)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)

	// Guards sit on the routes so unknown paths under a role prefix still 404.
	api.Get("/student/home", cfg.AuthMiddleware.Handle, auth.RequireRoles(domain.RoleStudent), cfg.Auth.RoleHome(domain.RoleStudent))
	api.Get("/driver/home", cfg.AuthMiddleware.Handle, auth.RequireRoles(domain.RoleDriver), cfg.Auth.RoleHome(domain.RoleDriver))

	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	app.Use(func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("Route")
	})
}
