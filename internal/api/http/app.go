package http

import (
	"github.com/gofiber/fiber/v2"
)

// NewApp assembles the fiber application with global middleware and routes.
func NewApp(appName string, mw MiddlewareConfig, routes RouteConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler(mw.Logger),
	})
	RegisterMiddlewares(app, mw)
	RegisterRoutes(app, routes)
	return app
}
