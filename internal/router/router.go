package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/skillforge-go-api/internal/config"
	"github.com/noah-isme/skillforge-go-api/internal/handler"
	"github.com/noah-isme/skillforge-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ExamHandler   *handler.ExamHandler
	ResultHandler *handler.ResultHandler
	JWTMiddleware fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.ExamHandler != nil {
		exams := api.Group("/exams", jwtMiddleware)
		deps.ExamHandler.Register(exams)
	}

	if deps.ResultHandler != nil {
		results := api.Group("/results", jwtMiddleware)
		deps.ResultHandler.Register(results)
	}
}
