package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Rithvik985/situated-learning-api/internal/config"
	"github.com/Rithvik985/situated-learning-api/internal/handler"
	"github.com/Rithvik985/situated-learning-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	GenerationHandler *handler.GenerationHandler
	RubricHandler     *handler.RubricHandler
	EvaluationHandler *handler.EvaluationHandler
	WorkflowHandler   *handler.WorkflowHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Assignment generation
	if deps.GenerationHandler != nil {
		generation := app.Group("/api/v1/generation", jwtMiddleware)
		deps.GenerationHandler.Register(generation)

		if deps.RubricHandler != nil {
			rubricGroup := generation.Group("/rubric")
			deps.RubricHandler.Register(rubricGroup)
		}
	}

	// Submission intake, evaluation and review
	if deps.EvaluationHandler != nil {
		evaluation := app.Group("/api/v1/evaluation", jwtMiddleware)
		deps.EvaluationHandler.Register(evaluation)
	}

	// Workflow sessions
	if deps.WorkflowHandler != nil {
		workflow := app.Group("/api/v1/workflow", jwtMiddleware)
		deps.WorkflowHandler.Register(workflow)
	}
}
