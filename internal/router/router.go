package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/smart-student-hub/internal/config"
	"github.com/noah-isme/smart-student-hub/internal/handler"
	"github.com/noah-isme/smart-student-hub/internal/middleware"
	"github.com/noah-isme/smart-student-hub/internal/models"
	"github.com/noah-isme/smart-student-hub/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ActivityHandler *handler.ActivityHandler
	StudentHandler  *handler.StudentHandler
	FacultyHandler  *handler.FacultyHandler
	UploadHandler   *handler.UploadHandler
	HealthProbes    []handler.HealthProbe
	JWTMiddleware   fiber.Handler
	DisableMetrics  bool
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes...))

	if !deps.DisableMetrics {
		app.Get("/metrics", observability.MetricsHandler())
	}

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	requireUser := middleware.WithAuth(func(c *fiber.Ctx) error { return c.Next() }, middleware.AuthOptions{RequireUser: true})
	mutationLimit := middleware.RateLimit("activities", cfg.RateLimitMax, cfg.RateLimitWindow)

	if deps.ActivityHandler != nil {
		activities := app.Group("/api/v1/activities", jwtMiddleware, requireUser)
		deps.ActivityHandler.Register(activities, mutationLimit)
	}

	if deps.StudentHandler != nil {
		student := app.Group("/api/v1/student", jwtMiddleware, requireUser)
		deps.StudentHandler.Register(student, middleware.RequireRole(models.RoleStudent))
	}

	if deps.FacultyHandler != nil {
		faculty := app.Group(middleware.FacultyPathPrefix,
			jwtMiddleware,
			middleware.RequireRole(models.RoleFaculty, models.RoleAdmin),
			middleware.RateLimit("reviews", cfg.RateLimitMax, cfg.RateLimitWindow),
		)
		deps.FacultyHandler.Register(faculty)
	}

	if deps.UploadHandler != nil {
		uploads := app.Group("/api/v1/uploads", jwtMiddleware, requireUser)
		deps.UploadHandler.Register(uploads, middleware.RateLimit("uploads", cfg.RateLimitMax, cfg.RateLimitWindow))
	}
}
