package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/occ-console-api/internal/config"
	"github.com/noah-isme/occ-console-api/internal/handler"
	"github.com/noah-isme/occ-console-api/internal/middleware"
	"github.com/noah-isme/occ-console-api/internal/models"
	"github.com/noah-isme/occ-console-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler            *handler.AuthHandler
	ActivityHandler        *handler.ActivityHandler
	AdminActivityHandler   *handler.AdminActivityHandler
	AdminUserHandler       *handler.AdminUserHandler
	AdminCompletionHandler *handler.AdminCompletionHandler
	ChecklistHandler       *handler.ChecklistHandler
	IdeaHandler            *handler.IdeaHandler
	UploadHandler          *handler.UploadHandler
	AssistantHandler       *handler.AssistantHandler
	DistanceHandler        *handler.DistanceHandler
	SessionMiddleware      fiber.Handler
	HealthProbes           map[string]handler.Probe
	// StaticDir serves locally stored files under StaticPrefix when set.
	StaticDir    string
	StaticPrefix string
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	if deps.StaticDir != "" && deps.StaticPrefix != "" {
		app.Static(deps.StaticPrefix, deps.StaticDir, fiber.Static{Browse: false, MaxAge: 3600})
	}

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	// Use provided session middleware, or reject everything if nil
	sessionAuth := deps.SessionMiddleware
	if sessionAuth == nil {
		sessionAuth = func(c *fiber.Ctx) error { return fiber.ErrUnauthorized }
	}

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth"), sessionAuth, middleware.SignInRateLimit(10, time.Minute))
	}

	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(api.Group("/activity", sessionAuth))
	}

	if deps.ChecklistHandler != nil {
		deps.ChecklistHandler.Register(api.Group("/checklists", sessionAuth))
	}

	if deps.IdeaHandler != nil {
		deps.IdeaHandler.Register(api.Group("/ideas", sessionAuth))
	}

	if deps.UploadHandler != nil {
		deps.UploadHandler.Register(api.Group("/files", sessionAuth))
	}

	if deps.AssistantHandler != nil {
		deps.AssistantHandler.Register(api.Group("/assistant", sessionAuth, middleware.RateLimit("assistant", 20, time.Minute)))
	}

	if deps.DistanceHandler != nil {
		deps.DistanceHandler.Register(api.Group("/distance", sessionAuth))
	}

	// Admin console
	admin := api.Group("/admin", sessionAuth, middleware.RequireRole(models.RoleAdmin))
	if deps.AdminActivityHandler != nil {
		deps.AdminActivityHandler.Register(admin.Group("/activity"))
	}
	if deps.AdminUserHandler != nil {
		deps.AdminUserHandler.Register(admin.Group("/users"))
	}
	if deps.AdminCompletionHandler != nil {
		deps.AdminCompletionHandler.Register(admin.Group("/completions"))
	}
	if deps.ChecklistHandler != nil {
		deps.ChecklistHandler.RegisterAdmin(admin.Group("/checklists"))
	}
}
