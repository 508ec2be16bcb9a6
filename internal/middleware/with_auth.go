package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/occ-console-api/internal/models"
	"github.com/noah-isme/occ-console-api/internal/utils"
)

// AuthOptions configures the WithAuth helper.
type AuthOptions struct {
	Roles            []models.Role
	RequireConfirmed bool
}

// WithAuth wraps a single handler with role and confirmation guards. The
// session must already be resolved by SessionAuth.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if status, message := authorize(c, opts.Roles, opts.RequireConfirmed); status != 0 {
			return utils.SendError(c, status, message)
		}
		return handler(c)
	}
}
