package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/occ-console-api/internal/models"
	"github.com/noah-isme/occ-console-api/internal/utils"
)

// RequireRole ensures the session satisfies at least one of the roles,
// counting the role hierarchy.
func RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if status, message := authorize(c, roles, false); status != 0 {
			return utils.SendError(c, status, message)
		}
		return c.Next()
	}
}

// RequireConfirmed rejects sessions whose role has not yet been confirmed
// against the stored profile.
func RequireConfirmed() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if status, message := authorize(c, nil, true); status != 0 {
			return utils.SendError(c, status, message)
		}
		return c.Next()
	}
}

func authorize(c *fiber.Ctx, roles []models.Role, confirmed bool) (int, string) {
	session, ok := CurrentSession(c)
	if !ok {
		return fiber.StatusUnauthorized, "authentication required"
	}
	if len(roles) > 0 && !session.HasPermission(roles...) {
		return fiber.StatusForbidden, "insufficient permissions"
	}
	if confirmed && !session.Confirmed() {
		return fiber.StatusForbidden, "session not yet confirmed, please retry shortly"
	}
	return 0, ""
}
