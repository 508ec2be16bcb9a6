package middleware

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/noah-isme/occ-console-api/internal/utils"
)

// RateLimit limits a route per signed-in user. Requests without a session are
// keyed by IP.
func RateLimit(identifier string, max int, window time.Duration) fiber.Handler {
	return newLimiter(identifier, max, window, func(c *fiber.Ctx) string {
		if key, _ := c.Locals(localUserID).(string); key != "" {
			return key
		}
		return c.IP()
	})
}

// SignInRateLimit limits sign-in attempts per IP and account, so guessing one
// account's password cannot lock out everyone behind the same address.
func SignInRateLimit(max int, window time.Duration) fiber.Handler {
	return newLimiter("sign-in", max, window, func(c *fiber.Ctx) string {
		var payload struct {
			Email string `json:"email"`
		}
		_ = json.Unmarshal(c.Body(), &payload)
		return c.IP() + ":" + strings.ToLower(strings.TrimSpace(payload.Email))
	})
}

func newLimiter(identifier string, max int, window time.Duration, key func(*fiber.Ctx) string) fiber.Handler {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Second
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		LimitReached: func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%d", int(window.Seconds())))
			return utils.SendError(c, fiber.StatusTooManyRequests, "too many requests, slow down")
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return fmt.Sprintf("%s:%s", identifier, key(c))
		},
	})
}
