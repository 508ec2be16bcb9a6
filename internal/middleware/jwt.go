package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/occ-console-api/internal/auth"
	"github.com/noah-isme/occ-console-api/internal/utils"
)

const (
	localSession   = "session"
	localSessionID = "session_id"
	localUserID    = "user_id"
	localUserEmail = "user_email"
	localUserRole  = "user_role"
)

// SessionResolver looks up live sessions.
type SessionResolver interface {
	Session(id string) (*auth.Session, bool)
}

// TokenParser verifies bearer tokens.
type TokenParser interface {
	Parse(token string) (*auth.SessionClaims, error)
}

// SessionAuth resolves the bearer token to a live session. Browsers cannot set
// headers on websocket upgrades, so a token query parameter is accepted there.
func SessionAuth(sessions SessionResolver, tokens TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		session, found := sessions.Session(claims.SessionID)
		if !found || !session.Authenticated() {
			return utils.SendError(c, fiber.StatusUnauthorized, "session expired, please sign in again")
		}

		profile := session.Profile()
		if profile == nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "session expired, please sign in again")
		}
		c.Locals(localSession, session)
		c.Locals(localSessionID, session.ID())
		c.Locals(localUserID, profile.ID)
		c.Locals(localUserEmail, profile.Email)
		c.Locals(localUserRole, string(profile.Role))

		return c.Next()
	}
}

// CurrentSession returns the session resolved by SessionAuth.
func CurrentSession(c *fiber.Ctx) (*auth.Session, bool) {
	session, ok := c.Locals(localSession).(*auth.Session)
	return session, ok && session != nil
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	authorization := c.Get("Authorization")
	if authorization != "" {
		const bearer = "Bearer "
		if !strings.HasPrefix(strings.ToLower(authorization), strings.ToLower(bearer)) {
			return "", false
		}
		token := strings.TrimSpace(authorization[len(bearer):])
		return token, token != ""
	}

	if token := strings.TrimSpace(c.Query("token")); token != "" && c.Get("Upgrade") != "" {
		return token, true
	}
	return "", false
}
