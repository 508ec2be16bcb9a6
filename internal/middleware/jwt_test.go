package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/occ-console-api/internal/auth"
	"github.com/noah-isme/occ-console-api/internal/middleware"
	"github.com/noah-isme/occ-console-api/internal/models"
)

func newSessionApp(f *sessionFixture) *fiber.App {
	app := fiber.New()
	app.Get("/me", middleware.SessionAuth(f.manager, f.tokens), func(c *fiber.Ctx) error {
		session, ok := middleware.CurrentSession(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.JSON(fiber.Map{
			"session_id": c.Locals("session_id"),
			"user_id":    c.Locals("user_id"),
			"user_role":  c.Locals("user_role"),
			"state":      string(session.State()),
		})
	})
	return app
}

func TestSessionAuthRejectsMissingHeader(t *testing.T) {
	app := newSessionApp(newSessionFixture(t))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "authorization header missing", decodeEnvelope(t, resp).Message)
}

func TestSessionAuthRejectsInvalidToken(t *testing.T) {
	app := newSessionApp(newSessionFixture(t))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "invalid token", decodeEnvelope(t, resp).Message)
}

func TestSessionAuthRejectsEndedSession(t *testing.T) {
	fixture := newSessionFixture(t)
	app := newSessionApp(fixture)
	token := fixture.confirmed(t, "gm@occ.dk", models.RoleGamemaster)

	require.NoError(t, fixture.manager.SignOut(context.Background(), "sess-gm@occ.dk"))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "session expired, please sign in again", decodeEnvelope(t, resp).Message)
}

func TestSessionAuthPopulatesLocals(t *testing.T) {
	fixture := newSessionFixture(t)
	app := newSessionApp(fixture)
	token := fixture.confirmed(t, "gm@occ.dk", models.RoleGamemaster)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload map[string]string
	decodeJSON(t, resp, &payload)
	require.Equal(t, "sess-gm@occ.dk", payload["session_id"])
	require.Equal(t, "gm@occ.dk", payload["user_id"])
	require.Equal(t, "GAMEMASTER", payload["user_role"])
	require.Equal(t, string(auth.StateConfirmed), payload["state"])
}

func TestSessionAuthQueryTokenRequiresUpgrade(t *testing.T) {
	fixture := newSessionFixture(t)
	app := newSessionApp(fixture)
	token := fixture.confirmed(t, "gm@occ.dk", models.RoleGamemaster)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me?token="+token, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/me?token="+token, nil)
	req.Header.Set("Upgrade", "websocket")
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
