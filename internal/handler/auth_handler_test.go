package handler_test

import (
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/occ-console-api/internal/auth"
	"github.com/noah-isme/occ-console-api/internal/dto"
	"github.com/noah-isme/occ-console-api/internal/handler"
	"github.com/noah-isme/occ-console-api/internal/models"
)

func newAuthApp(f *authFixture) *fiber.App {
	app := fiber.New()
	handler.NewAuthHandler(f.manager, f.tokens, zerolog.New(io.Discard)).
		Register(app.Group("/auth"), f.sessionAuth, nil)
	return app
}

func TestAuthHandlerSignIn(t *testing.T) {
	fixture := newAuthFixture(t)
	fixture.accounts.add(t, "gm@occ.dk", models.RoleGamemaster, false)
	app := newAuthApp(fixture)

	t.Run("missing credentials", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/auth/sign-in", "", dto.SignInRequest{Email: "gm@occ.dk"})
		require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		require.Equal(t, auth.ErrMissingCredentials.Error(), decodeResponse(t, resp, nil).Message)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/auth/sign-in", "", dto.SignInRequest{Email: "gm@occ.dk", Password: "nope"})
		require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, auth.ErrInvalidCredentials.Error(), decodeResponse(t, resp, nil).Message)
	})

	t.Run("optimistic session", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/auth/sign-in", "", dto.SignInRequest{Email: "GM@occ.dk ", Password: testPassword})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var payload dto.SignInResponse
		decodeResponse(t, resp, &payload)
		require.NotEmpty(t, payload.Token)
		require.NotNil(t, payload.Session.User)
		require.Equal(t, "gm@occ.dk", payload.Session.User.Email)
		if !payload.Session.Confirmed {
			require.Equal(t, string(auth.StateOptimistic), payload.Session.State)
			require.Equal(t, models.RoleInstructor, payload.Session.User.Role)
		}
	})
}

func TestAuthHandlerSessionLifecycle(t *testing.T) {
	fixture := newAuthFixture(t)
	app := newAuthApp(fixture)
	token := fixture.login(t, "admin@occ.dk", models.RoleAdmin)

	resp := doRequest(t, app, http.MethodGet, "/auth/session", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var session dto.SessionResponse
	decodeResponse(t, resp, &session)
	require.True(t, session.Confirmed)
	require.Equal(t, string(auth.StateConfirmed), session.State)
	require.Equal(t, models.RoleAdmin, session.User.Role)
	require.NotNil(t, session.ConfirmedAt)

	resp = doRequest(t, app, http.MethodPost, "/auth/session/confirm", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPost, "/auth/sign-out", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, http.MethodGet, "/auth/session", token, nil)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthHandlerConfirmWithoutProfile(t *testing.T) {
	fixture := newAuthFixture(t)
	app := newAuthApp(fixture)
	token := fixture.loginPending(t, "new@occ.dk", models.RoleGamemaster)

	resp := doRequest(t, app, http.MethodPost, "/auth/session/confirm", token, nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = doRequest(t, app, http.MethodGet, "/auth/session", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var session dto.SessionResponse
	decodeResponse(t, resp, &session)
	require.False(t, session.Confirmed)
	require.Equal(t, models.RoleInstructor, session.User.Role)
}

func TestAuthHandlerEventsRequiresUpgrade(t *testing.T) {
	fixture := newAuthFixture(t)
	app := newAuthApp(fixture)
	token := fixture.login(t, "gm@occ.dk", models.RoleGamemaster)

	resp := doRequest(t, app, http.MethodGet, "/auth/events", token, nil)
	require.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}
