package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/occ-console-api/internal/auth"
	"github.com/noah-isme/occ-console-api/internal/dto"
	"github.com/noah-isme/occ-console-api/internal/middleware"
	"github.com/noah-isme/occ-console-api/internal/utils"
)

const sessionWriteTimeout = 5 * time.Second

// SessionManager is the session lifecycle used by the auth endpoints.
type SessionManager interface {
	SignIn(ctx context.Context, email, password string) (*auth.Session, error)
	SignOut(ctx context.Context, sessionID string) error
	Confirm(ctx context.Context, sessionID string) error
	Session(id string) (*auth.Session, bool)
	Watch(sessionID string) (<-chan auth.SessionSnapshot, func())
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(session *auth.Session) (string, time.Time, error)
}

// AuthHandler serves sign-in, sign-out and the session change stream.
type AuthHandler struct {
	sessions SessionManager
	tokens   TokenIssuer
	logger   zerolog.Logger
}

// NewAuthHandler constructs the auth handler.
func NewAuthHandler(sessions SessionManager, tokens TokenIssuer, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		tokens:   tokens,
		logger:   logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register wires auth routes. sessionAuth guards everything but sign-in.
func (h *AuthHandler) Register(router fiber.Router, sessionAuth fiber.Handler, signInLimiter fiber.Handler) {
	if signInLimiter != nil {
		router.Post("/sign-in", signInLimiter, h.signIn)
	} else {
		router.Post("/sign-in", h.signIn)
	}
	router.Post("/sign-out", sessionAuth, h.signOut)
	router.Get("/session", sessionAuth, h.session)
	router.Post("/session/confirm", sessionAuth, h.confirm)

	router.Use("/events", sessionAuth, func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/events", websocket.New(h.events))
}

func (h *AuthHandler) signIn(c *fiber.Ctx) error {
	var payload dto.SignInRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	session, err := h.sessions.SignIn(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		var signInErr *auth.SignInError
		switch {
		case errors.Is(err, auth.ErrMissingCredentials):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, auth.ErrInvalidCredentials):
			return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
		case errors.As(err, &signInErr):
			requestLogger(h.logger, c).Error().Err(signInErr.Err).Msg("sign-in failed")
			return utils.SendError(c, fiber.StatusBadGateway, signInErr.Reason)
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("sign-in failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "sign-in failed, please try again")
		}
	}

	token, expiresAt, err := h.tokens.Issue(session)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to issue session token")
		_ = h.sessions.SignOut(c.UserContext(), session.ID())
		return utils.SendError(c, fiber.StatusInternalServerError, "sign-in failed, please try again")
	}

	return utils.SendSuccess(c, "signed in", dto.SignInResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Session:   newSessionResponse(session.Snapshot()),
	})
}

func (h *AuthHandler) signOut(c *fiber.Ctx) error {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	if err := h.sessions.SignOut(c.UserContext(), session.ID()); err != nil && !errors.Is(err, auth.ErrSessionNotFound) {
		requestLogger(h.logger, c).Error().Err(err).Msg("sign-out failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "sign-out failed")
	}
	return utils.SendSuccess(c, "signed out", nil)
}

func (h *AuthHandler) session(c *fiber.Ctx) error {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}
	return utils.SendSuccess(c, "session", newSessionResponse(session.Snapshot()))
}

func (h *AuthHandler) confirm(c *fiber.Ctx) error {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	if err := h.sessions.Confirm(c.UserContext(), session.ID()); err != nil {
		switch {
		case errors.Is(err, auth.ErrSessionNotFound):
			return utils.SendError(c, fiber.StatusUnauthorized, "session expired, please sign in again")
		case errors.Is(err, auth.ErrProfileNotFound):
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		default:
			requestLogger(h.logger, c).Warn().Err(err).Msg("session confirmation failed")
			return utils.SendError(c, fiber.StatusBadGateway, "could not confirm session, please try again")
		}
	}
	return utils.SendSuccess(c, "session confirmed", newSessionResponse(session.Snapshot()))
}

func (h *AuthHandler) events(conn *websocket.Conn) {
	sessionID, _ := conn.Locals("session_id").(string)
	session, ok := h.sessions.Session(sessionID)
	if !ok {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "session not found"))
		_ = conn.Close()
		return
	}

	updates, cancel := h.sessions.Watch(sessionID)
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.writeSnapshot(conn, session.Snapshot()); err != nil {
		return
	}

	h.logger.Debug().Str("session_id", sessionID).Msg("session stream connected")
	for {
		select {
		case <-closed:
			return
		case snapshot, ok := <-updates:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
				return
			}
			if err := h.writeSnapshot(conn, snapshot); err != nil {
				h.logger.Debug().Err(err).Str("session_id", sessionID).Msg("session stream write failed")
				return
			}
			if snapshot.State == auth.StateUnauthenticated {
				return
			}
		}
	}
}

func (h *AuthHandler) writeSnapshot(conn *websocket.Conn, snapshot auth.SessionSnapshot) error {
	message := dto.SessionEventMessage{
		State:     string(snapshot.State),
		Confirmed: snapshot.Confirmed,
	}
	if snapshot.Profile != nil {
		message.Role = snapshot.Profile.Role
	}
	_ = conn.SetWriteDeadline(time.Now().Add(sessionWriteTimeout))
	return conn.WriteJSON(message)
}

func newSessionResponse(snapshot auth.SessionSnapshot) dto.SessionResponse {
	response := dto.SessionResponse{
		ID:          snapshot.ID,
		State:       string(snapshot.State),
		Confirmed:   snapshot.Confirmed,
		CreatedAt:   snapshot.CreatedAt,
		ConfirmedAt: snapshot.ConfirmedAt,
	}
	if snapshot.Profile != nil {
		user := dto.NewUserResponse(*snapshot.Profile)
		response.User = &user
	}
	return response
}
