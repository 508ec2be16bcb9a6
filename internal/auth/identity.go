package auth

import (
	"context"
	"errors"
	"time"

	"github.com/noah-isme/occ-console-api/internal/models"
)

var (
	// ErrInvalidCredentials is returned by identity providers for a bad email/password pair.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrMissingCredentials is a validation failure raised before the provider is called.
	ErrMissingCredentials = errors.New("email and password are required")
	// ErrSessionNotFound is returned for unknown or ended sessions.
	ErrSessionNotFound = errors.New("session not found")
	// ErrProfileNotFound is returned when the authoritative profile does not exist.
	ErrProfileNotFound = errors.New("profile not found")
)

// SignInError is the structured failure of a sign-in attempt.
type SignInError struct {
	Reason string
	Err    error
}

func (e *SignInError) Error() string {
	return e.Reason
}

func (e *SignInError) Unwrap() error {
	return e.Err
}

// Identity is what the identity provider knows after accepting credentials.
type Identity struct {
	SessionID string
	UserID    string
	Email     string
}

// EventType classifies a session change emitted by the identity provider.
type EventType string

const (
	EventSignedIn  EventType = "SIGNED_IN"
	EventSignedOut EventType = "SIGNED_OUT"
	EventExpired   EventType = "EXPIRED"
)

// SessionEvent is one entry of the identity provider's session-change stream.
type SessionEvent struct {
	Type      EventType
	SessionID string
	UserID    string
	Email     string
	At        time.Time
}

// IdentityProvider verifies credentials and owns session validity.
type IdentityProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (Identity, error)
	SignOut(ctx context.Context, sessionID string) error
	Subscribe() (<-chan SessionEvent, func())
}

// ProfileStore is the authoritative source of user profiles.
type ProfileStore interface {
	GetUser(ctx context.Context, id string) (*models.UserProfile, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// ActivityLogger records audit entries without blocking the caller.
type ActivityLogger interface {
	LogActivity(ctx context.Context, userID, email, action, page, details string)
}
