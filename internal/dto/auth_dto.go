package dto

import (
	"time"

	"github.com/noah-isme/occ-console-api/internal/models"
)

// SignInRequest carries credentials.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse describes the caller's session.
type SessionResponse struct {
	ID          string        `json:"id"`
	State       string        `json:"state"`
	Confirmed   bool          `json:"confirmed"`
	User        *UserResponse `json:"user,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	ConfirmedAt *time.Time    `json:"confirmed_at,omitempty"`
}

// SignInResponse returns the bearer token and the optimistic session.
type SignInResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Session   SessionResponse `json:"session"`
}

// SessionEventMessage is pushed on the session websocket.
type SessionEventMessage struct {
	State     string      `json:"state"`
	Role      models.Role `json:"role,omitempty"`
	Confirmed bool        `json:"confirmed"`
}

// PageVisitRequest records a page view.
type PageVisitRequest struct {
	Page string `json:"page" validate:"required,max=255"`
}

// ActivityActionRequest records a free-form action.
type ActivityActionRequest struct {
	Action  string `json:"action" validate:"required,max=64"`
	Page    string `json:"page" validate:"omitempty,max=255"`
	Details string `json:"details" validate:"omitempty,max=4000"`
}
