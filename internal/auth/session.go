package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/noah-isme/occ-console-api/internal/models"
)

// State is a step in the session lifecycle.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticating  State = "authenticating"
	StateOptimistic      State = "optimistically_authenticated"
	StateConfirmed       State = "confirmed"
)

// ErrInvalidTransition is returned for a lifecycle step the state machine does not allow.
var ErrInvalidTransition = errors.New("invalid session transition")

var transitions = map[State]map[State]struct{}{
	StateUnauthenticated: {StateAuthenticating: {}},
	StateAuthenticating:  {StateOptimistic: {}},
	StateOptimistic:      {StateConfirmed: {}},
}

func canTransition(from, to State) bool {
	if to == StateUnauthenticated {
		return true
	}
	_, ok := transitions[from][to]
	return ok
}

// Session is one sign-in of one user. The profile it carries is provisional
// until the session reaches StateConfirmed.
type Session struct {
	mu          sync.RWMutex
	id          string
	state       State
	profile     *models.UserProfile
	createdAt   time.Time
	confirmedAt *time.Time
}

// SessionSnapshot is an immutable copy of a session.
type SessionSnapshot struct {
	ID          string              `json:"id"`
	State       State               `json:"state"`
	Confirmed   bool                `json:"confirmed"`
	Profile     *models.UserProfile `json:"profile,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	ConfirmedAt *time.Time          `json:"confirmed_at,omitempty"`
}

func newSession(now time.Time) *Session {
	return &Session{state: StateUnauthenticated, createdAt: now}
}

// ID returns the session identifier assigned by the identity provider.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Confirmed reports whether the profile has been verified against the store.
func (s *Session) Confirmed() bool {
	return s.State() == StateConfirmed
}

// Authenticated reports whether the session currently grants access, either
// optimistically or confirmed.
func (s *Session) Authenticated() bool {
	state := s.State()
	return state == StateOptimistic || state == StateConfirmed
}

// Profile returns a copy of the current profile, or nil when signed out.
func (s *Session) Profile() *models.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	clone := *s.profile
	return &clone
}

// HasPermission checks the session's current profile against the hierarchy.
func (s *Session) HasPermission(required ...models.Role) bool {
	if !s.Authenticated() {
		return false
	}
	return HasPermission(s.Profile(), required...)
}

// Snapshot copies the session state.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := SessionSnapshot{
		ID:          s.id,
		State:       s.state,
		Confirmed:   s.state == StateConfirmed,
		CreatedAt:   s.createdAt,
		ConfirmedAt: s.confirmedAt,
	}
	if s.profile != nil {
		clone := *s.profile
		snapshot.Profile = &clone
	}
	return snapshot
}

func (s *Session) transition(to State, profile *models.UserProfile, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !canTransition(s.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, to)
	}

	s.state = to
	switch to {
	case StateUnauthenticated:
		s.profile = nil
		s.confirmedAt = nil
	case StateConfirmed:
		s.profile = profile
		confirmed := now
		s.confirmedAt = &confirmed
	default:
		if profile != nil {
			s.profile = profile
		}
	}
	return nil
}

// confirm installs the authoritative profile. An optimistic session moves to
// StateConfirmed and a confirmed one is refreshed in place; a session that
// has ended stays ended.
func (s *Session) confirm(profile *models.UserProfile, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateOptimistic && s.state != StateConfirmed {
		return fmt.Errorf("%w: cannot confirm %s session", ErrInvalidTransition, s.state)
	}
	s.state = StateConfirmed
	s.profile = profile
	confirmed := now
	s.confirmedAt = &confirmed
	return nil
}

func (s *Session) assignID(id string) {
	s.mu.Lock()
	s.id = id
	s.mu.Unlock()
}
