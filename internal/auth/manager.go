package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/occ-console-api/internal/models"
	"github.com/noah-isme/occ-console-api/internal/observability"
	"github.com/noah-isme/occ-console-api/internal/repository"
	"github.com/noah-isme/occ-console-api/pkg/clock"
)

const watcherBuffer = 8

// ManagerConfig configures the session manager.
type ManagerConfig struct {
	// OptimisticRole is granted between credential acceptance and profile
	// confirmation.
	OptimisticRole models.Role
	ConfirmTimeout time.Duration
	Clock          clock.Clock
	Logger         zerolog.Logger
}

// Manager owns every live session. It is constructed once and passed to the
// components that need session state.
type Manager struct {
	identity       IdentityProvider
	profiles       ProfileStore
	audit          ActivityLogger
	clock          clock.Clock
	logger         zerolog.Logger
	optimisticRole models.Role
	confirmTimeout time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
	watchers map[string]map[chan SessionSnapshot]struct{}

	wg          sync.WaitGroup
	startOnce   sync.Once
	unsubscribe func()
	cancel      context.CancelFunc
}

// NewManager constructs a session manager.
func NewManager(identity IdentityProvider, profiles ProfileStore, audit ActivityLogger, cfg ManagerConfig) *Manager {
	if !cfg.OptimisticRole.Valid() {
		cfg.OptimisticRole = models.RoleInstructor
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = 10 * time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}

	return &Manager{
		identity:       identity,
		profiles:       profiles,
		audit:          audit,
		clock:          cfg.Clock,
		logger:         cfg.Logger.With().Str("component", "session_manager").Logger(),
		optimisticRole: cfg.OptimisticRole,
		confirmTimeout: cfg.ConfirmTimeout,
		sessions:       make(map[string]*Session),
		watchers:       make(map[string]map[chan SessionSnapshot]struct{}),
	}
}

// Start subscribes to the identity provider's session-change stream.
func (m *Manager) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		ctx, m.cancel = context.WithCancel(ctx)
		events, unsubscribe := m.identity.Subscribe()
		m.unsubscribe = unsubscribe

		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case event, ok := <-events:
					if !ok {
						return
					}
					m.handleEvent(ctx, event)
				}
			}
		}()
	})
}

// Close stops the event subscription and waits for background confirmations.
func (m *Manager) Close() {
	if m.cancel != nil {
		m.cancel()
	}
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.wg.Wait()
}

// SignIn verifies credentials and returns an optimistically authenticated
// session. The authoritative profile is fetched in the background.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, &SignInError{Reason: ErrMissingCredentials.Error(), Err: ErrMissingCredentials}
	}

	session := newSession(m.clock.Now())
	if err := session.transition(StateAuthenticating, nil, m.clock.Now()); err != nil {
		return nil, err
	}

	identity, err := m.identity.SignInWithPassword(ctx, email, password)
	if err != nil {
		_ = session.transition(StateUnauthenticated, nil, m.clock.Now())
		if errors.Is(err, ErrInvalidCredentials) {
			return nil, &SignInError{Reason: ErrInvalidCredentials.Error(), Err: err}
		}
		m.logger.Error().Err(err).Msg("identity provider rejected sign-in")
		return nil, &SignInError{Reason: "sign-in failed, please try again", Err: err}
	}

	assumed := &models.UserProfile{
		ID:        identity.UserID,
		Email:     identity.Email,
		Role:      m.optimisticRole,
		CreatedAt: m.clock.Now(),
	}
	session.assignID(identity.SessionID)
	if err := session.transition(StateOptimistic, assumed, m.clock.Now()); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[identity.SessionID] = session
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		confirmCtx, cancel := context.WithTimeout(context.Background(), m.confirmTimeout)
		defer cancel()
		if err := m.Confirm(confirmCtx, identity.SessionID); err != nil {
			m.logger.Warn().Err(err).Str("session_id", identity.SessionID).Msg("session remains unconfirmed")
			observability.SessionEvents().WithLabelValues("CONFIRM_FAILED").Inc()
		}
	}()

	return session, nil
}

// Confirm fetches the authoritative profile and moves the session to
// StateConfirmed, correcting the role when it differs from the assumed one.
// A confirmed session has its profile refreshed.
func (m *Manager) Confirm(ctx context.Context, sessionID string) error {
	session, ok := m.Session(sessionID)
	if !ok {
		return ErrSessionNotFound
	}

	current := session.Profile()
	if current == nil {
		return ErrSessionNotFound
	}

	profile, err := m.profiles.GetUser(ctx, current.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("fetch profile: %w", err)
	}
	if profile == nil {
		return ErrProfileNotFound
	}

	if err := session.confirm(profile, m.clock.Now()); err != nil {
		return err
	}

	if current.Role != profile.Role {
		m.logger.Info().
			Str("session_id", sessionID).
			Str("assumed_role", string(current.Role)).
			Str("role", string(profile.Role)).
			Msg("session role corrected")
	}

	m.notify(session)
	return nil
}

// SignOut records the logout, ends the session with the identity provider and
// clears it locally even when either of those steps fails.
func (m *Manager) SignOut(ctx context.Context, sessionID string) error {
	session, ok := m.Session(sessionID)
	if !ok {
		return ErrSessionNotFound
	}

	if profile := session.Profile(); profile != nil && m.audit != nil {
		m.audit.LogActivity(ctx, profile.ID, profile.Email, models.ActionLogout, "", "User logged out")
	}

	if err := m.identity.SignOut(ctx, sessionID); err != nil {
		m.logger.Warn().Err(err).Str("session_id", sessionID).Msg("identity provider sign-out failed")
	}

	m.end(sessionID)
	return nil
}

// EndUserSessions ends every live session of the user with the identity
// provider and locally. It returns how many sessions were ended.
func (m *Manager) EndUserSessions(ctx context.Context, userID string) int {
	sessions := m.sessionsOf(userID)
	for _, session := range sessions {
		m.revoke(ctx, session.ID())
	}
	if len(sessions) > 0 {
		m.logger.Info().Str("user_id", userID).Int("sessions", len(sessions)).Msg("ended user sessions")
	}
	return len(sessions)
}

// RefreshUser re-confirms every live session of the user so a role change
// applies immediately. A session whose profile can no longer be read is
// ended rather than left at its previous role.
func (m *Manager) RefreshUser(ctx context.Context, userID string) error {
	var errs error
	for _, session := range m.sessionsOf(userID) {
		id := session.ID()
		err := m.Confirm(ctx, id)
		switch {
		case err == nil, errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrInvalidTransition):
		case errors.Is(err, ErrProfileNotFound):
			m.revoke(ctx, id)
		default:
			m.revoke(ctx, id)
			errs = errors.Join(errs, fmt.Errorf("refresh session %s: %w", id, err))
		}
	}
	return errs
}

func (m *Manager) sessionsOf(userID string) []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Session
	for _, session := range m.sessions {
		if profile := session.Profile(); profile != nil && profile.ID == userID {
			out = append(out, session)
		}
	}
	return out
}

func (m *Manager) revoke(ctx context.Context, sessionID string) {
	m.end(sessionID)
	if err := m.identity.SignOut(ctx, sessionID); err != nil {
		m.logger.Warn().Err(err).Str("session_id", sessionID).Msg("identity provider sign-out failed")
	}
}

// Session returns a live session by id.
func (m *Manager) Session(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	return session, ok
}

// Watch streams snapshots of a session whenever it changes. The channel is
// closed when the session ends or the returned cancel function is called.
func (m *Manager) Watch(sessionID string) (<-chan SessionSnapshot, func()) {
	ch := make(chan SessionSnapshot, watcherBuffer)

	m.mu.Lock()
	if _, ok := m.sessions[sessionID]; !ok {
		m.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	if m.watchers[sessionID] == nil {
		m.watchers[sessionID] = make(map[chan SessionSnapshot]struct{})
	}
	m.watchers[sessionID][ch] = struct{}{}
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if set, ok := m.watchers[sessionID]; ok {
				if _, ok := set[ch]; ok {
					delete(set, ch)
					close(ch)
				}
			}
		})
	}
}

func (m *Manager) handleEvent(ctx context.Context, event SessionEvent) {
	observability.SessionEvents().WithLabelValues(string(event.Type)).Inc()

	switch event.Type {
	case EventSignedIn:
		if m.audit != nil {
			m.audit.LogActivity(ctx, event.UserID, event.Email, models.ActionLogin, "", "User logged in")
		}
		if err := m.profiles.UpdateLastLogin(ctx, event.UserID, event.At); err != nil {
			m.logger.Warn().Err(err).Str("user_id", event.UserID).Msg("failed to update last login")
		}
	case EventSignedOut, EventExpired:
		m.end(event.SessionID)
	default:
		m.logger.Debug().Str("event", string(event.Type)).Msg("ignoring session event")
	}
}

func (m *Manager) end(sessionID string) {
	m.mu.Lock()
	session, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.sessions, sessionID)
	watchers := m.watchers[sessionID]
	delete(m.watchers, sessionID)
	m.mu.Unlock()

	_ = session.transition(StateUnauthenticated, nil, m.clock.Now())

	snapshot := session.Snapshot()
	for ch := range watchers {
		select {
		case ch <- snapshot:
		default:
		}
		close(ch)
	}
}

func (m *Manager) notify(session *Session) {
	snapshot := session.Snapshot()

	m.mu.RLock()
	defer m.mu.RUnlock()
	for ch := range m.watchers[snapshot.ID] {
		select {
		case ch <- snapshot:
		default:
			m.logger.Debug().Str("session_id", snapshot.ID).Msg("dropping session update for slow watcher")
		}
	}
}
