package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/occ-console-api/internal/models"
	"github.com/noah-isme/occ-console-api/internal/repository"
	"github.com/noah-isme/occ-console-api/pkg/clock"
)

const eventBuffer = 64

// CredentialStore looks up accounts by email.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*models.UserProfile, error)
}

// LocalIdentityConfig configures the built-in identity provider.
type LocalIdentityConfig struct {
	SessionTTL time.Duration
	Clock      clock.Clock
	Logger     zerolog.Logger
}

type localSession struct {
	userID   string
	email    string
	issuedAt time.Time
}

// LocalIdentity is an IdentityProvider backed by the users table and bcrypt
// password hashes. Sessions expire SessionTTL after sign-in.
type LocalIdentity struct {
	store  CredentialStore
	clock  clock.Clock
	ttl    time.Duration
	logger zerolog.Logger

	mu       sync.Mutex
	sessions map[string]localSession

	subsMu sync.RWMutex
	subs   map[chan SessionEvent]struct{}
}

var _ IdentityProvider = (*LocalIdentity)(nil)

// NewLocalIdentity constructs the provider.
func NewLocalIdentity(store CredentialStore, cfg LocalIdentityConfig) *LocalIdentity {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 12 * time.Hour
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	return &LocalIdentity{
		store:    store,
		clock:    cfg.Clock,
		ttl:      cfg.SessionTTL,
		logger:   cfg.Logger.With().Str("component", "local_identity").Logger(),
		sessions: make(map[string]localSession),
		subs:     make(map[chan SessionEvent]struct{}),
	}
}

// SignInWithPassword verifies the password and opens a provider session.
func (l *LocalIdentity) SignInWithPassword(ctx context.Context, email, password string) (Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := l.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Identity{}, ErrInvalidCredentials
	}

	now := l.clock.Now()
	identity := Identity{
		SessionID: uuid.NewString(),
		UserID:    user.ID,
		Email:     user.Email,
	}

	l.mu.Lock()
	l.sessions[identity.SessionID] = localSession{userID: user.ID, email: user.Email, issuedAt: now}
	l.mu.Unlock()

	l.emit(SessionEvent{Type: EventSignedIn, SessionID: identity.SessionID, UserID: user.ID, Email: user.Email, At: now})
	return identity, nil
}

// SignOut ends a provider session. Unknown sessions are ignored.
func (l *LocalIdentity) SignOut(_ context.Context, sessionID string) error {
	l.mu.Lock()
	session, ok := l.sessions[sessionID]
	delete(l.sessions, sessionID)
	l.mu.Unlock()

	if ok {
		l.emit(SessionEvent{Type: EventSignedOut, SessionID: sessionID, UserID: session.userID, Email: session.email, At: l.clock.Now()})
	}
	return nil
}

// Subscribe returns the session-change stream.
func (l *LocalIdentity) Subscribe() (<-chan SessionEvent, func()) {
	ch := make(chan SessionEvent, eventBuffer)

	l.subsMu.Lock()
	l.subs[ch] = struct{}{}
	l.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.subsMu.Lock()
			delete(l.subs, ch)
			l.subsMu.Unlock()
			close(ch)
		})
	}
}

// ExpireSessions ends every session older than the TTL and returns how many expired.
func (l *LocalIdentity) ExpireSessions() int {
	now := l.clock.Now()

	l.mu.Lock()
	expired := make([]SessionEvent, 0)
	for id, session := range l.sessions {
		if now.Sub(session.issuedAt) >= l.ttl {
			delete(l.sessions, id)
			expired = append(expired, SessionEvent{Type: EventExpired, SessionID: id, UserID: session.userID, Email: session.email, At: now})
		}
	}
	l.mu.Unlock()

	for _, event := range expired {
		l.emit(event)
	}
	return len(expired)
}

// Run sweeps expired sessions until ctx is cancelled.
func (l *LocalIdentity) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.ExpireSessions(); n > 0 {
				l.logger.Info().Int("expired", n).Msg("expired sessions")
			}
		}
	}
}

func (l *LocalIdentity) emit(event SessionEvent) {
	l.subsMu.RLock()
	defer l.subsMu.RUnlock()
	for ch := range l.subs {
		select {
		case ch <- event:
		default:
			l.logger.Error().Str("event", string(event.Type)).Str("session_id", event.SessionID).Msg("session event dropped")
		}
	}
}
