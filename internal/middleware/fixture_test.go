package middleware_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/occ-console-api/internal/auth"
	"github.com/noah-isme/occ-console-api/internal/models"
)

type fixtureIdentity struct{}

func (fixtureIdentity) SignInWithPassword(_ context.Context, email, _ string) (auth.Identity, error) {
	return auth.Identity{SessionID: "sess-" + email, UserID: email, Email: email}, nil
}

func (fixtureIdentity) SignOut(context.Context, string) error { return nil }

func (fixtureIdentity) Subscribe() (<-chan auth.SessionEvent, func()) {
	return make(chan auth.SessionEvent), func() {}
}

// fixtureProfiles knows the profiles registered with it. Unknown users leave
// their sessions optimistic.
type fixtureProfiles struct {
	mu       sync.Mutex
	profiles map[string]*models.UserProfile
}

func (f *fixtureProfiles) GetUser(_ context.Context, id string) (*models.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.profiles[id]
	if !ok {
		return nil, nil
	}
	clone := *profile
	return &clone, nil
}

func (f *fixtureProfiles) UpdateLastLogin(context.Context, string, time.Time) error { return nil }

func (f *fixtureProfiles) add(email string, role models.Role) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[email] = &models.UserProfile{ID: email, Email: email, Role: role}
}

type nopAudit struct{}

func (nopAudit) LogActivity(context.Context, string, string, string, string, string) {}

type sessionFixture struct {
	manager  *auth.Manager
	tokens   *auth.TokenIssuer
	profiles *fixtureProfiles
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	profiles := &fixtureProfiles{profiles: make(map[string]*models.UserProfile)}
	manager := auth.NewManager(fixtureIdentity{}, profiles, nopAudit{}, auth.ManagerConfig{
		OptimisticRole: models.RoleInstructor,
		ConfirmTimeout: time.Second,
		Logger:         zerolog.New(io.Discard),
	})
	t.Cleanup(manager.Close)
	return &sessionFixture{
		manager:  manager,
		tokens:   auth.NewTokenIssuer("test-secret", time.Hour, nil),
		profiles: profiles,
	}
}

// confirmed signs in a user whose stored role is role and waits for the
// session to be confirmed.
func (f *sessionFixture) confirmed(t *testing.T, email string, role models.Role) string {
	t.Helper()
	f.profiles.add(email, role)
	session, err := f.manager.SignIn(context.Background(), email, "secret")
	require.NoError(t, err)
	require.Eventually(t, session.Confirmed, time.Second, 5*time.Millisecond)
	return f.issue(t, session)
}

// optimistic signs in a user with no stored profile, leaving the session on
// the assumed role.
func (f *sessionFixture) optimistic(t *testing.T, email string) string {
	t.Helper()
	session, err := f.manager.SignIn(context.Background(), email, "secret")
	require.NoError(t, err)
	require.Equal(t, auth.StateOptimistic, session.State())
	return f.issue(t, session)
}

func (f *sessionFixture) issue(t *testing.T, session *auth.Session) string {
	t.Helper()
	token, _, err := f.tokens.Issue(session)
	require.NoError(t, err)
	return token
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()
	var payload envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload
}

func decodeJSON(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}
