package auth

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/occ-console-api/internal/models"
	"github.com/noah-isme/occ-console-api/internal/repository"
	"github.com/noah-isme/occ-console-api/pkg/clock"
)

type stubIdentity struct {
	mu         sync.Mutex
	signInErr  error
	signOutErr error
	signedOut  []string
	events     chan SessionEvent
}

func newStubIdentity() *stubIdentity {
	return &stubIdentity{events: make(chan SessionEvent, 8)}
}

func (s *stubIdentity) SignInWithPassword(_ context.Context, email, _ string) (Identity, error) {
	if s.signInErr != nil {
		return Identity{}, s.signInErr
	}
	return Identity{SessionID: "sess-" + email, UserID: "user-1", Email: email}, nil
}

func (s *stubIdentity) SignOut(_ context.Context, sessionID string) error {
	s.mu.Lock()
	s.signedOut = append(s.signedOut, sessionID)
	s.mu.Unlock()
	return s.signOutErr
}

func (s *stubIdentity) Subscribe() (<-chan SessionEvent, func()) {
	return s.events, func() {}
}

type stubProfiles struct {
	mu        sync.Mutex
	profile   *models.UserProfile
	err       error
	block     chan struct{}
	lastLogin map[string]time.Time
}

func (s *stubProfiles) GetUser(ctx context.Context, _ string) (*models.UserProfile, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if s.profile == nil {
		return nil, nil
	}
	clone := *s.profile
	return &clone, nil
}

func (s *stubProfiles) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastLogin == nil {
		s.lastLogin = make(map[string]time.Time)
	}
	s.lastLogin[id] = at
	return nil
}

type auditEntry struct {
	userID, email, action, details string
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (r *recordingAudit) LogActivity(_ context.Context, userID, email, action, _, details string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, auditEntry{userID: userID, email: email, action: action, details: details})
}

func (r *recordingAudit) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, entry.action)
	}
	return out
}

func newTestManager(identity IdentityProvider, profiles ProfileStore, audit ActivityLogger) *Manager {
	return NewManager(identity, profiles, audit, ManagerConfig{
		OptimisticRole: models.RoleInstructor,
		ConfirmTimeout: time.Second,
		Clock:          clock.NewFake(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)),
		Logger:         zerolog.New(io.Discard),
	})
}

func TestSignInGrantsOptimisticRoleThenConfirms(t *testing.T) {
	profiles := &stubProfiles{
		profile: &models.UserProfile{ID: "user-1", Email: "gm@occ.dk", Role: models.RoleGamemaster},
		block:   make(chan struct{}),
	}
	manager := newTestManager(newStubIdentity(), profiles, &recordingAudit{})
	defer manager.Close()

	session, err := manager.SignIn(context.Background(), " GM@occ.dk ", "secret")
	require.NoError(t, err)
	require.Equal(t, StateOptimistic, session.State())
	require.Equal(t, "gm@occ.dk", session.Profile().Email)
	require.Equal(t, models.RoleInstructor, session.Profile().Role)
	require.False(t, session.HasPermission(models.RoleGamemaster))

	close(profiles.block)

	require.Eventually(t, session.Confirmed, time.Second, 10*time.Millisecond)
	require.Equal(t, models.RoleGamemaster, session.Profile().Role)
	require.True(t, session.HasPermission(models.RoleGamemaster))
}

func TestSignInRejectsMissingCredentials(t *testing.T) {
	manager := newTestManager(newStubIdentity(), &stubProfiles{}, nil)

	_, err := manager.SignIn(context.Background(), "  ", "secret")
	var signInErr *SignInError
	require.ErrorAs(t, err, &signInErr)
	require.ErrorIs(t, err, ErrMissingCredentials)
}

func TestSignInPropagatesProviderFailures(t *testing.T) {
	identity := newStubIdentity()
	identity.signInErr = ErrInvalidCredentials
	manager := newTestManager(identity, &stubProfiles{}, nil)

	_, err := manager.SignIn(context.Background(), "a@occ.dk", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Equal(t, ErrInvalidCredentials.Error(), err.Error())

	identity.signInErr = errors.New("provider down")
	_, err = manager.SignIn(context.Background(), "a@occ.dk", "secret")
	var signInErr *SignInError
	require.ErrorAs(t, err, &signInErr)
	require.Equal(t, "sign-in failed, please try again", signInErr.Reason)
}

func TestSessionStaysOptimisticWhenProfileFetchFails(t *testing.T) {
	profiles := &stubProfiles{err: errors.New("db down")}
	manager := newTestManager(newStubIdentity(), profiles, nil)

	session, err := manager.SignIn(context.Background(), "a@occ.dk", "secret")
	require.NoError(t, err)

	manager.Close()
	require.Equal(t, StateOptimistic, session.State())
	require.True(t, session.Authenticated())
}

func TestConfirmReportsMissingProfile(t *testing.T) {
	profiles := &stubProfiles{block: make(chan struct{})}
	manager := newTestManager(newStubIdentity(), profiles, nil)
	defer manager.Close()

	session, err := manager.SignIn(context.Background(), "a@occ.dk", "secret")
	require.NoError(t, err)
	close(profiles.block)

	require.ErrorIs(t, manager.Confirm(context.Background(), session.ID()), ErrProfileNotFound)
	require.ErrorIs(t, manager.Confirm(context.Background(), "missing"), ErrSessionNotFound)
}

func TestConfirmRefreshesConfirmedSession(t *testing.T) {
	profiles := &stubProfiles{profile: &models.UserProfile{ID: "user-1", Email: "a@occ.dk", Role: models.RoleGamemaster}}
	manager := newTestManager(newStubIdentity(), profiles, nil)
	defer manager.Close()

	session, err := manager.SignIn(context.Background(), "a@occ.dk", "secret")
	require.NoError(t, err)
	require.Eventually(t, session.Confirmed, time.Second, 10*time.Millisecond)

	profiles.mu.Lock()
	profiles.profile.Role = models.RoleAdmin
	profiles.mu.Unlock()

	require.NoError(t, manager.Confirm(context.Background(), session.ID()))
	require.Equal(t, models.RoleAdmin, session.Profile().Role)
}

func TestSignOutLogsAndClearsEvenWhenProviderFails(t *testing.T) {
	identity := newStubIdentity()
	identity.signOutErr = errors.New("provider unreachable")
	audit := &recordingAudit{}
	manager := newTestManager(identity, &stubProfiles{}, audit)
	defer manager.Close()

	session, err := manager.SignIn(context.Background(), "a@occ.dk", "secret")
	require.NoError(t, err)

	updates, cancel := manager.Watch(session.ID())
	defer cancel()

	require.NoError(t, manager.SignOut(context.Background(), session.ID()))
	require.Equal(t, StateUnauthenticated, session.State())
	require.Nil(t, session.Profile())

	_, ok := manager.Session(session.ID())
	require.False(t, ok)
	require.Equal(t, []string{models.ActionLogout}, audit.actions())
	require.Equal(t, []string{session.ID()}, identity.signedOut)

	snapshot, ok := <-updates
	require.True(t, ok)
	require.Equal(t, StateUnauthenticated, snapshot.State)
	_, ok = <-updates
	require.False(t, ok)

	require.ErrorIs(t, manager.SignOut(context.Background(), session.ID()), ErrSessionNotFound)
}

func TestManagerHandlesProviderEvents(t *testing.T) {
	identity := newStubIdentity()
	profiles := &stubProfiles{block: make(chan struct{})}
	audit := &recordingAudit{}
	manager := newTestManager(identity, profiles, audit)
	manager.Start(context.Background())
	defer manager.Close()

	session, err := manager.SignIn(context.Background(), "a@occ.dk", "secret")
	require.NoError(t, err)

	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	identity.events <- SessionEvent{Type: EventSignedIn, SessionID: session.ID(), UserID: "user-1", Email: "a@occ.dk", At: at}
	require.Eventually(t, func() bool {
		profiles.mu.Lock()
		defer profiles.mu.Unlock()
		return profiles.lastLogin["user-1"].Equal(at)
	}, time.Second, 10*time.Millisecond)
	require.Contains(t, audit.actions(), models.ActionLogin)

	identity.events <- SessionEvent{Type: EventExpired, SessionID: session.ID(), At: at}
	require.Eventually(t, func() bool {
		_, ok := manager.Session(session.ID())
		return !ok
	}, time.Second, 10*time.Millisecond)
	require.Equal(t, StateUnauthenticated, session.State())
	close(profiles.block)
}

func TestWatchUnknownSessionIsClosed(t *testing.T) {
	manager := newTestManager(newStubIdentity(), &stubProfiles{}, nil)
	updates, cancel := manager.Watch("missing")
	defer cancel()
	_, ok := <-updates
	require.False(t, ok)
}

func TestEndUserSessionsEndsEverySessionOfTheUser(t *testing.T) {
	identity := newStubIdentity()
	profiles := &stubProfiles{profile: &models.UserProfile{ID: "user-1", Email: "a@occ.dk", Role: models.RoleAdmin}}
	manager := newTestManager(identity, profiles, nil)
	defer manager.Close()

	laptop, err := manager.SignIn(context.Background(), "a@occ.dk", "secret")
	require.NoError(t, err)
	tablet, err := manager.SignIn(context.Background(), "b@occ.dk", "secret")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return laptop.Confirmed() && tablet.Confirmed() }, time.Second, 10*time.Millisecond)

	require.Equal(t, 2, manager.EndUserSessions(context.Background(), "user-1"))
	require.Equal(t, StateUnauthenticated, laptop.State())
	require.Equal(t, StateUnauthenticated, tablet.State())
	require.ElementsMatch(t, []string{laptop.ID(), tablet.ID()}, identity.signedOut)

	require.Zero(t, manager.EndUserSessions(context.Background(), "user-1"))
}

func TestRefreshUserAppliesRoleChanges(t *testing.T) {
	profiles := &stubProfiles{profile: &models.UserProfile{ID: "user-1", Email: "a@occ.dk", Role: models.RoleAdmin}}
	manager := newTestManager(newStubIdentity(), profiles, nil)
	defer manager.Close()

	session, err := manager.SignIn(context.Background(), "a@occ.dk", "secret")
	require.NoError(t, err)
	require.Eventually(t, session.Confirmed, time.Second, 10*time.Millisecond)

	profiles.mu.Lock()
	profiles.profile.Role = models.RoleInstructor
	profiles.mu.Unlock()

	require.NoError(t, manager.RefreshUser(context.Background(), "user-1"))
	require.False(t, session.HasPermission(models.RoleAdmin))
	require.Equal(t, models.RoleInstructor, session.Profile().Role)
}

func TestRefreshUserEndsSessionsOfRemovedProfiles(t *testing.T) {
	profiles := &stubProfiles{profile: &models.UserProfile{ID: "user-1", Email: "a@occ.dk", Role: models.RoleAdmin}}
	manager := newTestManager(newStubIdentity(), profiles, nil)
	defer manager.Close()

	session, err := manager.SignIn(context.Background(), "a@occ.dk", "secret")
	require.NoError(t, err)
	require.Eventually(t, session.Confirmed, time.Second, 10*time.Millisecond)

	profiles.mu.Lock()
	profiles.err = repository.ErrNotFound
	profiles.mu.Unlock()

	require.NoError(t, manager.RefreshUser(context.Background(), "user-1"))
	_, live := manager.Session(session.ID())
	require.False(t, live)
	require.False(t, session.HasPermission(models.RoleInstructor))
}

func TestRefreshUserEndsSessionsWhenStoreFails(t *testing.T) {
	profiles := &stubProfiles{profile: &models.UserProfile{ID: "user-1", Email: "a@occ.dk", Role: models.RoleAdmin}}
	manager := newTestManager(newStubIdentity(), profiles, nil)
	defer manager.Close()

	session, err := manager.SignIn(context.Background(), "a@occ.dk", "secret")
	require.NoError(t, err)
	require.Eventually(t, session.Confirmed, time.Second, 10*time.Millisecond)

	profiles.mu.Lock()
	profiles.err = errors.New("db down")
	profiles.mu.Unlock()

	require.Error(t, manager.RefreshUser(context.Background(), "user-1"))
	require.Equal(t, StateUnauthenticated, session.State())
}
