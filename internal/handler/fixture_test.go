package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/occ-console-api/internal/auth"
	"github.com/noah-isme/occ-console-api/internal/middleware"
	"github.com/noah-isme/occ-console-api/internal/models"
	"github.com/noah-isme/occ-console-api/internal/repository"
)

const testPassword = "correct-horse"

// accountStore serves both credentials and profiles. Accounts marked pending
// have no profile yet, so their sessions never leave the optimistic state.
type accountStore struct {
	mu       sync.Mutex
	accounts map[string]*models.UserProfile
	pending  map[string]bool
}

func newAccountStore() *accountStore {
	return &accountStore{accounts: make(map[string]*models.UserProfile), pending: make(map[string]bool)}
}

func (s *accountStore) add(t *testing.T, email string, role models.Role, pending bool) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[email] = &models.UserProfile{ID: "id-" + email, Email: email, Name: "Test", Role: role, PasswordHash: string(hash)}
	s.pending["id-"+email] = pending
}

func (s *accountStore) FindByEmail(_ context.Context, email string) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *account
	return &clone, nil
}

func (s *accountStore) GetUser(_ context.Context, id string) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending[id] {
		return nil, nil
	}
	for _, account := range s.accounts {
		if account.ID == id {
			clone := *account
			return &clone, nil
		}
	}
	return nil, nil
}

func (s *accountStore) UpdateLastLogin(context.Context, string, time.Time) error { return nil }

type nopAudit struct{}

func (nopAudit) LogActivity(context.Context, string, string, string, string, string) {}

type authFixture struct {
	accounts    *accountStore
	manager     *auth.Manager
	tokens      *auth.TokenIssuer
	sessionAuth fiber.Handler
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	logger := zerolog.New(io.Discard)
	accounts := newAccountStore()
	identity := auth.NewLocalIdentity(accounts, auth.LocalIdentityConfig{SessionTTL: time.Hour, Logger: logger})
	manager := auth.NewManager(identity, accounts, nopAudit{}, auth.ManagerConfig{
		OptimisticRole: models.RoleInstructor,
		ConfirmTimeout: time.Second,
		Logger:         logger,
	})
	manager.Start(context.Background())
	t.Cleanup(manager.Close)

	tokens := auth.NewTokenIssuer("handler-secret", time.Hour, nil)
	return &authFixture{
		accounts:    accounts,
		manager:     manager,
		tokens:      tokens,
		sessionAuth: middleware.SessionAuth(manager, tokens),
	}
}

// login signs in a confirmed account with the given role.
func (f *authFixture) login(t *testing.T, email string, role models.Role) string {
	t.Helper()
	f.accounts.add(t, email, role, false)
	session, err := f.manager.SignIn(context.Background(), email, testPassword)
	require.NoError(t, err)
	require.Eventually(t, session.Confirmed, time.Second, 5*time.Millisecond)

	token, _, err := f.tokens.Issue(session)
	require.NoError(t, err)
	return token
}

// loginPending signs in an account whose profile cannot be confirmed.
func (f *authFixture) loginPending(t *testing.T, email string, role models.Role) string {
	t.Helper()
	f.accounts.add(t, email, role, true)
	session, err := f.manager.SignIn(context.Background(), email, testPassword)
	require.NoError(t, err)

	token, _, err := f.tokens.Issue(session)
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeResponse(t *testing.T, resp *http.Response, data interface{}) envelope {
	t.Helper()
	defer resp.Body.Close()
	var payload envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	if data != nil {
		require.NoError(t, json.Unmarshal(payload.Data, data))
	}
	return payload
}
