package service

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/occ-console-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func setupServiceTestDB(t *testing.T, tables ...interface{}) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(tables...))
	return db
}

func setupServiceTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return server, client
}

type loggedActivity struct {
	UserID  string
	Email   string
	Action  string
	Page    string
	Details string
}

type activityRecorder struct {
	mu      sync.Mutex
	entries []loggedActivity
}

func (r *activityRecorder) LogActivity(_ context.Context, userID, email, action, page, details string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, loggedActivity{UserID: userID, Email: email, Action: action, Page: page, Details: details})
}

func (r *activityRecorder) last(t *testing.T) loggedActivity {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.entries)
	return r.entries[len(r.entries)-1]
}

func (r *activityRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

var (
	adminActor      = Actor{UserID: "admin-1", Email: "admin@occ.dk", Name: "Admin", Role: models.RoleAdmin}
	gamemasterActor = Actor{UserID: "gm-1", Email: "gm@occ.dk", Name: "Game Master", Role: models.RoleGamemaster}
	instructorActor = Actor{UserID: "ins-1", Email: "ins@occ.dk", Role: models.RoleInstructor}
)
