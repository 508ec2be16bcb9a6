package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/occ-console-api/internal/models"
)

func TestUserRepositoryLifecycle(t *testing.T) {
	db := newTestDB(t, &models.UserProfile{})
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &models.UserProfile{ID: "u1", Email: " GM@OCC.dk ", PasswordHash: "hash", Role: models.RoleGamemaster}
	require.NoError(t, repo.Create(ctx, user))
	require.Equal(t, "gm@occ.dk", user.Email)

	duplicate := &models.UserProfile{ID: "u2", Email: "gm@occ.dk", PasswordHash: "hash", Role: models.RoleInstructor}
	require.ErrorIs(t, repo.Create(ctx, duplicate), ErrConflict)

	found, err := repo.FindByEmail(ctx, "Gm@Occ.dk")
	require.NoError(t, err)
	require.Equal(t, "u1", found.ID)

	require.NoError(t, repo.UpdateRole(ctx, "u1", models.RoleAdmin))
	require.NoError(t, repo.UpdateName(ctx, "u1", "Game Master"))
	require.NoError(t, repo.UpdatePassword(ctx, "u1", "new-hash"))
	loginAt := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastLogin(ctx, "u1", loginAt))

	stored, err := repo.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, stored.Role)
	require.Equal(t, "Game Master", stored.Name)
	require.Equal(t, "new-hash", stored.PasswordHash)
	require.NotNil(t, stored.LastLoginAt)
	require.True(t, loginAt.Equal(*stored.LastLoginAt))

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)

	require.ErrorIs(t, repo.UpdateRole(ctx, "missing", models.RoleAdmin), ErrNotFound)
	require.NoError(t, repo.Delete(ctx, "u1"))
	require.ErrorIs(t, repo.Delete(ctx, "u1"), ErrNotFound)

	_, err = repo.GetUser(ctx, "u1")
	require.ErrorIs(t, err, ErrNotFound)
}
