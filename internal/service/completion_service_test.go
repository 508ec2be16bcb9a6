package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/occ-console-api/internal/dto"
	"github.com/noah-isme/occ-console-api/internal/models"
	"github.com/noah-isme/occ-console-api/internal/repository"
)

func TestCompletionServiceListAndDelete(t *testing.T) {
	db := setupServiceTestDB(t, &models.CompletionRecord{})
	repo := repository.NewCompletionRepository(db)
	audit := &activityRecorder{}
	svc := NewCompletionService(repo, audit, testValidator(), testLogger())
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	for i, activity := range []string{"teambox", "teamsegway", "teambox"} {
		record := models.CompletionRecord{Activity: activity, ListType: "x", CompletedBy: "gm@occ.dk", CompletedAt: base.Add(time.Duration(i) * time.Hour)}
		require.NoError(t, repo.Create(ctx, &record))
	}

	_, err := svc.List(ctx, gamemasterActor, dto.CompletionListRequest{})
	require.ErrorIs(t, err, ErrForbidden)

	records, err := svc.List(ctx, adminActor, dto.CompletionListRequest{Activity: " TeamBox "})
	require.NoError(t, err)
	require.Len(t, records, 2)

	_, err = svc.List(ctx, adminActor, dto.CompletionListRequest{Limit: 1000})
	require.Error(t, err)

	require.ErrorIs(t, svc.Delete(ctx, gamemasterActor, records[0].ID), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, adminActor, records[0].ID))
	require.Equal(t, models.ActionDeleteCompletion, audit.last(t).Action)
	require.ErrorIs(t, svc.Delete(ctx, adminActor, records[0].ID), ErrNotFound)
}
