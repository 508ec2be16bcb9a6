package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/noah-isme/occ-console-api/internal/checklist"
	"github.com/noah-isme/occ-console-api/internal/dto"
	"github.com/noah-isme/occ-console-api/internal/models"
	"github.com/noah-isme/occ-console-api/internal/repository"
	"github.com/noah-isme/occ-console-api/pkg/clock"
)

type checklistFixture struct {
	svc         ChecklistService
	lists       repository.PackingListRepository
	states      repository.ChecklistStateStore
	completions repository.CompletionRepository
	audit       *activityRecorder
	clock       *clock.Fake
}

func newChecklistFixture(t *testing.T, prune bool) checklistFixture {
	t.Helper()
	db := setupServiceTestDB(t, &models.PackingList{}, &models.CompletionRecord{})
	_, client := setupServiceTestRedis(t)

	f := checklistFixture{
		lists:       repository.NewPackingListRepository(db),
		states:      repository.NewChecklistStateStore(client, 0),
		completions: repository.NewCompletionRepository(db),
		audit:       &activityRecorder{},
		clock:       clock.NewFake(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)),
	}
	f.svc = NewChecklistService(f.lists, f.states, f.completions, f.audit, testValidator(),
		ChecklistServiceConfig{PruneStaleIDs: prune, Clock: f.clock}, testLogger())
	return f
}

func (f checklistFixture) storeList(t *testing.T, key checklist.Key, items string) {
	t.Helper()
	require.NoError(t, f.lists.Upsert(context.Background(), &models.PackingList{
		Activity: key.Activity,
		ListType: key.ListType,
		Title:    "Test list",
		Items:    datatypes.JSON(items),
	}))
}

const testListItems = `[
	{"id":"a","text":"Loose"},
	{"id":"r1","text":"ROOM 1","isDivider":true},
	{"id":"b","text":"Key"},
	{"id":"c","text":"Lock"}
]`

func TestChecklistViewFallsBackToDefaults(t *testing.T) {
	f := newChecklistFixture(t, false)
	ctx := context.Background()

	view, err := f.svc.View(ctx, checklist.NewKey("TeamBox", "Nulstil"), gamemasterActor)
	require.NoError(t, err)
	require.Equal(t, "teambox", view.Activity)
	require.Equal(t, "Nulstil Box", view.Title)
	require.NotEmpty(t, view.Sections)
	require.Zero(t, view.Progress.Checked)
	require.Nil(t, view.Session.StartTime)

	_, err = f.svc.View(ctx, checklist.NewKey("unknown", "list"), gamemasterActor)
	require.ErrorIs(t, err, ErrChecklistNotFound)

	_, err = f.svc.View(ctx, checklist.NewKey("", "list"), gamemasterActor)
	require.ErrorIs(t, err, ErrValidation)
}

func TestChecklistStoredDefinitionWins(t *testing.T) {
	f := newChecklistFixture(t, false)
	key := checklist.NewKey("teambox", "nulstil")
	f.storeList(t, key, testListItems)

	view, err := f.svc.View(context.Background(), key, gamemasterActor)
	require.NoError(t, err)
	require.Equal(t, "Test list", view.Title)
	require.Len(t, view.Sections, 2)
	require.Equal(t, 3, view.Progress.Total)
}

func TestChecklistInvalidStoredDefinitionUsesDefaults(t *testing.T) {
	f := newChecklistFixture(t, false)
	key := checklist.NewKey("teambox", "nulstil")
	f.storeList(t, key, `[{"id":"a"}]`)

	view, err := f.svc.View(context.Background(), key, gamemasterActor)
	require.NoError(t, err)
	require.Equal(t, "Nulstil Box", view.Title)
}

func TestChecklistToggleAndSectionOperations(t *testing.T) {
	f := newChecklistFixture(t, false)
	ctx := context.Background()
	key := checklist.NewKey("test", "list")
	f.storeList(t, key, testListItems)

	view, err := f.svc.Toggle(ctx, key, gamemasterActor, "b")
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, view.Session.CheckedIDs)
	require.NotNil(t, view.Session.StartTime)

	f.clock.Advance(90 * time.Second)
	view, err = f.svc.CheckSection(ctx, key, gamemasterActor, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"b", "c"}, view.Session.CheckedIDs)
	require.Equal(t, int64(90), view.ElapsedSeconds)
	require.Equal(t, 67, view.Progress.Percent)

	view, err = f.svc.Navigate(ctx, key, gamemasterActor, 9)
	require.NoError(t, err)
	require.Equal(t, 1, view.Session.CurrentSection)
	require.Equal(t, checklist.Progress{Checked: 2, Total: 2, Percent: 100}, view.SectionProgress)

	view, err = f.svc.UncheckSection(ctx, key, gamemasterActor, 1)
	require.NoError(t, err)
	require.Empty(t, view.Session.CheckedIDs)

	_, err = f.svc.CheckSection(ctx, key, gamemasterActor, 5)
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Toggle(ctx, key, gamemasterActor, "")
	require.ErrorIs(t, err, ErrValidation)

	view, err = f.svc.Toggle(ctx, key, gamemasterActor, "a")
	require.NoError(t, err)
	view, err = f.svc.ResetSection(ctx, key, gamemasterActor, 0)
	require.NoError(t, err)
	require.Empty(t, view.Session.CheckedIDs)
	require.NotNil(t, view.Session.StartTime)

	view, err = f.svc.ResetAll(ctx, key, gamemasterActor)
	require.NoError(t, err)
	require.Nil(t, view.Session.StartTime)
	require.Zero(t, view.Session.CurrentSection)
}

func TestChecklistStateIsPerUser(t *testing.T) {
	f := newChecklistFixture(t, false)
	ctx := context.Background()
	key := checklist.NewKey("test", "list")
	f.storeList(t, key, testListItems)

	_, err := f.svc.Toggle(ctx, key, gamemasterActor, "a")
	require.NoError(t, err)

	view, err := f.svc.View(ctx, key, instructorActor)
	require.NoError(t, err)
	require.Empty(t, view.Session.CheckedIDs)

	view, err = f.svc.View(ctx, key, gamemasterActor)
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, view.Session.CheckedIDs)
}

func TestChecklistPrunesStaleIDs(t *testing.T) {
	key := checklist.NewKey("test", "list")

	for name, prune := range map[string]bool{"keep": false, "prune": true} {
		prune := prune
		t.Run(name, func(t *testing.T) {
			f := newChecklistFixture(t, prune)
			f.storeList(t, key, testListItems)
			session, err := checklist.DecodeState([]byte(`["a","removed"]`))
			require.NoError(t, err)
			require.NoError(t, f.states.Save(context.Background(), key, gamemasterActor.UserID, session))

			view, err := f.svc.View(context.Background(), key, gamemasterActor)
			require.NoError(t, err)
			if prune {
				require.Equal(t, []string{"a"}, view.Session.CheckedIDs)
			} else {
				require.Equal(t, []string{"a", "removed"}, view.Session.CheckedIDs)
			}
		})
	}
}

func TestChecklistCompleteRecordsAndClears(t *testing.T) {
	f := newChecklistFixture(t, false)
	ctx := context.Background()
	key := checklist.NewKey("test", "list")
	f.storeList(t, key, testListItems)

	_, err := f.svc.CheckSection(ctx, key, gamemasterActor, 0)
	require.NoError(t, err)
	_, err = f.svc.CheckSection(ctx, key, gamemasterActor, 1)
	require.NoError(t, err)
	f.clock.Advance(5 * time.Minute)

	record, err := f.svc.Complete(ctx, key, gamemasterActor)
	require.NoError(t, err)
	require.NotZero(t, record.ID)
	require.Equal(t, "gm@occ.dk", record.CompletedBy)
	require.Equal(t, "Game Master", record.CompletedByName)
	require.Equal(t, int64(300), record.DurationSeconds)
	require.Equal(t, 3, record.ItemsChecked)
	require.Equal(t, 3, record.ItemsTotal)

	entry := f.audit.last(t)
	require.Equal(t, models.ActionCompleteList, entry.Action)
	require.Equal(t, "Completed test list in 5m0s", entry.Details)

	view, err := f.svc.View(ctx, key, gamemasterActor)
	require.NoError(t, err)
	require.Empty(t, view.Session.CheckedIDs)
	require.Nil(t, view.Session.StartTime)

	stored, err := f.completions.List(ctx, repository.CompletionFilter{})
	require.NoError(t, err)
	require.Len(t, stored, 1)
}

type failingStateStore struct {
	repository.ChecklistStateStore
}

func (failingStateStore) Save(context.Context, checklist.Key, string, *checklist.Session) error {
	return errors.New("redis down")
}

func TestChecklistSaveFailureIsReported(t *testing.T) {
	f := newChecklistFixture(t, false)
	svc := NewChecklistService(f.lists, failingStateStore{f.states}, f.completions, f.audit, testValidator(),
		ChecklistServiceConfig{Clock: f.clock}, testLogger())
	key := checklist.NewKey("teambox", "nulstil")

	_, err := svc.Toggle(context.Background(), key, gamemasterActor, "n-b1")
	require.Error(t, err)

	view, err := f.svc.View(context.Background(), key, gamemasterActor)
	require.NoError(t, err)
	require.Empty(t, view.Session.CheckedIDs)
}

type failingCompletionRepo struct {
	repository.CompletionRepository
}

func (failingCompletionRepo) Create(context.Context, *models.CompletionRecord) error {
	return errors.New("database unavailable")
}

func TestChecklistCompleteFailureKeepsSession(t *testing.T) {
	f := newChecklistFixture(t, false)
	ctx := context.Background()
	key := checklist.NewKey("test", "list")
	f.storeList(t, key, testListItems)

	_, err := f.svc.Toggle(ctx, key, gamemasterActor, "b")
	require.NoError(t, err)
	_, err = f.svc.Toggle(ctx, key, gamemasterActor, "c")
	require.NoError(t, err)
	before, err := f.svc.View(ctx, key, gamemasterActor)
	require.NoError(t, err)
	require.NotNil(t, before.Session.StartTime)

	svc := NewChecklistService(f.lists, f.states, failingCompletionRepo{f.completions}, f.audit, testValidator(),
		ChecklistServiceConfig{Clock: f.clock}, testLogger())
	f.clock.Advance(time.Minute)
	_, err = svc.Complete(ctx, key, gamemasterActor)
	require.Error(t, err)

	after, err := f.svc.View(ctx, key, gamemasterActor)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"b", "c"}, after.Session.CheckedIDs)
	require.Equal(t, before.Session.StartTime.UTC(), after.Session.StartTime.UTC())

	f.audit.mu.Lock()
	for _, entry := range f.audit.entries {
		require.NotEqual(t, models.ActionCompleteList, entry.Action)
	}
	f.audit.mu.Unlock()

	record, err := f.svc.Complete(ctx, key, gamemasterActor)
	require.NoError(t, err)
	require.Equal(t, 2, record.ItemsChecked)
	require.Equal(t, int64(60), record.DurationSeconds)
}

func TestChecklistConcurrentTogglesAreSerialised(t *testing.T) {
	f := newChecklistFixture(t, false)
	ctx := context.Background()
	key := checklist.NewKey("teambox", "nulstil")

	list, ok := checklist.DefaultList(key)
	require.True(t, ok)
	items := list.CheckableItems()[:10]

	var wg sync.WaitGroup
	errs := make(chan error, len(items))
	for _, item := range items {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.svc.Toggle(ctx, key, gamemasterActor, id)
			errs <- err
		}(item.ID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	view, err := f.svc.View(ctx, key, gamemasterActor)
	require.NoError(t, err)
	require.Len(t, view.Session.CheckedIDs, 10)
}

func TestSaveDefinition(t *testing.T) {
	f := newChecklistFixture(t, false)
	ctx := context.Background()
	key := checklist.NewKey("teamsegway", "afgang")
	req := dto.PackingListUpsertRequest{
		Title: "Departure",
		Items: []map[string]interface{}{
			{"id": "s1", "text": "Segways charged"},
			{"id": "d", "text": "HELMETS", "isDivider": true},
			{"id": "h1", "text": "Helmets cleaned"},
		},
	}

	_, err := f.svc.SaveDefinition(ctx, key, gamemasterActor, req)
	require.ErrorIs(t, err, ErrForbidden)

	view, err := f.svc.SaveDefinition(ctx, key, adminActor, req)
	require.NoError(t, err)
	require.Len(t, view.Sections, 2)
	require.Equal(t, models.ActionUpdateList, f.audit.last(t).Action)

	loaded, err := f.svc.View(ctx, key, gamemasterActor)
	require.NoError(t, err)
	require.Equal(t, "Departure", loaded.Title)
	require.Equal(t, 2, loaded.Progress.Total)

	bad := dto.PackingListUpsertRequest{Items: []map[string]interface{}{{"id": "x"}}}
	_, err = f.svc.SaveDefinition(ctx, key, adminActor, bad)
	require.ErrorIs(t, err, ErrValidation)
}
