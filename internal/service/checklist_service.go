package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/noah-isme/occ-console-api/internal/auth"
	"github.com/noah-isme/occ-console-api/internal/checklist"
	"github.com/noah-isme/occ-console-api/internal/dto"
	"github.com/noah-isme/occ-console-api/internal/models"
	"github.com/noah-isme/occ-console-api/internal/observability"
	"github.com/noah-isme/occ-console-api/internal/repository"
	"github.com/noah-isme/occ-console-api/pkg/clock"
)

// ErrChecklistNotFound indicates no definition exists for the key.
var ErrChecklistNotFound = errors.New("checklist not found")

// ChecklistService runs checklists for the authenticated user. Every mutation
// is loaded, applied and persisted under a per-user, per-list lock.
type ChecklistService interface {
	View(ctx context.Context, key checklist.Key, actor Actor) (dto.ChecklistViewResponse, error)
	Toggle(ctx context.Context, key checklist.Key, actor Actor, itemID string) (dto.ChecklistViewResponse, error)
	CheckSection(ctx context.Context, key checklist.Key, actor Actor, index int) (dto.ChecklistViewResponse, error)
	UncheckSection(ctx context.Context, key checklist.Key, actor Actor, index int) (dto.ChecklistViewResponse, error)
	ResetSection(ctx context.Context, key checklist.Key, actor Actor, index int) (dto.ChecklistViewResponse, error)
	ResetAll(ctx context.Context, key checklist.Key, actor Actor) (dto.ChecklistViewResponse, error)
	Navigate(ctx context.Context, key checklist.Key, actor Actor, index int) (dto.ChecklistViewResponse, error)
	Complete(ctx context.Context, key checklist.Key, actor Actor) (models.CompletionRecord, error)
	SaveDefinition(ctx context.Context, key checklist.Key, actor Actor, req dto.PackingListUpsertRequest) (dto.ChecklistViewResponse, error)
}

// ChecklistServiceConfig tunes state handling.
type ChecklistServiceConfig struct {
	// PruneStaleIDs drops checked ids missing from the current definition
	// whenever state is restored.
	PruneStaleIDs bool
	Clock         clock.Clock
}

type checklistService struct {
	lists       repository.PackingListRepository
	states      repository.ChecklistStateStore
	completions repository.CompletionRepository
	audit       auth.ActivityLogger
	validator   *validator.Validate
	locks       *keyedMutex
	prune       bool
	clock       clock.Clock
	tracer      trace.Tracer
	logger      zerolog.Logger
}

// NewChecklistService constructs the checklist service.
func NewChecklistService(
	lists repository.PackingListRepository,
	states repository.ChecklistStateStore,
	completions repository.CompletionRepository,
	audit auth.ActivityLogger,
	validate *validator.Validate,
	cfg ChecklistServiceConfig,
	logger zerolog.Logger,
) ChecklistService {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	return &checklistService{
		lists:       lists,
		states:      states,
		completions: completions,
		audit:       audit,
		validator:   validate,
		locks:       newKeyedMutex(),
		prune:       cfg.PruneStaleIDs,
		clock:       cfg.Clock,
		tracer:      otel.Tracer("github.com/noah-isme/occ-console-api/internal/service/checklist"),
		logger:      logger.With().Str("component", "checklist_service").Logger(),
	}
}

// loadList returns the stored definition, falling back to the built-in one
// when the stored items are missing or invalid.
func (s *checklistService) loadList(ctx context.Context, key checklist.Key) (*checklist.List, error) {
	if !key.Valid() {
		return nil, validationError("activity and list type are required")
	}

	row, err := s.lists.Find(ctx, key.Activity, key.ListType)
	switch {
	case err == nil:
		items, parseErr := checklist.ParseItems(row.Items)
		if parseErr == nil {
			return checklist.NewList(key, row.Title, items), nil
		}
		s.logger.Warn().Err(parseErr).Str("checklist", key.String()).Msg("stored checklist definition rejected, using defaults")
	case errors.Is(err, repository.ErrNotFound):
	default:
		s.logger.Warn().Err(err).Str("checklist", key.String()).Msg("failed to load checklist definition, using defaults")
	}

	if list, ok := checklist.DefaultList(key); ok {
		return list, nil
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return nil, ErrChecklistNotFound
}

func (s *checklistService) restore(ctx context.Context, list *checklist.List, userID string) (*checklist.Session, error) {
	session, err := s.states.Load(ctx, list.Key, userID)
	if err != nil {
		return nil, err
	}
	if s.prune {
		if removed := session.Prune(list); removed > 0 {
			s.logger.Debug().Str("checklist", list.Key.String()).Int("removed", removed).Msg("pruned stale checklist ids")
		}
	}
	return session, nil
}

func lockKey(key checklist.Key, userID string) string {
	return repository.ChecklistStateKey(key, userID)
}

func (s *checklistService) View(ctx context.Context, key checklist.Key, actor Actor) (dto.ChecklistViewResponse, error) {
	list, err := s.loadList(ctx, key)
	if err != nil {
		return dto.ChecklistViewResponse{}, err
	}

	unlock := s.locks.Lock(lockKey(key, actor.UserID))
	defer unlock()

	session, err := s.restore(ctx, list, actor.UserID)
	if err != nil {
		return dto.ChecklistViewResponse{}, err
	}
	return buildChecklistView(list, session, s.clock.Now()), nil
}

// mutate applies fn and persists the result before the lock is released. A
// failed save leaves the previously stored state in place.
func (s *checklistService) mutate(ctx context.Context, key checklist.Key, actor Actor, operation string, fn func(list *checklist.List, session *checklist.Session, now time.Time) error) (dto.ChecklistViewResponse, error) {
	list, err := s.loadList(ctx, key)
	if err != nil {
		return dto.ChecklistViewResponse{}, err
	}

	unlock := s.locks.Lock(lockKey(key, actor.UserID))
	defer unlock()

	session, err := s.restore(ctx, list, actor.UserID)
	if err != nil {
		return dto.ChecklistViewResponse{}, err
	}

	now := s.clock.Now()
	if err := fn(list, session, now); err != nil {
		return dto.ChecklistViewResponse{}, err
	}

	if err := s.states.Save(ctx, key, actor.UserID, session); err != nil {
		s.logger.Error().Err(err).Str("checklist", key.String()).Str("operation", operation).Msg("failed to persist checklist state")
		return dto.ChecklistViewResponse{}, err
	}

	observability.ChecklistMutations().WithLabelValues(operation).Inc()
	return buildChecklistView(list, session, now), nil
}

func sectionAt(list *checklist.List, index int) (checklist.Section, error) {
	section, ok := list.Section(index)
	if !ok {
		return checklist.Section{}, validationError("section %d does not exist", index)
	}
	return section, nil
}

func (s *checklistService) Toggle(ctx context.Context, key checklist.Key, actor Actor, itemID string) (dto.ChecklistViewResponse, error) {
	if itemID == "" {
		return dto.ChecklistViewResponse{}, validationError("item id is required")
	}
	return s.mutate(ctx, key, actor, "toggle", func(list *checklist.List, session *checklist.Session, now time.Time) error {
		session.Toggle(now, list, itemID)
		return nil
	})
}

func (s *checklistService) CheckSection(ctx context.Context, key checklist.Key, actor Actor, index int) (dto.ChecklistViewResponse, error) {
	return s.mutate(ctx, key, actor, "check_section", func(list *checklist.List, session *checklist.Session, now time.Time) error {
		section, err := sectionAt(list, index)
		if err != nil {
			return err
		}
		session.CheckAll(now, section.Items)
		return nil
	})
}

func (s *checklistService) UncheckSection(ctx context.Context, key checklist.Key, actor Actor, index int) (dto.ChecklistViewResponse, error) {
	return s.mutate(ctx, key, actor, "uncheck_section", func(list *checklist.List, session *checklist.Session, now time.Time) error {
		section, err := sectionAt(list, index)
		if err != nil {
			return err
		}
		session.UncheckAll(now, section.Items)
		return nil
	})
}

func (s *checklistService) ResetSection(ctx context.Context, key checklist.Key, actor Actor, index int) (dto.ChecklistViewResponse, error) {
	return s.mutate(ctx, key, actor, "reset_section", func(list *checklist.List, session *checklist.Session, _ time.Time) error {
		section, err := sectionAt(list, index)
		if err != nil {
			return err
		}
		session.ResetSection(section.Items)
		return nil
	})
}

func (s *checklistService) ResetAll(ctx context.Context, key checklist.Key, actor Actor) (dto.ChecklistViewResponse, error) {
	return s.mutate(ctx, key, actor, "reset_all", func(_ *checklist.List, session *checklist.Session, _ time.Time) error {
		session.ResetAll()
		return nil
	})
}

func (s *checklistService) Navigate(ctx context.Context, key checklist.Key, actor Actor, index int) (dto.ChecklistViewResponse, error) {
	return s.mutate(ctx, key, actor, "navigate", func(list *checklist.List, session *checklist.Session, _ time.Time) error {
		session.Navigate(index, len(list.Sections))
		return nil
	})
}

// Complete records the run and clears its state. The UI only offers it at
// 100% progress; the counts are recorded as they are.
func (s *checklistService) Complete(ctx context.Context, key checklist.Key, actor Actor) (models.CompletionRecord, error) {
	ctx, span := s.tracer.Start(ctx, "checklist.complete", trace.WithAttributes(
		attribute.String("checklist.activity", key.Activity),
		attribute.String("checklist.list_type", key.ListType),
	))
	defer span.End()

	list, err := s.loadList(ctx, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "definition unavailable")
		return models.CompletionRecord{}, err
	}

	unlock := s.locks.Lock(lockKey(key, actor.UserID))
	defer unlock()

	session, err := s.restore(ctx, list, actor.UserID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "state unavailable")
		return models.CompletionRecord{}, err
	}

	record := checklist.NewCompletion(list, session, checklist.Completer{Email: actor.Email, Name: actor.Name}, s.clock.Now())
	span.SetAttributes(
		attribute.Int("checklist.items_checked", record.ItemsChecked),
		attribute.Int("checklist.items_total", record.ItemsTotal),
		attribute.Int64("checklist.duration_seconds", record.DurationSeconds),
	)

	if err := s.completions.Create(ctx, &record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "record failed")
		s.logger.Error().Err(err).Str("checklist", key.String()).Msg("failed to record checklist completion")
		return models.CompletionRecord{}, err
	}

	if err := s.states.Delete(ctx, key, actor.UserID); err != nil {
		s.logger.Warn().Err(err).Str("checklist", key.String()).Msg("completion recorded but state was not cleared")
	}

	observability.ChecklistCompletions().WithLabelValues(key.Activity, key.ListType).Inc()
	s.audit.LogActivity(ctx, actor.UserID, actor.Email, models.ActionCompleteList, "",
		fmt.Sprintf("Completed %s %s in %s", key.Activity, key.ListType, formatDuration(record.DurationSeconds)))

	return record, nil
}

// SaveDefinition replaces the stored item definition of a checklist.
func (s *checklistService) SaveDefinition(ctx context.Context, key checklist.Key, actor Actor, req dto.PackingListUpsertRequest) (dto.ChecklistViewResponse, error) {
	if !auth.HasPermission(actor.Profile(), models.RoleAdmin) {
		return dto.ChecklistViewResponse{}, ErrForbidden
	}
	if !key.Valid() {
		return dto.ChecklistViewResponse{}, validationError("activity and list type are required")
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.ChecklistViewResponse{}, err
	}

	raw, err := json.Marshal(req.Items)
	if err != nil {
		return dto.ChecklistViewResponse{}, validationError("items are not valid json")
	}
	items, err := checklist.ParseItems(raw)
	if err != nil {
		return dto.ChecklistViewResponse{}, validationError("%s", err.Error())
	}

	row := models.PackingList{
		Activity: key.Activity,
		ListType: key.ListType,
		Title:    req.Title,
		Items:    datatypes.JSON(raw),
	}
	if err := s.lists.Upsert(ctx, &row); err != nil {
		return dto.ChecklistViewResponse{}, err
	}

	s.audit.LogActivity(ctx, actor.UserID, actor.Email, models.ActionUpdateList, "",
		fmt.Sprintf("Updated checklist %s %s (%d items)", key.Activity, key.ListType, len(items)))

	list := checklist.NewList(key, req.Title, items)
	return buildChecklistView(list, checklist.NewSession(), s.clock.Now()), nil
}

func buildChecklistView(list *checklist.List, session *checklist.Session, now time.Time) dto.ChecklistViewResponse {
	view := dto.ChecklistViewResponse{
		Activity: list.Key.Activity,
		ListType: list.Key.ListType,
		Title:    list.Title,
		Sections: list.Sections,
		Session: dto.ChecklistSessionResponse{
			CheckedIDs:     session.CheckedIDs(),
			StartTime:      session.StartTime(),
			CurrentSection: session.CurrentSection(),
		},
		Progress:       checklist.ComputeProgress(session, list.Items),
		ElapsedSeconds: session.Elapsed(now),
	}
	if section, ok := list.Section(session.CurrentSection()); ok {
		view.SectionProgress = checklist.ComputeProgress(session, section.Items)
	}
	return view
}

func formatDuration(seconds int64) string {
	return (time.Duration(seconds) * time.Second).String()
}
