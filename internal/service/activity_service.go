package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/occ-console-api/internal/auth"
	"github.com/noah-isme/occ-console-api/internal/dto"
	"github.com/noah-isme/occ-console-api/internal/models"
	"github.com/noah-isme/occ-console-api/internal/observability"
	"github.com/noah-isme/occ-console-api/internal/repository"
	"github.com/noah-isme/occ-console-api/pkg/clock"
	"github.com/noah-isme/occ-console-api/pkg/jobs"
)

const activityJobType = "activity_log"

// Publisher broadcasts persisted events. *nats.Conn satisfies it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// ActivityService records and queries the audit trail.
type ActivityService interface {
	auth.ActivityLogger
	Record(ctx context.Context, entry models.ActivityLog) (dto.ActivityLogResponse, error)
	List(ctx context.Context, req dto.ActivityListRequest) (dto.ActivityListResponse, error)
	Delete(ctx context.Context, id uint) error
	Start(ctx context.Context)
	Stop(ctx context.Context) error
}

// ActivityServiceConfig tunes the audit queue and event publication.
type ActivityServiceConfig struct {
	Workers       int
	BufferSize    int
	MaxRetries    int
	RetryDelay    time.Duration
	Publisher     Publisher
	SubjectPrefix string
	Clock         clock.Clock
}

type activityService struct {
	repo      repository.ActivityLogRepository
	validator *validator.Validate
	queue     *jobs.Queue
	publisher Publisher
	subject   string
	clock     clock.Clock
	logger    zerolog.Logger
}

// NewActivityService constructs the activity log service.
func NewActivityService(repo repository.ActivityLogRepository, validate *validator.Validate, cfg ActivityServiceConfig, logger zerolog.Logger) ActivityService {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	prefix := strings.Trim(cfg.SubjectPrefix, ".")
	if prefix == "" {
		prefix = "occ"
	}

	s := &activityService{
		repo:      repo,
		validator: validate,
		publisher: cfg.Publisher,
		subject:   prefix + ".activity",
		clock:     cfg.Clock,
		logger:    logger.With().Str("component", "activity_service").Logger(),
	}

	s.queue = jobs.NewQueue("audit", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
		OnGiveUp: func(job jobs.Job, err error) {
			observability.AuditFailures().Inc()
			entry, _ := job.Payload.(models.ActivityLog)
			s.logger.Error().
				Err(err).
				Str("user_email", maskEmail(entry.UserEmail)).
				Str("action", entry.Action).
				Msg("activity log entry lost")
		},
	})

	return s
}

func (s *activityService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

func (s *activityService) Stop(ctx context.Context) error {
	return s.queue.Stop(ctx)
}

// LogActivity queues an audit entry and returns immediately. Failures are
// reported on the operator log only.
func (s *activityService) LogActivity(_ context.Context, userID, email, action, page, details string) {
	entry := models.ActivityLog{
		UserID:    userID,
		UserEmail: strings.ToLower(strings.TrimSpace(email)),
		Action:    strings.ToUpper(strings.TrimSpace(action)),
		Page:      strings.TrimSpace(page),
		Details:   details,
		CreatedAt: s.clock.Now(),
	}
	if entry.Action == "" {
		observability.AuditDropped().WithLabelValues("invalid").Inc()
		s.logger.Error().Str("user_email", maskEmail(entry.UserEmail)).Msg("activity log entry without action dropped")
		return
	}

	err := s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: activityJobType, Payload: entry})
	if err == nil {
		observability.AuditQueued().Inc()
		return
	}

	reason := "error"
	switch {
	case errors.Is(err, jobs.ErrQueueFull):
		reason = "full"
	case errors.Is(err, jobs.ErrQueueStopped):
		reason = "stopped"
	}
	observability.AuditDropped().WithLabelValues(reason).Inc()
	s.logger.Error().
		Err(err).
		Str("user_email", maskEmail(entry.UserEmail)).
		Str("action", entry.Action).
		Msg("failed to queue activity log entry")
}

func (s *activityService) handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(models.ActivityLog)
	if !ok {
		return fmt.Errorf("unexpected payload %T", job.Payload)
	}
	_, err := s.persist(ctx, entry)
	return err
}

func (s *activityService) Record(ctx context.Context, entry models.ActivityLog) (dto.ActivityLogResponse, error) {
	entry.Action = strings.ToUpper(strings.TrimSpace(entry.Action))
	entry.UserEmail = strings.ToLower(strings.TrimSpace(entry.UserEmail))
	if entry.Action == "" {
		return dto.ActivityLogResponse{}, validationError("action is required")
	}
	if entry.UserEmail == "" {
		return dto.ActivityLogResponse{}, validationError("user email is required")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.clock.Now()
	}

	return s.persist(ctx, entry)
}

func (s *activityService) persist(ctx context.Context, entry models.ActivityLog) (dto.ActivityLogResponse, error) {
	if err := s.repo.Create(ctx, &entry); err != nil {
		return dto.ActivityLogResponse{}, err
	}

	response := dto.NewActivityLogResponse(entry)
	s.publish(response)
	return response, nil
}

func (s *activityService) publish(entry dto.ActivityLogResponse) {
	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode activity event")
		return
	}
	if err := s.publisher.Publish(s.subject, payload); err != nil {
		s.logger.Warn().Err(err).Str("subject", s.subject).Msg("failed to publish activity event")
	}
}

func (s *activityService) List(ctx context.Context, req dto.ActivityListRequest) (dto.ActivityListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ActivityListResponse{}, err
	}

	filter := repository.ActivityLogFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
		Email:    strings.TrimSpace(req.Email),
		Action:   strings.TrimSpace(req.Action),
		From:     req.From,
		To:       req.To,
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && !filter.To.After(filter.From) {
		return dto.ActivityListResponse{}, validationError("to must be after from")
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.ActivityListResponse{}, err
	}

	responses := make([]dto.ActivityLogResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.NewActivityLogResponse(entry))
	}

	pagination := dto.PaginationMeta{
		Page:       maxInt(req.Page, 1),
		PageSize:   req.PageSize,
		TotalItems: total,
	}
	if req.PageSize > 0 {
		pagination.TotalPages = int(math.Ceil(float64(total) / float64(req.PageSize)))
	} else {
		pagination.TotalPages = 1
	}

	return dto.ActivityListResponse{Items: responses, Pagination: pagination}, nil
}

func (s *activityService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// maskEmail keeps the first and last letter of the local part for operator logs.
func maskEmail(email string) string {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return ""
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return "***"
	}
	if len(local) <= 2 {
		return local[:1] + "***@" + domain
	}
	return local[:1] + "***" + local[len(local)-1:] + "@" + domain
}
