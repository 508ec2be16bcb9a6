package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/occ-console-api/internal/auth"
	"github.com/noah-isme/occ-console-api/internal/dto"
	"github.com/noah-isme/occ-console-api/internal/models"
	"github.com/noah-isme/occ-console-api/internal/repository"
)

const defaultCompletionLimit = 100

// CompletionService exposes the completion history to administrators.
type CompletionService interface {
	List(ctx context.Context, actor Actor, req dto.CompletionListRequest) ([]models.CompletionRecord, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type completionService struct {
	repo      repository.CompletionRepository
	audit     auth.ActivityLogger
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCompletionService constructs the completion history service.
func NewCompletionService(repo repository.CompletionRepository, audit auth.ActivityLogger, validate *validator.Validate, logger zerolog.Logger) CompletionService {
	return &completionService{
		repo:      repo,
		audit:     audit,
		validator: validate,
		logger:    logger.With().Str("component", "completion_service").Logger(),
	}
}

func (s *completionService) List(ctx context.Context, actor Actor, req dto.CompletionListRequest) ([]models.CompletionRecord, error) {
	if !auth.HasPermission(actor.Profile(), models.RoleAdmin) {
		return nil, ErrForbidden
	}
	req.Activity = strings.ToLower(strings.TrimSpace(req.Activity))
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	if req.Limit == 0 {
		req.Limit = defaultCompletionLimit
	}

	records, err := s.repo.List(ctx, repository.CompletionFilter{Activity: req.Activity, Limit: req.Limit})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *completionService) Delete(ctx context.Context, actor Actor, id uint) error {
	if !auth.HasPermission(actor.Profile(), models.RoleAdmin) {
		return ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err)
	}

	s.audit.LogActivity(ctx, actor.UserID, actor.Email, models.ActionDeleteCompletion, "",
		fmt.Sprintf("Deleted completion record %d", id))
	return nil
}
