package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/occ-console-api/internal/auth"
	"github.com/noah-isme/occ-console-api/internal/dto"
	"github.com/noah-isme/occ-console-api/internal/models"
	"github.com/noah-isme/occ-console-api/internal/repository"
	"github.com/noah-isme/occ-console-api/pkg/clock"
)

const (
	maxIdeaLength     = 2000
	ideaPreviewLength = 50
)

// IdeaService manages the shared idea board.
type IdeaService interface {
	List(ctx context.Context, actor Actor) ([]dto.IdeaResponse, error)
	Submit(ctx context.Context, actor Actor, req dto.IdeaCreateRequest) (dto.IdeaResponse, error)
	Vote(ctx context.Context, actor Actor, id string) (dto.IdeaResponse, error)
	Delete(ctx context.Context, actor Actor, id string) error
}

type ideaService struct {
	store     repository.IdeaStore
	audit     auth.ActivityLogger
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	clock     clock.Clock
	logger    zerolog.Logger
}

// NewIdeaService constructs the idea board service.
func NewIdeaService(store repository.IdeaStore, audit auth.ActivityLogger, validate *validator.Validate, clk clock.Clock, logger zerolog.Logger) IdeaService {
	if clk == nil {
		clk = clock.New()
	}
	return &ideaService{
		store:     store,
		audit:     audit,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		clock:     clk,
		logger:    logger.With().Str("component", "idea_service").Logger(),
	}
}

func (s *ideaService) List(ctx context.Context, actor Actor) ([]dto.IdeaResponse, error) {
	ideas, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(ideas, func(i, j int) bool {
		return ideas[i].CreatedAt.After(ideas[j].CreatedAt)
	})

	responses := make([]dto.IdeaResponse, 0, len(ideas))
	for _, idea := range ideas {
		responses = append(responses, newIdeaResponse(idea, actor))
	}
	return responses, nil
}

func (s *ideaService) Submit(ctx context.Context, actor Actor, req dto.IdeaCreateRequest) (dto.IdeaResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.IdeaResponse{}, err
	}

	text := strings.TrimSpace(s.sanitizer.Sanitize(req.Text))
	if text == "" {
		return dto.IdeaResponse{}, validationError("idea text is required")
	}
	if utf8.RuneCountInString(text) > maxIdeaLength {
		return dto.IdeaResponse{}, validationError("idea text must be at most %d characters", maxIdeaLength)
	}

	author := actor.Name
	if author == "" {
		author = actor.Email
	}
	idea := models.Idea{
		ID:          uuid.NewString(),
		Text:        text,
		Author:      author,
		AuthorEmail: actor.Email,
		CreatedAt:   s.clock.Now(),
		VotedBy:     []string{},
	}

	err := s.store.Update(ctx, func(ideas []models.Idea) ([]models.Idea, error) {
		return append([]models.Idea{idea}, ideas...), nil
	})
	if err != nil {
		return dto.IdeaResponse{}, err
	}

	s.audit.LogActivity(ctx, actor.UserID, actor.Email, models.ActionSubmitIdea, "",
		fmt.Sprintf("Submitted idea: %s", preview(idea.Text)))
	return newIdeaResponse(idea, actor), nil
}

// Vote toggles the caller's vote on an idea.
func (s *ideaService) Vote(ctx context.Context, actor Actor, id string) (dto.IdeaResponse, error) {
	var updated models.Idea
	err := s.store.Update(ctx, func(ideas []models.Idea) ([]models.Idea, error) {
		for i := range ideas {
			if ideas[i].ID != id {
				continue
			}
			if ideas[i].HasVoted(actor.Email) {
				ideas[i].VotedBy = removeString(ideas[i].VotedBy, actor.Email)
			} else {
				ideas[i].VotedBy = append(ideas[i].VotedBy, actor.Email)
			}
			updated = ideas[i]
			return ideas, nil
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return dto.IdeaResponse{}, err
	}
	return newIdeaResponse(updated, actor), nil
}

// Delete removes an idea. Only its author or an ADMIN may do so.
func (s *ideaService) Delete(ctx context.Context, actor Actor, id string) error {
	var removed models.Idea
	err := s.store.Update(ctx, func(ideas []models.Idea) ([]models.Idea, error) {
		for i := range ideas {
			if ideas[i].ID != id {
				continue
			}
			if !canDeleteIdea(ideas[i], actor) {
				return nil, ErrForbidden
			}
			removed = ideas[i]
			return append(ideas[:i], ideas[i+1:]...), nil
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return err
	}

	s.audit.LogActivity(ctx, actor.UserID, actor.Email, models.ActionDeleteIdea, "",
		fmt.Sprintf("Deleted idea: %s", preview(removed.Text)))
	return nil
}

func canDeleteIdea(idea models.Idea, actor Actor) bool {
	if actor.Email != "" && strings.EqualFold(idea.AuthorEmail, actor.Email) {
		return true
	}
	return auth.HasPermission(actor.Profile(), models.RoleAdmin)
}

func newIdeaResponse(idea models.Idea, actor Actor) dto.IdeaResponse {
	return dto.IdeaResponse{
		ID:        idea.ID,
		Text:      idea.Text,
		Author:    idea.Author,
		CreatedAt: idea.CreatedAt,
		Votes:     idea.Votes(),
		Voted:     idea.HasVoted(actor.Email),
		CanDelete: canDeleteIdea(idea, actor),
	}
}

func removeString(values []string, target string) []string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		if value != target {
			result = append(result, value)
		}
	}
	return result
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= ideaPreviewLength {
		return text
	}
	return string(runes[:ideaPreviewLength]) + "..."
}
