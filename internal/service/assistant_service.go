package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/occ-console-api/internal/dto"
	"github.com/noah-isme/occ-console-api/pkg/ai"
)

const defaultAssistantPrompt = "You are the OCC operations assistant. Answer briefly and practically. " +
	"Reply in the language the user writes in."

// AssistantService continues a chat conversation with the configured model.
type AssistantService interface {
	Reply(ctx context.Context, actor Actor, req dto.AssistantRequest) (dto.AssistantResponse, error)
}

type assistantService struct {
	completer    ai.ChatCompleter
	validator    *validator.Validate
	systemPrompt string
	logger       zerolog.Logger
}

// NewAssistantService constructs the assistant service. A nil completer makes
// every reply fail with ErrUpstream.
func NewAssistantService(completer ai.ChatCompleter, validate *validator.Validate, systemPrompt string, logger zerolog.Logger) AssistantService {
	if systemPrompt == "" {
		systemPrompt = defaultAssistantPrompt
	}
	return &assistantService{
		completer:    completer,
		validator:    validate,
		systemPrompt: systemPrompt,
		logger:       logger.With().Str("component", "assistant_service").Logger(),
	}
}

func (s *assistantService) Reply(ctx context.Context, actor Actor, req dto.AssistantRequest) (dto.AssistantResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AssistantResponse{}, err
	}
	if last := req.Messages[len(req.Messages)-1]; last.Role != ai.RoleUser {
		return dto.AssistantResponse{}, validationError("last message must come from the user")
	}
	if s.completer == nil {
		return dto.AssistantResponse{}, fmt.Errorf("%w: assistant is not configured", ErrUpstream)
	}

	completion, err := s.completer.Complete(ctx, s.systemPrompt, req.Messages)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", actor.UserID).Int("turns", len(req.Messages)).Msg("assistant completion failed")
		return dto.AssistantResponse{}, fmt.Errorf("%w: the assistant could not answer right now, please try again", ErrUpstream)
	}

	s.logger.Debug().
		Str("user_id", actor.UserID).
		Str("model", completion.Model).
		Int("prompt_tokens", completion.PromptTokens).
		Int("completion_tokens", completion.CompletionTokens).
		Msg("assistant replied")

	return dto.AssistantResponse{
		Message: ai.Message{Role: ai.RoleAssistant, Content: completion.Content},
		Model:   completion.Model,
	}, nil
}
