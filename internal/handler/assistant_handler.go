package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/occ-console-api/internal/dto"
	"github.com/noah-isme/occ-console-api/internal/service"
	"github.com/noah-isme/occ-console-api/internal/utils"
)

// AssistantHandler relays conversations to the chat assistant.
type AssistantHandler struct {
	service service.AssistantService
	logger  zerolog.Logger
}

// NewAssistantHandler constructs the handler.
func NewAssistantHandler(service service.AssistantService, logger zerolog.Logger) *AssistantHandler {
	return &AssistantHandler{
		service: service,
		logger:  logger.With().Str("component", "assistant_handler").Logger(),
	}
}

// Register attaches assistant routes.
func (h *AssistantHandler) Register(router fiber.Router) {
	router.Post("/messages", h.reply)
}

func (h *AssistantHandler) reply(c *fiber.Ctx) error {
	var payload dto.AssistantRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Reply(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "assistant unavailable")
	}
	return utils.SendSuccess(c, "assistant reply", response)
}
