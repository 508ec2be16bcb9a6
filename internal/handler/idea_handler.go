package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/occ-console-api/internal/dto"
	"github.com/noah-isme/occ-console-api/internal/service"
	"github.com/noah-isme/occ-console-api/internal/utils"
)

// IdeaHandler serves the shared idea board.
type IdeaHandler struct {
	service service.IdeaService
	logger  zerolog.Logger
}

// NewIdeaHandler constructs the handler.
func NewIdeaHandler(service service.IdeaService, logger zerolog.Logger) *IdeaHandler {
	return &IdeaHandler{
		service: service,
		logger:  logger.With().Str("component", "idea_handler").Logger(),
	}
}

// Register attaches idea routes.
func (h *IdeaHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.submit)
	router.Post("/:id/vote", h.vote)
	router.Delete("/:id", h.delete)
}

func (h *IdeaHandler) list(c *fiber.Ctx) error {
	ideas, err := h.service.List(c.UserContext(), actorFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load ideas")
	}
	return utils.SendSuccess(c, "ideas", ideas)
}

func (h *IdeaHandler) submit(c *fiber.Ctx) error {
	var payload dto.IdeaCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	idea, err := h.service.Submit(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to submit idea")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "idea submitted", idea)
}

func (h *IdeaHandler) vote(c *fiber.Ctx) error {
	idea, err := h.service.Vote(c.UserContext(), actorFromContext(c), c.Params("id"))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to vote")
	}
	return utils.SendSuccess(c, "vote updated", idea)
}

func (h *IdeaHandler) delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), actorFromContext(c), c.Params("id")); err != nil {
		return sendServiceError(c, h.logger, err, "failed to delete idea")
	}
	return utils.SendSuccess(c, "idea deleted", nil)
}
