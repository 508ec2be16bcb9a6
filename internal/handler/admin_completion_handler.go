package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/occ-console-api/internal/dto"
	"github.com/noah-isme/occ-console-api/internal/middleware"
	"github.com/noah-isme/occ-console-api/internal/service"
	"github.com/noah-isme/occ-console-api/internal/utils"
)

// AdminCompletionHandler exposes the checklist completion history.
type AdminCompletionHandler struct {
	service service.CompletionService
	logger  zerolog.Logger
}

// NewAdminCompletionHandler constructs the handler.
func NewAdminCompletionHandler(service service.CompletionService, logger zerolog.Logger) *AdminCompletionHandler {
	return &AdminCompletionHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_completion_handler").Logger(),
	}
}

// Register attaches completion routes.
func (h *AdminCompletionHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Delete("/:id", middleware.RequireConfirmed(), h.delete)
}

func (h *AdminCompletionHandler) list(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	req := dto.CompletionListRequest{Activity: c.Query("activity"), Limit: limit}
	records, err := h.service.List(c.UserContext(), actorFromContext(c), req)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to list completions")
	}
	return utils.SendSuccess(c, "completions", records)
}

func (h *AdminCompletionHandler) delete(c *fiber.Ctx) error {
	id, ok := parseParamUint(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid completion id")
	}

	if err := h.service.Delete(c.UserContext(), actorFromContext(c), id); err != nil {
		return sendServiceError(c, h.logger, err, "failed to delete completion")
	}
	return utils.SendSuccess(c, "completion deleted", nil)
}
