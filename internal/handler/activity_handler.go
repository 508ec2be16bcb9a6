package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/occ-console-api/internal/dto"
	"github.com/noah-isme/occ-console-api/internal/models"
	"github.com/noah-isme/occ-console-api/internal/service"
	"github.com/noah-isme/occ-console-api/internal/utils"
)

// ActivityHandler accepts page visits and actions reported by the console UI.
type ActivityHandler struct {
	service   service.ActivityService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(service service.ActivityService, validate *validator.Validate, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service:   service,
		validator: validate,
		logger:    logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches tracking routes.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Post("/page-visits", h.pageVisit)
	router.Post("/actions", h.action)
}

func (h *ActivityHandler) pageVisit(c *fiber.Ctx) error {
	var payload dto.PageVisitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	actor := actorFromContext(c)
	h.service.LogActivity(c.UserContext(), actor.UserID, actor.Email, models.ActionPageVisit, payload.Page, "Visited "+payload.Page)
	return utils.SendSuccessWithStatus(c, fiber.StatusAccepted, "page visit recorded", nil)
}

func (h *ActivityHandler) action(c *fiber.Ctx) error {
	var payload dto.ActivityActionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	actor := actorFromContext(c)
	h.service.LogActivity(c.UserContext(), actor.UserID, actor.Email, payload.Action, payload.Page, payload.Details)
	return utils.SendSuccessWithStatus(c, fiber.StatusAccepted, "action recorded", nil)
}
