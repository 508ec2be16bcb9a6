package handler

import (
	"context"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/occ-console-api/internal/checklist"
	"github.com/noah-isme/occ-console-api/internal/dto"
	"github.com/noah-isme/occ-console-api/internal/middleware"
	"github.com/noah-isme/occ-console-api/internal/service"
	"github.com/noah-isme/occ-console-api/internal/utils"
)

// ChecklistHandler serves checklist runs for the signed-in user.
type ChecklistHandler struct {
	service   service.ChecklistService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewChecklistHandler constructs the handler.
func NewChecklistHandler(service service.ChecklistService, validate *validator.Validate, logger zerolog.Logger) *ChecklistHandler {
	return &ChecklistHandler{
		service:   service,
		validator: validate,
		logger:    logger.With().Str("component", "checklist_handler").Logger(),
	}
}

// Register attaches checklist run routes.
func (h *ChecklistHandler) Register(router fiber.Router) {
	router.Get("/:activity/:listType", h.view)
	router.Post("/:activity/:listType/items/:itemId/toggle", h.toggle)
	router.Post("/:activity/:listType/sections/:index/check", h.sectionOp(h.service.CheckSection, "section checked"))
	router.Post("/:activity/:listType/sections/:index/uncheck", h.sectionOp(h.service.UncheckSection, "section unchecked"))
	router.Post("/:activity/:listType/sections/:index/reset", h.sectionOp(h.service.ResetSection, "section reset"))
	router.Post("/:activity/:listType/reset", h.resetAll)
	router.Post("/:activity/:listType/navigate", h.navigate)
	router.Post("/:activity/:listType/complete", h.complete)
}

// RegisterAdmin attaches the definition editor routes.
func (h *ChecklistHandler) RegisterAdmin(router fiber.Router) {
	router.Put("/:activity/:listType", middleware.RequireConfirmed(), h.saveDefinition)
}

func (h *ChecklistHandler) view(c *fiber.Ctx) error {
	key, ok := checklistKeyFromParams(c)
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid checklist")
	}

	view, err := h.service.View(c.UserContext(), key, actorFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load checklist")
	}
	return utils.SendSuccess(c, "checklist", view)
}

func (h *ChecklistHandler) toggle(c *fiber.Ctx) error {
	key, ok := checklistKeyFromParams(c)
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid checklist")
	}

	view, err := h.service.Toggle(c.UserContext(), key, actorFromContext(c), c.Params("itemId"))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to toggle item")
	}
	return utils.SendSuccess(c, "item toggled", view)
}

type sectionOperation func(ctx context.Context, key checklist.Key, actor service.Actor, index int) (dto.ChecklistViewResponse, error)

func (h *ChecklistHandler) sectionOp(op sectionOperation, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, ok := checklistKeyFromParams(c)
		if !ok {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid checklist")
		}
		index, err := strconv.Atoi(c.Params("index"))
		if err != nil || index < 0 {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid section index")
		}

		view, err := op(c.UserContext(), key, actorFromContext(c), index)
		if err != nil {
			return sendServiceError(c, h.logger, err, "failed to update section")
		}
		return utils.SendSuccess(c, message, view)
	}
}

func (h *ChecklistHandler) resetAll(c *fiber.Ctx) error {
	key, ok := checklistKeyFromParams(c)
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid checklist")
	}

	view, err := h.service.ResetAll(c.UserContext(), key, actorFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to reset checklist")
	}
	return utils.SendSuccess(c, "checklist reset", view)
}

func (h *ChecklistHandler) navigate(c *fiber.Ctx) error {
	key, ok := checklistKeyFromParams(c)
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid checklist")
	}

	var payload dto.NavigateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	view, err := h.service.Navigate(c.UserContext(), key, actorFromContext(c), payload.Index)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to change section")
	}
	return utils.SendSuccess(c, "section changed", view)
}

func (h *ChecklistHandler) complete(c *fiber.Ctx) error {
	key, ok := checklistKeyFromParams(c)
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid checklist")
	}

	record, err := h.service.Complete(c.UserContext(), key, actorFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to record completion, please try again")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "checklist completed", record)
}

func (h *ChecklistHandler) saveDefinition(c *fiber.Ctx) error {
	key, ok := checklistKeyFromParams(c)
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid checklist")
	}

	var payload dto.PackingListUpsertRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	view, err := h.service.SaveDefinition(c.UserContext(), key, actorFromContext(c), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to save checklist")
	}
	return utils.SendSuccess(c, "checklist saved", view)
}
