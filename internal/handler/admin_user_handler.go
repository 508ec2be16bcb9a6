package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/occ-console-api/internal/dto"
	"github.com/noah-isme/occ-console-api/internal/middleware"
	"github.com/noah-isme/occ-console-api/internal/service"
	"github.com/noah-isme/occ-console-api/internal/utils"
)

// AdminUserHandler exposes account administration.
type AdminUserHandler struct {
	service service.UserService
	logger  zerolog.Logger
}

// NewAdminUserHandler constructs the handler.
func NewAdminUserHandler(service service.UserService, logger zerolog.Logger) *AdminUserHandler {
	return &AdminUserHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_user_handler").Logger(),
	}
}

// Register attaches user routes. Every write requires a confirmed session.
func (h *AdminUserHandler) Register(router fiber.Router) {
	confirmed := middleware.RequireConfirmed()

	router.Get("", h.list)
	router.Post("", confirmed, h.create)
	router.Patch("/:id/role", confirmed, h.updateRole)
	router.Patch("/:id/name", confirmed, h.updateName)
	router.Patch("/:id/password", confirmed, h.updatePassword)
	router.Delete("/:id", confirmed, h.delete)
}

func (h *AdminUserHandler) list(c *fiber.Ctx) error {
	users, err := h.service.List(c.UserContext(), actorFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to list users")
	}
	return utils.SendSuccess(c, "users", users)
}

func (h *AdminUserHandler) create(c *fiber.Ctx) error {
	var payload dto.UserCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	user, err := h.service.Create(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to create user")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "user created", user)
}

func (h *AdminUserHandler) updateRole(c *fiber.Ctx) error {
	var payload dto.UserRoleUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	user, err := h.service.UpdateRole(c.UserContext(), actorFromContext(c), c.Params("id"), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to update role")
	}
	return utils.SendSuccess(c, "role updated", user)
}

func (h *AdminUserHandler) updateName(c *fiber.Ctx) error {
	var payload dto.UserNameUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	user, err := h.service.UpdateName(c.UserContext(), actorFromContext(c), c.Params("id"), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to update name")
	}
	return utils.SendSuccess(c, "name updated", user)
}

func (h *AdminUserHandler) updatePassword(c *fiber.Ctx) error {
	var payload dto.UserPasswordUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	if err := h.service.UpdatePassword(c.UserContext(), actorFromContext(c), c.Params("id"), payload); err != nil {
		return sendServiceError(c, h.logger, err, "failed to update password")
	}
	return utils.SendSuccess(c, "password updated", nil)
}

func (h *AdminUserHandler) delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), actorFromContext(c), c.Params("id")); err != nil {
		return sendServiceError(c, h.logger, err, "failed to delete user")
	}
	return utils.SendSuccess(c, "user deleted", nil)
}
