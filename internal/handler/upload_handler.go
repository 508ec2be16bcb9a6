package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/occ-console-api/internal/middleware"
	"github.com/noah-isme/occ-console-api/internal/models"
	"github.com/noah-isme/occ-console-api/internal/service"
	"github.com/noah-isme/occ-console-api/internal/utils"
)

// UploadHandler serves the reference file buckets.
type UploadHandler struct {
	service service.UploadService
	logger  zerolog.Logger
}

// NewUploadHandler constructs an upload handler.
func NewUploadHandler(service service.UploadService, logger zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		service: service,
		logger:  logger.With().Str("component", "upload_handler").Logger(),
	}
}

// Register wires file routes. Writes require GAMEMASTER or above.
func (h *UploadHandler) Register(router fiber.Router) {
	writer := middleware.AuthOptions{Roles: []models.Role{models.RoleGamemaster}}

	router.Get("/:bucket", h.list)
	router.Post("/:bucket", middleware.WithAuth(h.upload, writer))
	router.Delete("/:bucket/:name", middleware.WithAuth(h.delete, writer))
}

func (h *UploadHandler) list(c *fiber.Ctx) error {
	files, err := h.service.List(c.UserContext(), c.Params("bucket"))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to list files")
	}
	return utils.SendSuccess(c, "files", files)
}

func (h *UploadHandler) upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	result, err := h.service.Upload(c.UserContext(), actorFromContext(c), c.Params("bucket"), file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUploadTooLarge):
			return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
		case errors.Is(err, service.ErrUploadTypeNotAllowed), errors.Is(err, service.ErrUploadScanFailed):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			return sendServiceError(c, h.logger, err, "upload failed")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "upload successful", result)
}

func (h *UploadHandler) delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), actorFromContext(c), c.Params("bucket"), c.Params("name")); err != nil {
		return sendServiceError(c, h.logger, err, "failed to delete file")
	}
	return utils.SendSuccess(c, "file deleted", nil)
}
