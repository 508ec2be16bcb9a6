package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/occ-console-api/internal/dto"
	"github.com/noah-isme/occ-console-api/internal/service"
	"github.com/noah-isme/occ-console-api/internal/utils"
)

// DistanceHandler serves the distance calculator.
type DistanceHandler struct {
	service service.DistanceService
	logger  zerolog.Logger
}

// NewDistanceHandler constructs the handler.
func NewDistanceHandler(service service.DistanceService, logger zerolog.Logger) *DistanceHandler {
	return &DistanceHandler{
		service: service,
		logger:  logger.With().Str("component", "distance_handler").Logger(),
	}
}

// Register attaches distance routes.
func (h *DistanceHandler) Register(router fiber.Router) {
	router.Get("/origins", h.origins)
	router.Post("", h.distance)
}

func (h *DistanceHandler) origins(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "origins", h.service.Origins())
}

func (h *DistanceHandler) distance(c *fiber.Ctx) error {
	var payload dto.DistanceRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.Distance(c.UserContext(), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to calculate distance")
	}
	return utils.SendSuccess(c, "distance", result)
}
