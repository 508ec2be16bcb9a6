package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/occ-console-api/internal/dto"
	"github.com/noah-isme/occ-console-api/internal/middleware"
	"github.com/noah-isme/occ-console-api/internal/service"
	"github.com/noah-isme/occ-console-api/internal/utils"
)

const (
	defaultActivityPageSize = 50
	maxActivityPageSize     = 200
)

// AdminActivityHandler serves the audit log viewer.
type AdminActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewAdminActivityHandler constructs the handler.
func NewAdminActivityHandler(service service.ActivityService, logger zerolog.Logger) *AdminActivityHandler {
	return &AdminActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_activity_handler").Logger(),
	}
}

// Register mounts the viewer. Deleting entries needs a confirmed session.
func (h *AdminActivityHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Delete("/:id", middleware.RequireConfirmed(), h.delete)
}

func (h *AdminActivityHandler) list(c *fiber.Ctx) error {
	req, message := activityListRequest(c)
	if message != "" {
		return utils.SendError(c, fiber.StatusBadRequest, message)
	}

	response, err := h.service.List(c.UserContext(), req)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to list activity logs")
	}
	return utils.SendSuccess(c, "activity logs", response)
}

func (h *AdminActivityHandler) delete(c *fiber.Ctx) error {
	id, ok := parseParamUint(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid activity id")
	}

	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return sendServiceError(c, h.logger, err, "failed to delete activity log")
	}
	return utils.SendSuccess(c, "activity log deleted", nil)
}

// activityListRequest reads paging and filters from the query string. A
// non-empty message means the query was malformed.
func activityListRequest(c *fiber.Ctx) (dto.ActivityListRequest, string) {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return dto.ActivityListRequest{}, "invalid page"
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return dto.ActivityListRequest{}, "invalid page size"
	}
	from, err := parseQueryTime(c, "from")
	if err != nil {
		return dto.ActivityListRequest{}, "from must be an RFC 3339 timestamp"
	}
	to, err := parseQueryTime(c, "to")
	if err != nil {
		return dto.ActivityListRequest{}, "to must be an RFC 3339 timestamp"
	}

	switch {
	case pageSize <= 0:
		pageSize = defaultActivityPageSize
	case pageSize > maxActivityPageSize:
		pageSize = maxActivityPageSize
	}

	return dto.ActivityListRequest{
		Page:     max(page, 1),
		PageSize: pageSize,
		Email:    c.Query("email"),
		Action:   c.Query("action"),
		From:     from,
		To:       to,
	}, ""
}

func parseQueryTime(c *fiber.Ctx, key string) (time.Time, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}
