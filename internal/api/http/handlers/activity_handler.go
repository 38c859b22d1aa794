package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/personnel-service/internal/api/dto"
	"github.com/spec-kit/personnel-service/internal/auth"
	"github.com/spec-kit/personnel-service/internal/domain"
	"github.com/spec-kit/personnel-service/internal/repository"
	"github.com/spec-kit/personnel-service/internal/service"
	apperrors "github.com/spec-kit/personnel-service/pkg/util/errorutil"
)

// ActivityHandler exposes read access to the audit log.
type ActivityHandler struct {
	activities *service.ActivityService
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(activities *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activities: activities}
}

// Recent handles GET /activity/recent.
func (h *ActivityHandler) Recent(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	entries, err := h.activities.Recent(c.UserContext(), parseIntQuery(c, "limit", 20))
	if err != nil {
		return err
	}

	responses := make([]dto.ActivityEntryResponse, len(entries))
	for i := range entries {
		responses[i] = dto.NewActivityEntryResponse(&entries[i])
	}
	return c.JSON(fiber.Map{"data": responses})
}

// List handles GET /activity with pagination and filters.
func (h *ActivityHandler) List(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	page := parseIntQuery(c, "page", 1)
	limit := parseIntQuery(c, "limit", 20)

	var filter repository.ActivityFilter
	if raw := c.Query("user_id"); raw != "" {
		filter.UserID = &raw
	}
	if raw := c.Query("action"); raw != "" {
		action := domain.ActivityAction(raw)
		filter.Action = &action
	}
	if raw := c.Query("entity_type"); raw != "" {
		filter.EntityType = &raw
	}
	if raw := c.Query("from"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.From = &parsed
		}
	}
	if raw := c.Query("to"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.To = &parsed
		}
	}

	entries, total, err := h.activities.Paginated(c.UserContext(), page, limit, filter)
	if err != nil {
		return err
	}

	responses := make([]dto.ActivityEntryResponse, len(entries))
	for i := range entries {
		responses[i] = dto.NewActivityEntryResponse(&entries[i])
	}
	return c.JSON(fiber.Map{
		"data": responses,
		"meta": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}
