package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/personnel-service/internal/api/dto"
	"github.com/spec-kit/personnel-service/internal/auth"
	"github.com/spec-kit/personnel-service/internal/service"
	apperrors "github.com/spec-kit/personnel-service/pkg/util/errorutil"
)

// NotificationsHandler exposes the recipient-facing notification endpoints.
type NotificationsHandler struct {
	notifications *service.NotificationService
}

// NewNotificationsHandler constructs the handler.
func NewNotificationsHandler(notifications *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications}
}

// List handles GET /notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	unreadOnly := c.QueryBool("unread_only", false)
	limit := parseIntQuery(c, "limit", 50)
	offset := parseIntQuery(c, "offset", 0)

	notices, err := h.notifications.List(c.UserContext(), principal.Identity.ID, unreadOnly, limit, offset)
	if err != nil {
		return err
	}

	responses := make([]dto.NotificationResponse, len(notices))
	for i := range notices {
		responses[i] = dto.NewNotificationResponse(&notices[i])
	}
	return c.JSON(fiber.Map{"data": responses})
}

// UnreadCount handles GET /notifications/unread-count.
func (h *NotificationsHandler) UnreadCount(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	count, err := h.notifications.UnreadCount(c.UserContext(), principal.Identity.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"unread_count": count}})
}

// ViewStatus handles GET /notifications/:id/credentials/status.
func (h *NotificationsHandler) ViewStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	status, err := h.notifications.GetViewStatus(c.UserContext(), c.Params("id"), principal.Identity.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": status})
}

// ViewCredentials handles POST /notifications/:id/credentials/view.
// Each successful call consumes one view.
func (h *NotificationsHandler) ViewCredentials(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	view, err := h.notifications.ViewCredentials(c.UserContext(), c.Params("id"), principal.Identity.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": view})
}

// MarkRead handles POST /notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.notifications.MarkRead(c.UserContext(), c.Params("id"), principal.Identity.ID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// MarkAllRead handles POST /notifications/read-all.
func (h *NotificationsHandler) MarkAllRead(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	updated, err := h.notifications.MarkAllRead(c.UserContext(), principal.Identity.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"updated": updated}})
}
