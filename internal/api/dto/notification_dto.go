package dto

import (
	"time"

	"github.com/spec-kit/personnel-service/internal/domain"
)

// NotificationResponse is the public shape of an inbox record. Metadata
// arrives pre-scrubbed from the service; credential blocks are only
// reachable through the view endpoint.
type NotificationResponse struct {
	ID        string                  `json:"id"`
	SenderID  *string                 `json:"sender_id,omitempty"`
	Type      domain.NotificationType `json:"type"`
	Subject   string                  `json:"subject"`
	Message   string                  `json:"message"`
	Metadata  map[string]any          `json:"metadata,omitempty"`
	ViewCount int                     `json:"view_count"`
	MaxViews  int                     `json:"max_views"`
	IsRead    bool                    `json:"is_read"`
	SentAt    time.Time               `json:"sent_at"`
}

// NewNotificationResponse maps a domain notification.
func NewNotificationResponse(notification *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        notification.ID,
		SenderID:  notification.SenderID,
		Type:      notification.Type,
		Subject:   notification.Subject,
		Message:   notification.Message,
		Metadata:  notification.Metadata,
		ViewCount: notification.ViewCount,
		MaxViews:  notification.MaxViews,
		IsRead:    notification.IsRead,
		SentAt:    notification.SentAt,
	}
}

// ActivityEntryResponse is the public shape of an audit entry.
type ActivityEntryResponse struct {
	ID         string                `json:"id"`
	UserID     string                `json:"user_id"`
	Action     domain.ActivityAction `json:"action"`
	EntityType *string               `json:"entity_type,omitempty"`
	EntityID   *string               `json:"entity_id,omitempty"`
	Metadata   map[string]any        `json:"metadata,omitempty"`
	IPAddress  *string               `json:"ip_address,omitempty"`
	UserAgent  *string               `json:"user_agent,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// NewActivityEntryResponse maps a domain audit entry.
func NewActivityEntryResponse(entry *domain.ActivityLogEntry) ActivityEntryResponse {
	return ActivityEntryResponse{
		ID:         entry.ID,
		UserID:     entry.UserID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   entry.Metadata,
		IPAddress:  entry.IPAddress,
		UserAgent:  entry.UserAgent,
		Timestamp:  entry.Timestamp,
	}
}
