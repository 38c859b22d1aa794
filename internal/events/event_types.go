package events

import (
	"time"

	"github.com/spec-kit/personnel-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventStaffRegistered   EventType = "staff_registered"
	EventStaffApproved     EventType = "staff_approved"
	EventStaffRejected     EventType = "staff_rejected"
	EventCredentialsViewed EventType = "credentials_viewed"
	EventStaffLogin        EventType = "staff_login"
)

// Event represents a domain event emitted by services. Handling an event is
// a non-critical side effect: handler failures are logged and never affect
// the operation that published it.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"`
	IPAddress string      `json:"ip_address,omitempty"`
	UserAgent string      `json:"user_agent,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// StaffRegisteredPayload payload.
type StaffRegisteredPayload struct {
	ProfileID   string             `json:"profile_id"`
	IdentityID  string             `json:"identity_id"`
	EmployeeID  string             `json:"employee_id"`
	FullName    string             `json:"full_name"`
	ProfileType domain.ProfileType `json:"profile_type"`
	RegistrarID string             `json:"registrar_id"`
	Gated       bool               `json:"gated"`
}

// StaffApprovedPayload payload. Credentials ride the event exactly once, on
// their way into the bounded-disclosure notification.
type StaffApprovedPayload struct {
	ProfileID   string                   `json:"profile_id"`
	IdentityID  string                   `json:"identity_id"`
	FullName    string                   `json:"full_name"`
	ProfileType domain.ProfileType       `json:"profile_type"`
	RecipientID string                   `json:"recipient_id"`
	Credentials domain.CredentialPayload `json:"credentials"`
	MaxViews    int                      `json:"max_views"`
}

// StaffRejectedPayload payload.
type StaffRejectedPayload struct {
	ProfileID   string             `json:"profile_id"`
	IdentityID  string             `json:"identity_id"`
	FullName    string             `json:"full_name"`
	ProfileType domain.ProfileType `json:"profile_type"`
	RecipientID string             `json:"recipient_id"`
	Reason      string             `json:"reason"`
}

// CredentialsViewedPayload payload.
type CredentialsViewedPayload struct {
	NotificationID string `json:"notification_id"`
	ViewCount      int    `json:"view_count"`
	RemainingViews int    `json:"remaining_views"`
}

// StaffLoginPayload payload.
type StaffLoginPayload struct {
	IdentityID string      `json:"identity_id"`
	Email      string      `json:"email"`
	Role       domain.Role `json:"role"`
}
