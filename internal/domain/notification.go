package domain

import "time"

// NotificationType enumerates inbox notice kinds.
type NotificationType string

const (
	NotificationStaffApprovalRequested NotificationType = "STAFF_APPROVAL_REQUESTED"
	NotificationStaffApproved          NotificationType = "STAFF_APPROVED"
	NotificationStaffRejected          NotificationType = "STAFF_REJECTED"
)

// DefaultCredentialMaxViews bounds how often a credential-bearing notice
// may be viewed unless configured otherwise.
const DefaultCredentialMaxViews = 3

// CredentialPayload is the secret block embedded in approval notices.
type CredentialPayload struct {
	EmployeeID        string `json:"employee_id"`
	Email             string `json:"email"`
	TemporaryPassword string `json:"temporary_password"`
}

// Notification is an internal inbox record. Credential-bearing notices keep
// their secret inside Metadata under the "credentials" key; the record is
// never deleted, but the read path refuses to return the secret once
// ViewCount reaches MaxViews.
type Notification struct {
	ID         string
	SenderID   *string
	ReceiverID string
	Type       NotificationType
	Subject    string
	Message    string
	Metadata   map[string]any
	ViewCount  int
	MaxViews   int
	IsRead     bool
	SentAt     time.Time
}

// Credentials extracts the embedded credential block, if any.
func (n *Notification) Credentials() *CredentialPayload {
	if n.Metadata == nil {
		return nil
	}
	raw, ok := n.Metadata["credentials"].(map[string]any)
	if !ok {
		return nil
	}
	creds := &CredentialPayload{}
	if v, ok := raw["employee_id"].(string); ok {
		creds.EmployeeID = v
	}
	if v, ok := raw["email"].(string); ok {
		creds.Email = v
	}
	if v, ok := raw["temporary_password"].(string); ok {
		creds.TemporaryPassword = v
	}
	return creds
}

// HasCredentials reports whether the notice embeds a credential block.
func (n *Notification) HasCredentials() bool {
	if n.Metadata == nil {
		return false
	}
	_, ok := n.Metadata["credentials"]
	return ok
}

// ViewsExhausted reports whether the bounded-disclosure limit is spent.
func (n *Notification) ViewsExhausted() bool {
	return n.ViewCount >= n.MaxViews
}
