package domain

import "time"

// ActivityAction enumerates audited actions.
type ActivityAction string

const (
	ActivityLogin             ActivityAction = "LOGIN"
	ActivityStaffRegistered   ActivityAction = "STAFF_REGISTERED"
	ActivityStaffApproved     ActivityAction = "STAFF_APPROVED"
	ActivityStaffRejected     ActivityAction = "STAFF_REJECTED"
	ActivityCredentialsViewed ActivityAction = "CREDENTIALS_VIEWED"
)

// ActivityLogEntry is an append-only audit record. Writers treat failures as
// non-fatal; there are no updates or deletes.
type ActivityLogEntry struct {
	ID         string
	UserID     string
	Action     ActivityAction
	EntityType *string
	EntityID   *string
	Metadata   map[string]any
	IPAddress  *string
	UserAgent  *string
	Timestamp  time.Time
}
