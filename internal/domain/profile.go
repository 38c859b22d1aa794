package domain

import "time"

// ProfileType identifies which role-specific extension a profile carries.
type ProfileType string

const (
	ProfileTypeGeneralSupervisor ProfileType = "GENERAL_SUPERVISOR"
	ProfileTypeSupervisor        ProfileType = "SUPERVISOR"
	ProfileTypeOperator          ProfileType = "OPERATOR"
	ProfileTypeSecretary         ProfileType = "SECRETARY"
)

// RoleForProfileType maps a profile type to the Role its identity carries.
func RoleForProfileType(t ProfileType) Role {
	switch t {
	case ProfileTypeGeneralSupervisor:
		return RoleGeneralSupervisor
	case ProfileTypeSupervisor:
		return RoleSupervisor
	case ProfileTypeOperator:
		return RoleOperator
	case ProfileTypeSecretary:
		return RoleSecretary
	}
	return ""
}

// ApprovalStatus tracks the single PENDING -> terminal transition of a profile.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

// RoleProfile is the role-specific extension attached 1:1 to an Identity.
//
// RawPassword is the transient plaintext temporary password. It is set
// exactly once at creation and cleared exactly once at resolution; it is
// non-nil if and only if ApprovalStatus is PENDING.
//
// GeneralSupervisorID is only ever set on SUPERVISOR profiles and points at
// the parent GENERAL_SUPERVISOR profile. SupervisorID is only ever set on
// OPERATOR profiles registered by a supervisor and points at that
// supervisor's profile. Neither is ever set on a GENERAL_SUPERVISOR profile,
// so the hierarchy is at most one level deep by construction.
type RoleProfile struct {
	ID                  string
	UserID              string
	EmployeeID          string
	FullName            string
	Type                ProfileType
	GeneralSupervisorID *string
	SupervisorID        *string
	ApprovalStatus      ApprovalStatus
	RawPassword         *string
	ApprovedByID        *string
	ApprovedAt          *time.Time
	RejectionReason     *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsResolved reports whether the profile has left PENDING.
func (p *RoleProfile) IsResolved() bool {
	return p.ApprovalStatus != ApprovalStatusPending
}
