package domain

import "time"

// Role enumerates the staff hierarchy plus technical superusers.
type Role string

const (
	RoleDirector          Role = "DIRECTOR"
	RoleManager           Role = "MANAGER"
	RoleGeneralSupervisor Role = "GENERAL_SUPERVISOR"
	RoleSupervisor        Role = "SUPERVISOR"
	RoleOperator          Role = "OPERATOR"
	RoleSecretary         Role = "SECRETARY"
	RoleAdmin             Role = "ADMIN"
	RoleDeveloper         Role = "DEVELOPER"
)

// IdentityStatus represents lifecycle states for a staff account.
type IdentityStatus string

const (
	IdentityStatusPending   IdentityStatus = "PENDING"
	IdentityStatusActive    IdentityStatus = "ACTIVE"
	IdentityStatusInactive  IdentityStatus = "INACTIVE"
	IdentityStatusSuspended IdentityStatus = "SUSPENDED"
)

// Identity is the canonical staff account record. Status moves
// PENDING->ACTIVE on approval and ACTIVE->{INACTIVE,SUSPENDED} on
// rejection or admin action, never backwards automatically.
type Identity struct {
	ID           string
	Email        string
	Phone        string
	PasswordHash string
	Role         Role
	Status       IdentityStatus
	EmployeeID   string
	CreatedByID  *string
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CanLogin reports whether the account is in a loginable state.
func (i *Identity) CanLogin() bool {
	return i.Status == IdentityStatusActive
}
