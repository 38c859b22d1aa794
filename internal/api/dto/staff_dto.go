package dto

import (
	"time"

	"github.com/spec-kit/personnel-service/internal/domain"
	"github.com/spec-kit/personnel-service/internal/service"
)

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse wraps an issued token.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RegisterStaffRequest payload for creating a new staff member.
type RegisterStaffRequest struct {
	Type     domain.ProfileType `json:"type" validate:"required,oneof=GENERAL_SUPERVISOR SUPERVISOR OPERATOR SECRETARY"`
	FullName string             `json:"full_name" validate:"required"`
	Email    string             `json:"email" validate:"required,email"`
	Phone    string             `json:"phone" validate:"required"`
}

// ResolveApprovalRequest payload for approving or rejecting a profile.
type ResolveApprovalRequest struct {
	Decision service.Decision `json:"decision" validate:"required,oneof=APPROVE REJECT"`
	Reason   string           `json:"reason"`
}

// IdentityResponse is the public shape of an identity record.
type IdentityResponse struct {
	ID         string                `json:"id"`
	Email      string                `json:"email"`
	Phone      string                `json:"phone"`
	Role       domain.Role           `json:"role"`
	Status     domain.IdentityStatus `json:"status"`
	EmployeeID string                `json:"employee_id"`
	LastLogin  *time.Time            `json:"last_login,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
}

// ProfileResponse is the public shape of a role profile. The transient raw
// password never appears here.
type ProfileResponse struct {
	ID                  string                `json:"id"`
	UserID              string                `json:"user_id"`
	EmployeeID          string                `json:"employee_id"`
	FullName            string                `json:"full_name"`
	Type                domain.ProfileType    `json:"type"`
	GeneralSupervisorID *string               `json:"general_supervisor_id,omitempty"`
	SupervisorID        *string               `json:"supervisor_id,omitempty"`
	ApprovalStatus      domain.ApprovalStatus `json:"approval_status"`
	ApprovedByID        *string               `json:"approved_by_id,omitempty"`
	ApprovedAt          *time.Time            `json:"approved_at,omitempty"`
	RejectionReason     *string               `json:"rejection_reason,omitempty"`
	CreatedAt           time.Time             `json:"created_at"`
}

// CredentialsResponse is the one-time synchronous credential block returned
// to the registrar.
type CredentialsResponse struct {
	EmployeeID        string `json:"employee_id"`
	TemporaryPassword string `json:"temporary_password"`
}

// RegistrationResponse bundles registration output.
type RegistrationResponse struct {
	Identity    IdentityResponse    `json:"identity"`
	Profile     ProfileResponse     `json:"profile"`
	Credentials CredentialsResponse `json:"credentials"`
}

// NewIdentityResponse maps a domain identity.
func NewIdentityResponse(identity *domain.Identity) IdentityResponse {
	return IdentityResponse{
		ID:         identity.ID,
		Email:      identity.Email,
		Phone:      identity.Phone,
		Role:       identity.Role,
		Status:     identity.Status,
		EmployeeID: identity.EmployeeID,
		LastLogin:  identity.LastLogin,
		CreatedAt:  identity.CreatedAt,
	}
}

// NewProfileResponse maps a domain profile.
func NewProfileResponse(profile *domain.RoleProfile) ProfileResponse {
	return ProfileResponse{
		ID:                  profile.ID,
		UserID:              profile.UserID,
		EmployeeID:          profile.EmployeeID,
		FullName:            profile.FullName,
		Type:                profile.Type,
		GeneralSupervisorID: profile.GeneralSupervisorID,
		SupervisorID:        profile.SupervisorID,
		ApprovalStatus:      profile.ApprovalStatus,
		ApprovedByID:        profile.ApprovedByID,
		ApprovedAt:          profile.ApprovedAt,
		RejectionReason:     profile.RejectionReason,
		CreatedAt:           profile.CreatedAt,
	}
}
