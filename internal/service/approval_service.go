package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/personnel-service/internal/auth"
	"github.com/spec-kit/personnel-service/internal/config"
	"github.com/spec-kit/personnel-service/internal/credentials"
	"github.com/spec-kit/personnel-service/internal/domain"
	"github.com/spec-kit/personnel-service/internal/events"
	"github.com/spec-kit/personnel-service/internal/observability"
	"github.com/spec-kit/personnel-service/internal/repository"
	apperrors "github.com/spec-kit/personnel-service/pkg/util/errorutil"
)

// Decision selects the terminal state for a pending profile.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// RequestMeta carries request-level context into audit events.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// RegisterInput describes a staff registration.
type RegisterInput struct {
	Type     domain.ProfileType
	FullName string
	Email    string
	Phone    string
	Meta     RequestMeta
}

// IssuedCredentials is returned exactly once, synchronously, to the
// registrar. The notification copy is delivered separately under the
// bounded-disclosure limit.
type IssuedCredentials struct {
	EmployeeID        string
	TemporaryPassword string
}

// RegistrationResult bundles the created records and the one-time
// credential block.
type RegistrationResult struct {
	Identity    *domain.Identity
	Profile     *domain.RoleProfile
	Credentials IssuedCredentials
}

// ResolutionResult bundles the resolved profile; Credentials is set only on
// approval.
type ResolutionResult struct {
	Profile     *domain.RoleProfile
	Credentials *domain.CredentialPayload
}

// ApprovalService owns the hierarchical approval workflow: registration of
// staff into PENDING, the single PENDING -> terminal resolution, and the
// release of transient credentials into the notification channel.
type ApprovalService struct {
	identities repository.IdentityRepository
	profiles   repository.ProfileRepository
	generator  *credentials.Generator
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	bcryptCost int
	cfg        config.ApprovalConfig
	now        func() time.Time
}

// ApprovalDependencies bundles collaborators for the approval service.
type ApprovalDependencies struct {
	IdentityRepo repository.IdentityRepository
	ProfileRepo  repository.ProfileRepository
	Generator    *credentials.Generator
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	Metrics      *observability.Metrics
}

// NewApprovalService constructs the service.
func NewApprovalService(cfg config.Config, deps ApprovalDependencies) *ApprovalService {
	return &ApprovalService{
		identities: deps.IdentityRepo,
		profiles:   deps.ProfileRepo,
		generator:  deps.Generator,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		bcryptCost: cfg.Auth.BcryptCost,
		cfg:        cfg.Approval,
		now:        time.Now,
	}
}

// Register creates an identity and role profile for a new staff member.
// Gated profile types start PENDING with a transient temporary password;
// secretaries are created directly ACTIVE with no approval step.
func (s *ApprovalService) Register(ctx context.Context, registrar *domain.Identity, input RegisterInput) (*RegistrationResult, error) {
	if err := auth.CheckRegistrant(registrar.Role, input.Type); err != nil {
		return nil, err
	}
	if err := validateRegisterInput(input); err != nil {
		return nil, err
	}

	registrarProfile, err := s.requireApprovedRegistrarProfile(ctx, registrar)
	if err != nil {
		return nil, err
	}

	if existing, err := s.identities.GetByEmail(ctx, input.Email); err == nil && existing != nil {
		return nil, apperrors.NewDuplicateEmail(input.Email)
	} else if err != nil && err != pgx.ErrNoRows {
		return nil, apperrors.MapError(err)
	}
	if existing, err := s.identities.GetByPhone(ctx, input.Phone); err == nil && existing != nil {
		return nil, apperrors.NewDuplicatePhone(input.Phone)
	} else if err != nil && err != pgx.ErrNoRows {
		return nil, apperrors.MapError(err)
	}

	employeeID := s.generator.EmployeeID(s.cfg.EmployeeIDPrefix)
	tempPassword := s.generator.TemporaryPassword(s.cfg.TemporaryPasswordLen)
	hash, err := auth.HashPassword(tempPassword, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	gated := auth.IsGated(input.Type)
	status := domain.IdentityStatusPending
	if !gated {
		status = domain.IdentityStatusActive
	}

	identity := &domain.Identity{
		Email:        input.Email,
		Phone:        input.Phone,
		PasswordHash: hash,
		Role:         domain.RoleForProfileType(input.Type),
		Status:       status,
		EmployeeID:   employeeID,
		CreatedByID:  &registrar.ID,
	}
	if err := s.identities.Create(ctx, identity); err != nil {
		return nil, apperrors.MapError(err)
	}

	profile := &domain.RoleProfile{
		UserID:         identity.ID,
		EmployeeID:     employeeID,
		FullName:       input.FullName,
		Type:           input.Type,
		ApprovalStatus: domain.ApprovalStatusPending,
		RawPassword:    &tempPassword,
	}
	s.linkHierarchy(profile, registrar, registrarProfile)
	if !gated {
		now := s.now()
		profile.ApprovalStatus = domain.ApprovalStatusApproved
		profile.RawPassword = nil
		profile.ApprovedByID = &registrar.ID
		profile.ApprovedAt = &now
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.metrics.RecordWorkflow("staff_registered")
	s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventStaffRegistered,
		ActorID:   registrar.ID,
		IPAddress: input.Meta.IPAddress,
		UserAgent: input.Meta.UserAgent,
		Timestamp: s.now(),
		Payload: events.StaffRegisteredPayload{
			ProfileID:   profile.ID,
			IdentityID:  identity.ID,
			EmployeeID:  employeeID,
			FullName:    input.FullName,
			ProfileType: input.Type,
			RegistrarID: registrar.ID,
			Gated:       gated,
		},
	})

	return &RegistrationResult{
		Identity: identity,
		Profile:  profile,
		Credentials: IssuedCredentials{
			EmployeeID:        employeeID,
			TemporaryPassword: tempPassword,
		},
	}, nil
}

// Resolve applies an approve or reject decision to a pending profile. The
// profile transition is the authoritative gate and is applied first; the
// identity status change is a best-effort follow-up, so a crash in between
// leaves a resolved-profile/pending-identity pair that an offline
// reconciliation pass can detect and repair.
func (s *ApprovalService) Resolve(ctx context.Context, approver *domain.Identity, profileID string, decision Decision, reason string, meta RequestMeta) (*ResolutionResult, error) {
	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("profile", map[string]any{"profile_id": profileID})
		}
		return nil, apperrors.MapError(err)
	}
	if profile.IsResolved() {
		return nil, apperrors.NewNotPending(profileID)
	}

	if err := auth.CheckApprover(approver.Role, profile.Type); err != nil {
		return nil, err
	}
	if approver.Role == domain.RoleGeneralSupervisor && profile.Type == domain.ProfileTypeOperator {
		if err := s.checkOperatorChain(ctx, approver, profile); err != nil {
			return nil, err
		}
	}

	switch decision {
	case DecisionApprove:
		return s.approve(ctx, approver, profile, meta)
	case DecisionReject:
		if strings.TrimSpace(reason) == "" {
			return nil, apperrors.NewValidationError("rejection reason is required", nil)
		}
		return s.reject(ctx, approver, profile, reason, meta)
	default:
		return nil, apperrors.NewValidationError("decision must be APPROVE or REJECT", map[string]any{"decision": string(decision)})
	}
}

func (s *ApprovalService) approve(ctx context.Context, approver *domain.Identity, profile *domain.RoleProfile, meta RequestMeta) (*ResolutionResult, error) {
	resolved, tempPassword, err := s.profiles.Resolve(ctx, profile.ID, repository.ProfileResolution{
		Status:       domain.ApprovalStatusApproved,
		ResolvedByID: approver.ID,
		ResolvedAt:   s.now(),
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	identity, err := s.identities.GetByID(ctx, resolved.UserID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	// Re-hash the captured password so the stored hash cannot have drifted
	// from what the registrar will hand over.
	if tempPassword != "" {
		if hash, hashErr := auth.HashPassword(tempPassword, s.bcryptCost); hashErr == nil {
			if err := s.identities.UpdatePasswordHash(ctx, identity.ID, hash); err != nil {
				s.logger.Error("password rehash follow-up failed", zap.String("identity_id", identity.ID), zap.Error(err))
			}
		}
	}
	if err := s.identities.UpdateStatus(ctx, identity.ID, domain.IdentityStatusActive); err != nil {
		s.logger.Error("identity activation follow-up failed", zap.String("identity_id", identity.ID), zap.Error(err))
	}

	recipientID, err := s.resolveRecipient(ctx, resolved, identity)
	if err != nil {
		s.logger.Warn("no recipient resolved for approval notice", zap.String("profile_id", resolved.ID), zap.Error(err))
	}

	creds := domain.CredentialPayload{
		EmployeeID:        resolved.EmployeeID,
		Email:             identity.Email,
		TemporaryPassword: tempPassword,
	}

	s.metrics.RecordWorkflow("staff_approved")
	if recipientID != "" {
		s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventStaffApproved,
			ActorID:   approver.ID,
			IPAddress: meta.IPAddress,
			UserAgent: meta.UserAgent,
			Timestamp: s.now(),
			Payload: events.StaffApprovedPayload{
				ProfileID:   resolved.ID,
				IdentityID:  identity.ID,
				FullName:    resolved.FullName,
				ProfileType: resolved.Type,
				RecipientID: recipientID,
				Credentials: creds,
				MaxViews:    s.cfg.CredentialMaxViews,
			},
		})
	}

	return &ResolutionResult{Profile: resolved, Credentials: &creds}, nil
}

func (s *ApprovalService) reject(ctx context.Context, approver *domain.Identity, profile *domain.RoleProfile, reason string, meta RequestMeta) (*ResolutionResult, error) {
	resolved, _, err := s.profiles.Resolve(ctx, profile.ID, repository.ProfileResolution{
		Status:          domain.ApprovalStatusRejected,
		ResolvedByID:    approver.ID,
		ResolvedAt:      s.now(),
		RejectionReason: &reason,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	identity, err := s.identities.GetByID(ctx, resolved.UserID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.identities.UpdateStatus(ctx, identity.ID, domain.IdentityStatusSuspended); err != nil {
		s.logger.Error("identity suspension follow-up failed", zap.String("identity_id", identity.ID), zap.Error(err))
	}

	recipientID, err := s.resolveRecipient(ctx, resolved, identity)
	if err != nil {
		s.logger.Warn("no recipient resolved for rejection notice", zap.String("profile_id", resolved.ID), zap.Error(err))
	}

	s.metrics.RecordWorkflow("staff_rejected")
	if recipientID != "" {
		s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventStaffRejected,
			ActorID:   approver.ID,
			IPAddress: meta.IPAddress,
			UserAgent: meta.UserAgent,
			Timestamp: s.now(),
			Payload: events.StaffRejectedPayload{
				ProfileID:   resolved.ID,
				IdentityID:  identity.ID,
				FullName:    resolved.FullName,
				ProfileType: resolved.Type,
				RecipientID: recipientID,
				Reason:      reason,
			},
		})
	}

	return &ResolutionResult{Profile: resolved}, nil
}

// ListPending lists profiles awaiting approval. Raw passwords never leave
// the service.
func (s *ApprovalService) ListPending(ctx context.Context, actor *domain.Identity, filter repository.PendingFilter) ([]domain.RoleProfile, error) {
	switch actor.Role {
	case domain.RoleDirector, domain.RoleManager, domain.RoleGeneralSupervisor, domain.RoleAdmin, domain.RoleDeveloper:
	default:
		return nil, apperrors.NewForbidden("role " + string(actor.Role) + " cannot list pending approvals")
	}

	profiles, err := s.profiles.ListPending(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for i := range profiles {
		profiles[i].RawPassword = nil
	}
	return profiles, nil
}

// ListSupervisorsUnder returns the supervisor profiles attached to a
// general supervisor profile.
func (s *ApprovalService) ListSupervisorsUnder(ctx context.Context, generalSupervisorProfileID string) ([]domain.RoleProfile, error) {
	profiles, err := s.profiles.ListByGeneralSupervisor(ctx, generalSupervisorProfileID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for i := range profiles {
		profiles[i].RawPassword = nil
	}
	return profiles, nil
}

// requireApprovedRegistrarProfile loads the registrar's own profile when
// the registrar sits inside the supervisor hierarchy; such registrars must
// themselves be approved before they can register anyone.
func (s *ApprovalService) requireApprovedRegistrarProfile(ctx context.Context, registrar *domain.Identity) (*domain.RoleProfile, error) {
	if registrar.Role != domain.RoleGeneralSupervisor && registrar.Role != domain.RoleSupervisor {
		return nil, nil
	}
	profile, err := s.profiles.GetByUserID(ctx, registrar.ID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewForbidden("registrar has no role profile")
		}
		return nil, apperrors.MapError(err)
	}
	if profile.ApprovalStatus != domain.ApprovalStatusApproved {
		return nil, apperrors.NewForbidden("registrar's own profile must be approved before registering staff")
	}
	return profile, nil
}

// linkHierarchy records the one-level parent reference on the new profile.
func (s *ApprovalService) linkHierarchy(profile *domain.RoleProfile, registrar *domain.Identity, registrarProfile *domain.RoleProfile) {
	if registrarProfile == nil {
		return
	}
	switch {
	case profile.Type == domain.ProfileTypeSupervisor && registrar.Role == domain.RoleGeneralSupervisor:
		profile.GeneralSupervisorID = &registrarProfile.ID
	case profile.Type == domain.ProfileTypeOperator && registrar.Role == domain.RoleSupervisor:
		profile.SupervisorID = &registrarProfile.ID
	case profile.Type == domain.ProfileTypeOperator && registrar.Role == domain.RoleGeneralSupervisor:
		profile.GeneralSupervisorID = &registrarProfile.ID
	}
}

// checkOperatorChain verifies that a general supervisor approver actually
// sits above the operator: either the operator hangs directly off the
// approver's profile, or off a supervisor whose parent is the approver.
func (s *ApprovalService) checkOperatorChain(ctx context.Context, approver *domain.Identity, operator *domain.RoleProfile) error {
	approverProfile, err := s.profiles.GetByUserID(ctx, approver.ID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewForbidden("approver has no role profile")
		}
		return apperrors.MapError(err)
	}
	if approverProfile.ApprovalStatus != domain.ApprovalStatusApproved {
		return apperrors.NewForbidden("approver's own profile must be approved")
	}

	if operator.GeneralSupervisorID != nil && *operator.GeneralSupervisorID == approverProfile.ID {
		return nil
	}
	if operator.SupervisorID != nil {
		supervisor, err := s.profiles.GetByID(ctx, *operator.SupervisorID)
		if err == nil && supervisor.GeneralSupervisorID != nil && *supervisor.GeneralSupervisorID == approverProfile.ID {
			return nil
		}
	}
	return apperrors.NewForbidden("GENERAL_SUPERVISOR may only approve operators in their own supervisor chain")
}

// resolveRecipient picks who receives the resolution notice: the general
// supervisor above a supervisor profile, or the registrar otherwise.
func (s *ApprovalService) resolveRecipient(ctx context.Context, profile *domain.RoleProfile, identity *domain.Identity) (string, error) {
	if profile.Type == domain.ProfileTypeSupervisor && profile.GeneralSupervisorID != nil {
		gsProfile, err := s.profiles.GetByID(ctx, *profile.GeneralSupervisorID)
		if err == nil {
			return gsProfile.UserID, nil
		}
		s.logger.Warn("general supervisor profile lookup failed", zap.String("profile_id", *profile.GeneralSupervisorID), zap.Error(err))
	}
	if identity.CreatedByID != nil {
		return *identity.CreatedByID, nil
	}
	return "", apperrors.NewNotFound("recipient", map[string]any{"profile_id": profile.ID})
}

func validateRegisterInput(input RegisterInput) error {
	details := map[string]any{}
	if strings.TrimSpace(input.FullName) == "" {
		details["full_name"] = "required"
	}
	if strings.TrimSpace(input.Email) == "" {
		details["email"] = "required"
	}
	if strings.TrimSpace(input.Phone) == "" {
		details["phone"] = "required"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("missing required fields", details)
	}
	return nil
}
