package auth

import (
	"fmt"
	"strings"

	"github.com/spec-kit/personnel-service/internal/domain"
	apperrors "github.com/spec-kit/personnel-service/pkg/util/errorutil"
)

// MatrixRule describes, for one profile type, which roles may register it
// and which roles may resolve its approval. A single table serves both the
// registration-side and the approval-side check so the two cannot drift.
type MatrixRule struct {
	Registrants []domain.Role
	Approvers   []domain.Role
	// NotifyRoles are the roles whose members receive the pending-approval
	// notice when a profile of this type is registered.
	NotifyRoles []domain.Role
	// Gated is false for profile types created directly ACTIVE with no
	// approval step (secretaries).
	Gated bool
}

// approvalMatrix is the authorization matrix for the staff hierarchy.
// DEVELOPER is a superuser approver for every gated type. A
// GENERAL_SUPERVISOR approver of an operator must additionally sit in that
// operator's supervisor chain, which is checked by the approval service
// since it needs profile lookups.
var approvalMatrix = map[domain.ProfileType]MatrixRule{
	domain.ProfileTypeGeneralSupervisor: {
		Registrants: []domain.Role{domain.RoleManager},
		Approvers:   []domain.Role{domain.RoleDirector, domain.RoleDeveloper},
		NotifyRoles: []domain.Role{domain.RoleDirector},
		Gated:       true,
	},
	domain.ProfileTypeSupervisor: {
		Registrants: []domain.Role{domain.RoleGeneralSupervisor},
		Approvers:   []domain.Role{domain.RoleManager, domain.RoleDirector, domain.RoleDeveloper},
		NotifyRoles: []domain.Role{domain.RoleManager},
		Gated:       true,
	},
	domain.ProfileTypeOperator: {
		Registrants: []domain.Role{domain.RoleSupervisor, domain.RoleGeneralSupervisor},
		Approvers:   []domain.Role{domain.RoleManager, domain.RoleGeneralSupervisor, domain.RoleDeveloper},
		NotifyRoles: []domain.Role{domain.RoleManager},
		Gated:       true,
	},
	domain.ProfileTypeSecretary: {
		Registrants: []domain.Role{domain.RoleManager, domain.RoleDirector},
		Gated:       false,
	},
}

// IsGated reports whether the profile type requires an approval step.
func IsGated(t domain.ProfileType) bool {
	rule, ok := approvalMatrix[t]
	return ok && rule.Gated
}

// CheckRegistrant returns a Forbidden error naming the violated rule when
// the registrant role may not create the given profile type.
func CheckRegistrant(registrant domain.Role, t domain.ProfileType) error {
	rule, ok := approvalMatrix[t]
	if !ok {
		return apperrors.NewForbidden(fmt.Sprintf("unknown profile type %s", t))
	}
	for _, allowed := range rule.Registrants {
		if registrant == allowed {
			return nil
		}
	}
	return apperrors.NewForbidden(fmt.Sprintf(
		"%s cannot register %s profiles (allowed: %s)",
		registrant, t, joinRoles(rule.Registrants)))
}

// CheckApprover returns a Forbidden error naming the violated rule when the
// approver role may not resolve the given profile type.
func CheckApprover(approver domain.Role, t domain.ProfileType) error {
	rule, ok := approvalMatrix[t]
	if !ok || !rule.Gated {
		return apperrors.NewForbidden(fmt.Sprintf("%s profiles are not subject to approval", t))
	}
	for _, allowed := range rule.Approvers {
		if approver == allowed {
			return nil
		}
	}
	return apperrors.NewForbidden(fmt.Sprintf(
		"%s cannot approve %s profiles (allowed: %s)",
		approver, t, joinRoles(rule.Approvers)))
}

// NotificationTargets returns the roles notified when a profile of the
// given type awaits approval.
func NotificationTargets(t domain.ProfileType) []domain.Role {
	rule, ok := approvalMatrix[t]
	if !ok || !rule.Gated {
		return nil
	}
	return rule.NotifyRoles
}

func joinRoles(roles []domain.Role) string {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	return strings.Join(names, ", ")
}
