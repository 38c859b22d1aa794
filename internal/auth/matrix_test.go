package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/personnel-service/internal/domain"
	apperrors "github.com/spec-kit/personnel-service/pkg/util/errorutil"
)

var allRoles = []domain.Role{
	domain.RoleDirector,
	domain.RoleManager,
	domain.RoleGeneralSupervisor,
	domain.RoleSupervisor,
	domain.RoleOperator,
	domain.RoleSecretary,
	domain.RoleAdmin,
	domain.RoleDeveloper,
}

func TestCheckRegistrantMatrix(t *testing.T) {
	allowed := map[domain.ProfileType][]domain.Role{
		domain.ProfileTypeGeneralSupervisor: {domain.RoleManager},
		domain.ProfileTypeSupervisor:        {domain.RoleGeneralSupervisor},
		domain.ProfileTypeOperator:          {domain.RoleSupervisor, domain.RoleGeneralSupervisor},
		domain.ProfileTypeSecretary:         {domain.RoleManager, domain.RoleDirector},
	}

	for profileType, registrants := range allowed {
		permitted := map[domain.Role]bool{}
		for _, role := range registrants {
			permitted[role] = true
		}
		for _, role := range allRoles {
			err := CheckRegistrant(role, profileType)
			if permitted[role] {
				assert.NoError(t, err, "%s should register %s", role, profileType)
			} else {
				require.Error(t, err, "%s should not register %s", role, profileType)
				assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
			}
		}
	}
}

func TestCheckApproverMatrix(t *testing.T) {
	allowed := map[domain.ProfileType][]domain.Role{
		domain.ProfileTypeGeneralSupervisor: {domain.RoleDirector, domain.RoleDeveloper},
		domain.ProfileTypeSupervisor:        {domain.RoleManager, domain.RoleDirector, domain.RoleDeveloper},
		domain.ProfileTypeOperator:          {domain.RoleManager, domain.RoleGeneralSupervisor, domain.RoleDeveloper},
	}

	for profileType, approvers := range allowed {
		permitted := map[domain.Role]bool{}
		for _, role := range approvers {
			permitted[role] = true
		}
		for _, role := range allRoles {
			err := CheckApprover(role, profileType)
			if permitted[role] {
				assert.NoError(t, err, "%s should approve %s", role, profileType)
			} else {
				require.Error(t, err, "%s should not approve %s", role, profileType)
				assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
			}
		}
	}
}

func TestCheckApproverNamesViolatedRule(t *testing.T) {
	err := CheckApprover(domain.RoleManager, domain.ProfileTypeGeneralSupervisor)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MANAGER")
	assert.Contains(t, err.Error(), "GENERAL_SUPERVISOR")
	assert.Contains(t, err.Error(), "DIRECTOR")
}

func TestSecretaryIsUngated(t *testing.T) {
	assert.False(t, IsGated(domain.ProfileTypeSecretary))
	assert.True(t, IsGated(domain.ProfileTypeGeneralSupervisor))
	assert.True(t, IsGated(domain.ProfileTypeSupervisor))
	assert.True(t, IsGated(domain.ProfileTypeOperator))

	err := CheckApprover(domain.RoleDirector, domain.ProfileTypeSecretary)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestNotificationTargets(t *testing.T) {
	assert.Equal(t, []domain.Role{domain.RoleDirector}, NotificationTargets(domain.ProfileTypeGeneralSupervisor))
	assert.Equal(t, []domain.Role{domain.RoleManager}, NotificationTargets(domain.ProfileTypeSupervisor))
	assert.Equal(t, []domain.Role{domain.RoleManager}, NotificationTargets(domain.ProfileTypeOperator))
	assert.Nil(t, NotificationTargets(domain.ProfileTypeSecretary))
}
