package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/personnel-service/internal/auth"
	"github.com/spec-kit/personnel-service/internal/config"
	"github.com/spec-kit/personnel-service/internal/domain"
	"github.com/spec-kit/personnel-service/internal/events"
	apperrors "github.com/spec-kit/personnel-service/pkg/util/errorutil"
)

func newAuthFixture(t *testing.T) (*AuthService, *fakeIdentityRepo, *fakeActivityRepo) {
	t.Helper()
	logger := zap.NewNop()
	identities := newFakeIdentityRepo()
	activities := newFakeActivityRepo()
	dispatcher := events.NewSyncDispatcher(logger)
	NewActivityService(activities, dispatcher, logger).RegisterHandlers()

	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 15, BcryptCost: 4}}
	return NewAuthService(cfg, identities, dispatcher, logger), identities, activities
}

func seedLoginIdentity(t *testing.T, identities *fakeIdentityRepo, status domain.IdentityStatus) *domain.Identity {
	t.Helper()
	hash, err := auth.HashPassword("correct-horse", 4)
	require.NoError(t, err)
	return identities.seed(&domain.Identity{
		Email:        "director@example.com",
		Phone:        "+989000000001",
		PasswordHash: hash,
		Role:         domain.RoleDirector,
		Status:       status,
		EmployeeID:   "EMP-1",
	})
}

func TestLoginIssuesTokenAndLogsActivity(t *testing.T) {
	svc, identities, activities := newAuthFixture(t)
	seeded := seedLoginIdentity(t, identities, domain.IdentityStatusActive)

	identity, token, _, err := svc.Login(context.Background(), "Director@Example.com", "correct-horse", RequestMeta{IPAddress: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, identity.ID)
	assert.NotEmpty(t, token)
	assert.NotNil(t, identity.LastLogin)

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, claims.IdentityID)
	assert.Equal(t, domain.RoleDirector, claims.Role)

	require.Len(t, activities.entries, 1)
	assert.Equal(t, domain.ActivityLogin, activities.entries[0].Action)
	require.NotNil(t, activities.entries[0].IPAddress)
	assert.Equal(t, "10.0.0.1", *activities.entries[0].IPAddress)
}

func TestLoginRejectsBadCredentialsUniformly(t *testing.T) {
	svc, identities, _ := newAuthFixture(t)
	seedLoginIdentity(t, identities, domain.IdentityStatusActive)

	_, _, _, err := svc.Login(context.Background(), "director@example.com", "wrong", RequestMeta{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	_, _, _, err = svc.Login(context.Background(), "unknown@example.com", "correct-horse", RequestMeta{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestLoginBlocksPendingAndSuspendedAccounts(t *testing.T) {
	for _, status := range []domain.IdentityStatus{
		domain.IdentityStatusPending,
		domain.IdentityStatusSuspended,
		domain.IdentityStatusInactive,
	} {
		svc, identities, _ := newAuthFixture(t)
		seedLoginIdentity(t, identities, status)

		_, _, _, err := svc.Login(context.Background(), "director@example.com", "correct-horse", RequestMeta{})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized), string(status))
	}
}
