package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/personnel-service/internal/auth"
	"github.com/spec-kit/personnel-service/internal/config"
	"github.com/spec-kit/personnel-service/internal/domain"
	"github.com/spec-kit/personnel-service/internal/events"
	"github.com/spec-kit/personnel-service/internal/repository"
	apperrors "github.com/spec-kit/personnel-service/pkg/util/errorutil"
)

// AuthService coordinates staff login.
type AuthService struct {
	identities repository.IdentityRepository
	tokenMgr   *auth.TokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, identities repository.IdentityRepository, dispatcher events.Dispatcher, logger *zap.Logger) *AuthService {
	return &AuthService{
		identities: identities,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Login authenticates a staff identity and returns a role-bearing token.
// Accounts that have not been approved yet, or were suspended, cannot log in.
func (s *AuthService) Login(ctx context.Context, email, password string, meta RequestMeta) (*domain.Identity, string, time.Time, error) {
	identity, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if !identity.CanLogin() {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("account is not active")
	}
	if err := auth.ComparePassword(identity.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, exp, err := s.tokenMgr.GenerateToken(identity.ID, identity.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}

	now := time.Now()
	if err := s.identities.UpdateLastLogin(ctx, identity.ID, now); err != nil {
		s.logger.Warn("last-login update failed", zap.String("identity_id", identity.ID), zap.Error(err))
	}
	identity.LastLogin = &now

	if s.dispatcher != nil {
		s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventStaffLogin,
			ActorID:   identity.ID,
			IPAddress: meta.IPAddress,
			UserAgent: meta.UserAgent,
			Timestamp: now,
			Payload: events.StaffLoginPayload{
				IdentityID: identity.ID,
				Email:      identity.Email,
				Role:       identity.Role,
			},
		})
	}

	return identity, token, exp, nil
}
