package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/personnel-service/internal/domain"
	"github.com/spec-kit/personnel-service/internal/events"
	"github.com/spec-kit/personnel-service/internal/repository"
	apperrors "github.com/spec-kit/personnel-service/pkg/util/errorutil"
)

// ActivityService writes and serves the append-only audit log. Writes are
// best-effort: a failed append is logged locally and never surfaced to the
// operation that triggered it.
type ActivityService struct {
	activities repository.ActivityRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewActivityService creates the service.
func NewActivityService(activities repository.ActivityRepository, dispatcher events.Dispatcher, logger *zap.Logger) *ActivityService {
	return &ActivityService{activities: activities, dispatcher: dispatcher, logger: logger}
}

// Record appends an audit entry, swallowing failures.
func (a *ActivityService) Record(ctx context.Context, entry *domain.ActivityLogEntry) {
	if err := a.activities.Create(ctx, entry); err != nil {
		a.logger.Warn("activity log write failed",
			zap.String("action", string(entry.Action)),
			zap.String("user_id", entry.UserID),
			zap.Error(err))
	}
}

// Recent returns the newest entries.
func (a *ActivityService) Recent(ctx context.Context, limit int) ([]domain.ActivityLogEntry, error) {
	entries, err := a.activities.ListRecent(ctx, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// Paginated returns a filtered page of entries and the total match count.
func (a *ActivityService) Paginated(ctx context.Context, page, limit int, filter repository.ActivityFilter) ([]domain.ActivityLogEntry, int64, error) {
	entries, total, err := a.activities.ListPaginated(ctx, page, limit, filter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return entries, total, nil
}

// RegisterHandlers mirrors every workflow event into the audit log.
func (a *ActivityService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventStaffRegistered, a.handleEvent)
	a.dispatcher.Subscribe(events.EventStaffApproved, a.handleEvent)
	a.dispatcher.Subscribe(events.EventStaffRejected, a.handleEvent)
	a.dispatcher.Subscribe(events.EventCredentialsViewed, a.handleEvent)
	a.dispatcher.Subscribe(events.EventStaffLogin, a.handleEvent)
}

func (a *ActivityService) handleEvent(ctx context.Context, event events.Event) error {
	entry := &domain.ActivityLogEntry{
		UserID: event.ActorID,
	}
	if event.IPAddress != "" {
		entry.IPAddress = &event.IPAddress
	}
	if event.UserAgent != "" {
		entry.UserAgent = &event.UserAgent
	}

	switch payload := event.Payload.(type) {
	case events.StaffRegisteredPayload:
		entry.Action = domain.ActivityStaffRegistered
		entry.EntityType = strPtr("role_profile")
		entry.EntityID = &payload.ProfileID
		entry.Metadata = map[string]any{
			"profile_type": string(payload.ProfileType),
			"employee_id":  payload.EmployeeID,
			"identity_id":  payload.IdentityID,
		}
	case events.StaffApprovedPayload:
		entry.Action = domain.ActivityStaffApproved
		entry.EntityType = strPtr("role_profile")
		entry.EntityID = &payload.ProfileID
		entry.Metadata = map[string]any{
			"profile_type": string(payload.ProfileType),
			"identity_id":  payload.IdentityID,
		}
	case events.StaffRejectedPayload:
		entry.Action = domain.ActivityStaffRejected
		entry.EntityType = strPtr("role_profile")
		entry.EntityID = &payload.ProfileID
		entry.Metadata = map[string]any{
			"profile_type": string(payload.ProfileType),
			"identity_id":  payload.IdentityID,
			"reason":       payload.Reason,
		}
	case events.CredentialsViewedPayload:
		entry.Action = domain.ActivityCredentialsViewed
		entry.EntityType = strPtr("notification")
		entry.EntityID = &payload.NotificationID
		entry.Metadata = map[string]any{
			"view_count":      payload.ViewCount,
			"remaining_views": payload.RemainingViews,
		}
	case events.StaffLoginPayload:
		entry.Action = domain.ActivityLogin
		entry.EntityType = strPtr("identity")
		entry.EntityID = &payload.IdentityID
		entry.Metadata = map[string]any{
			"role": string(payload.Role),
		}
	default:
		return fmt.Errorf("unexpected payload type %T", event.Payload)
	}

	a.Record(ctx, entry)
	return nil
}

func strPtr(s string) *string {
	return &s
}
