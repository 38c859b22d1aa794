package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/personnel-service/internal/auth"
	"github.com/spec-kit/personnel-service/internal/domain"
	"github.com/spec-kit/personnel-service/internal/events"
	"github.com/spec-kit/personnel-service/internal/observability"
	"github.com/spec-kit/personnel-service/internal/repository"
	apperrors "github.com/spec-kit/personnel-service/pkg/util/errorutil"
)

// UnreadCache caches per-receiver unread counts. Implementations must treat
// failures as cache misses; a nil cache disables caching.
type UnreadCache interface {
	Get(ctx context.Context, receiverID string) (int, bool)
	Set(ctx context.Context, receiverID string, count int)
	Invalidate(ctx context.Context, receiverID string)
}

// ViewStatus reports the disclosure state of a notification without
// consuming a view.
type ViewStatus struct {
	HasCredentials bool `json:"has_credentials"`
	CanView        bool `json:"can_view"`
	ViewCount      int  `json:"view_count"`
	MaxViews       int  `json:"max_views"`
	RemainingViews int  `json:"remaining_views"`
}

// CredentialView is the result of a viewCredentials call. CanView=false
// with nil Credentials is the expected exhausted end-state, not an error.
type CredentialView struct {
	CanView        bool                      `json:"can_view"`
	Credentials    *domain.CredentialPayload `json:"credentials,omitempty"`
	ViewCount      int                       `json:"view_count"`
	MaxViews       int                       `json:"max_views"`
	RemainingViews int                       `json:"remaining_views"`
}

// NotificationService owns the internal inbox: fan-out of approval-workflow
// notices and the bounded-disclosure credential viewer.
type NotificationService struct {
	notifications repository.NotificationRepository
	identities    repository.IdentityRepository
	dispatcher    events.Dispatcher
	cache         UnreadCache
	logger        *zap.Logger
	metrics       *observability.Metrics
	maxViews      int
}

// NotificationDependencies bundles collaborators for the service.
type NotificationDependencies struct {
	NotificationRepo repository.NotificationRepository
	IdentityRepo     repository.IdentityRepository
	Dispatcher       events.Dispatcher
	Cache            UnreadCache
	Logger           *zap.Logger
	Metrics          *observability.Metrics
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies, defaultMaxViews int) *NotificationService {
	if defaultMaxViews <= 0 {
		defaultMaxViews = domain.DefaultCredentialMaxViews
	}
	return &NotificationService{
		notifications: deps.NotificationRepo,
		identities:    deps.IdentityRepo,
		dispatcher:    deps.Dispatcher,
		cache:         deps.Cache,
		logger:        deps.Logger,
		metrics:       deps.Metrics,
		maxViews:      defaultMaxViews,
	}
}

// RegisterHandlers subscribes the fan-out side effects to workflow events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventStaffRegistered, n.handleStaffRegistered)
	n.dispatcher.Subscribe(events.EventStaffApproved, n.handleStaffApproved)
	n.dispatcher.Subscribe(events.EventStaffRejected, n.handleStaffRejected)
}

func (n *NotificationService) handleStaffRegistered(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.StaffRegisteredPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", event.Payload)
	}
	if !payload.Gated {
		return nil
	}

	targets := auth.NotificationTargets(payload.ProfileType)
	if len(targets) == 0 {
		return nil
	}
	recipients, err := n.identities.ListByRoles(ctx, targets, true)
	if err != nil {
		return err
	}

	for _, recipient := range recipients {
		notification := &domain.Notification{
			SenderID:   &payload.RegistrarID,
			ReceiverID: recipient.ID,
			Type:       domain.NotificationStaffApprovalRequested,
			Subject:    "Staff approval required",
			Message:    fmt.Sprintf("%s (%s) awaits approval as %s", payload.FullName, payload.EmployeeID, payload.ProfileType),
			Metadata: map[string]any{
				"profile_id":   payload.ProfileID,
				"profile_type": string(payload.ProfileType),
				"employee_id":  payload.EmployeeID,
			},
			MaxViews: n.maxViews,
		}
		if err := n.notifications.Create(ctx, notification); err != nil {
			n.logger.Warn("approval-request notice not delivered",
				zap.String("receiver_id", recipient.ID),
				zap.String("profile_id", payload.ProfileID),
				zap.Error(err))
			continue
		}
		n.invalidateUnread(ctx, recipient.ID)
	}
	return nil
}

func (n *NotificationService) handleStaffApproved(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.StaffApprovedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", event.Payload)
	}

	maxViews := payload.MaxViews
	if maxViews <= 0 {
		maxViews = n.maxViews
	}
	notification := &domain.Notification{
		SenderID:   &event.ActorID,
		ReceiverID: payload.RecipientID,
		Type:       domain.NotificationStaffApproved,
		Subject:    "Staff member approved",
		Message:    fmt.Sprintf("%s has been approved as %s. Login credentials are attached and may be viewed %d times.", payload.FullName, payload.ProfileType, maxViews),
		Metadata: map[string]any{
			"profile_id":   payload.ProfileID,
			"profile_type": string(payload.ProfileType),
			"credentials": map[string]any{
				"employee_id":        payload.Credentials.EmployeeID,
				"email":              payload.Credentials.Email,
				"temporary_password": payload.Credentials.TemporaryPassword,
			},
		},
		MaxViews: maxViews,
	}
	if err := n.notifications.Create(ctx, notification); err != nil {
		return err
	}
	n.invalidateUnread(ctx, payload.RecipientID)
	return nil
}

func (n *NotificationService) handleStaffRejected(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.StaffRejectedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", event.Payload)
	}

	notification := &domain.Notification{
		SenderID:   &event.ActorID,
		ReceiverID: payload.RecipientID,
		Type:       domain.NotificationStaffRejected,
		Subject:    "Staff member rejected",
		Message:    fmt.Sprintf("%s (%s) was rejected: %s", payload.FullName, payload.ProfileType, payload.Reason),
		Metadata: map[string]any{
			"profile_id":   payload.ProfileID,
			"profile_type": string(payload.ProfileType),
			"reason":       payload.Reason,
		},
		MaxViews: n.maxViews,
	}
	if err := n.notifications.Create(ctx, notification); err != nil {
		return err
	}
	n.invalidateUnread(ctx, payload.RecipientID)
	return nil
}

// List returns the receiver's notifications with any credential payloads
// scrubbed; secrets are only reachable through ViewCredentials.
func (n *NotificationService) List(ctx context.Context, receiverID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	notifications, err := n.notifications.ListByReceiver(ctx, receiverID, unreadOnly, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for i := range notifications {
		scrubCredentials(&notifications[i])
	}
	return notifications, nil
}

// GetViewStatus reports the disclosure state without consuming a view. A
// notification not owned by the requester is reported as absent.
func (n *NotificationService) GetViewStatus(ctx context.Context, notificationID, requesterID string) (*ViewStatus, error) {
	notification, err := n.ownedNotification(ctx, notificationID, requesterID)
	if err != nil {
		return nil, err
	}

	remaining := notification.MaxViews - notification.ViewCount
	if remaining < 0 {
		remaining = 0
	}
	return &ViewStatus{
		HasCredentials: notification.HasCredentials(),
		CanView:        notification.HasCredentials() && !notification.ViewsExhausted(),
		ViewCount:      notification.ViewCount,
		MaxViews:       notification.MaxViews,
		RemainingViews: remaining,
	}, nil
}

// ViewCredentials atomically consumes one view and returns the embedded
// credential block. Once the limit is spent it returns a soft exhausted
// result; the record itself is retained for audit.
func (n *NotificationService) ViewCredentials(ctx context.Context, notificationID, requesterID string) (*CredentialView, error) {
	notification, err := n.ownedNotification(ctx, notificationID, requesterID)
	if err != nil {
		return nil, err
	}
	if !notification.HasCredentials() {
		return nil, apperrors.NewValidationError("notification does not carry credentials", map[string]any{"notification_id": notificationID})
	}
	if notification.ViewsExhausted() {
		return exhaustedView(notification), nil
	}

	updated, err := n.notifications.IncrementView(ctx, notificationID)
	if err == pgx.ErrNoRows {
		// Lost the race for the last view.
		current, getErr := n.notifications.GetByID(ctx, notificationID)
		if getErr != nil {
			return nil, apperrors.MapError(getErr)
		}
		return exhaustedView(current), nil
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	remaining := updated.MaxViews - updated.ViewCount
	n.metrics.RecordWorkflow("credentials_viewed")
	if n.dispatcher != nil {
		n.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventCredentialsViewed,
			ActorID:   requesterID,
			Timestamp: time.Now(),
			Payload: events.CredentialsViewedPayload{
				NotificationID: updated.ID,
				ViewCount:      updated.ViewCount,
				RemainingViews: remaining,
			},
		})
	}

	return &CredentialView{
		CanView:        true,
		Credentials:    updated.Credentials(),
		ViewCount:      updated.ViewCount,
		MaxViews:       updated.MaxViews,
		RemainingViews: remaining,
	}, nil
}

// MarkRead flips the read flag on a single owned notification.
func (n *NotificationService) MarkRead(ctx context.Context, notificationID, requesterID string) error {
	if err := n.notifications.MarkRead(ctx, notificationID, requesterID); err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("notification", map[string]any{"notification_id": notificationID})
		}
		return apperrors.MapError(err)
	}
	n.invalidateUnread(ctx, requesterID)
	return nil
}

// MarkAllRead flips the read flag on every unread notification.
func (n *NotificationService) MarkAllRead(ctx context.Context, requesterID string) (int64, error) {
	count, err := n.notifications.MarkAllRead(ctx, requesterID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	n.invalidateUnread(ctx, requesterID)
	return count, nil
}

// UnreadCount returns the receiver's unread total, via the cache when warm.
func (n *NotificationService) UnreadCount(ctx context.Context, requesterID string) (int, error) {
	if n.cache != nil {
		if count, ok := n.cache.Get(ctx, requesterID); ok {
			return count, nil
		}
	}
	count, err := n.notifications.CountUnread(ctx, requesterID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	if n.cache != nil {
		n.cache.Set(ctx, requesterID, count)
	}
	return count, nil
}

func (n *NotificationService) ownedNotification(ctx context.Context, notificationID, requesterID string) (*domain.Notification, error) {
	notification, err := n.notifications.GetByID(ctx, notificationID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("notification", map[string]any{"notification_id": notificationID})
		}
		return nil, apperrors.MapError(err)
	}
	// Ownership violations look identical to absence on purpose.
	if notification.ReceiverID != requesterID {
		return nil, apperrors.NewNotFound("notification", map[string]any{"notification_id": notificationID})
	}
	return notification, nil
}

func (n *NotificationService) invalidateUnread(ctx context.Context, receiverID string) {
	if n.cache != nil {
		n.cache.Invalidate(ctx, receiverID)
	}
}

func exhaustedView(notification *domain.Notification) *CredentialView {
	return &CredentialView{
		CanView:        false,
		ViewCount:      notification.ViewCount,
		MaxViews:       notification.MaxViews,
		RemainingViews: 0,
	}
}

func scrubCredentials(notification *domain.Notification) {
	if notification.Metadata == nil {
		return
	}
	if _, ok := notification.Metadata["credentials"]; ok {
		scrubbed := make(map[string]any, len(notification.Metadata))
		for k, v := range notification.Metadata {
			if k == "credentials" {
				continue
			}
			scrubbed[k] = v
		}
		scrubbed["has_credentials"] = true
		notification.Metadata = scrubbed
	}
}
