package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/personnel-service/internal/domain"
	"github.com/spec-kit/personnel-service/internal/events"
	"github.com/spec-kit/personnel-service/internal/observability"
	apperrors "github.com/spec-kit/personnel-service/pkg/util/errorutil"
)

type notificationFixture struct {
	repo    *fakeNotificationRepo
	ids     *fakeIdentityRepo
	cache   *fakeUnreadCache
	service *NotificationService
}

func newNotificationFixture(t *testing.T) *notificationFixture {
	t.Helper()
	logger := zap.NewNop()
	repo := newFakeNotificationRepo()
	ids := newFakeIdentityRepo()
	cache := newFakeUnreadCache()
	svc := NewNotificationService(NotificationDependencies{
		NotificationRepo: repo,
		IdentityRepo:     ids,
		Dispatcher:       events.NewSyncDispatcher(logger),
		Cache:            cache,
		Logger:           logger,
		Metrics:          observability.NewMetrics(),
	}, 3)
	return &notificationFixture{repo: repo, ids: ids, cache: cache, service: svc}
}

func (f *notificationFixture) seedCredentialNotice(t *testing.T, receiverID string, maxViews int) string {
	t.Helper()
	notification := &domain.Notification{
		ReceiverID: receiverID,
		Type:       domain.NotificationStaffApproved,
		Subject:    "Staff member approved",
		Message:    "credentials attached",
		Metadata: map[string]any{
			"profile_id": "profile-1",
			"credentials": map[string]any{
				"employee_id":        "EMP-100",
				"email":              "new.staff@example.com",
				"temporary_password": "S3cret!pass",
			},
		},
		MaxViews: maxViews,
	}
	require.NoError(t, f.repo.Create(context.Background(), notification))
	return notification.ID
}

func (f *notificationFixture) seedPlainNotice(t *testing.T, receiverID string) string {
	t.Helper()
	notification := &domain.Notification{
		ReceiverID: receiverID,
		Type:       domain.NotificationStaffRejected,
		Subject:    "Staff member rejected",
		Message:    "rejected",
		Metadata:   map[string]any{"reason": "no"},
		MaxViews:   3,
	}
	require.NoError(t, f.repo.Create(context.Background(), notification))
	return notification.ID
}

func TestViewCredentialsConsumesViewsUntilExhausted(t *testing.T) {
	f := newNotificationFixture(t)
	id := f.seedCredentialNotice(t, "recipient-1", 3)

	for i, wantRemaining := range []int{2, 1, 0} {
		view, err := f.service.ViewCredentials(context.Background(), id, "recipient-1")
		require.NoError(t, err, "view %d", i+1)
		assert.True(t, view.CanView)
		require.NotNil(t, view.Credentials)
		assert.Equal(t, "EMP-100", view.Credentials.EmployeeID)
		assert.Equal(t, "S3cret!pass", view.Credentials.TemporaryPassword)
		assert.Equal(t, i+1, view.ViewCount)
		assert.Equal(t, wantRemaining, view.RemainingViews)
	}

	// The limit is spent: the call keeps succeeding but discloses nothing.
	view, err := f.service.ViewCredentials(context.Background(), id, "recipient-1")
	require.NoError(t, err)
	assert.False(t, view.CanView)
	assert.Nil(t, view.Credentials)
	assert.Equal(t, 3, view.ViewCount)
	assert.Equal(t, 0, view.RemainingViews)

	// The record survives exhaustion for audit.
	stored, err := f.repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.ViewCount)
}

func TestViewCredentialsNeverExceedsLimitUnderConcurrency(t *testing.T) {
	f := newNotificationFixture(t)
	id := f.seedCredentialNotice(t, "recipient-1", 3)

	const callers = 20
	var wg sync.WaitGroup
	granted := make(chan struct{}, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			view, err := f.service.ViewCredentials(context.Background(), id, "recipient-1")
			if err == nil && view.CanView {
				granted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(granted)

	assert.Len(t, granted, 3)

	stored, err := f.repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.ViewCount)
}

func TestGetViewStatusDoesNotConsumeViews(t *testing.T) {
	f := newNotificationFixture(t)
	id := f.seedCredentialNotice(t, "recipient-1", 3)

	for i := 0; i < 5; i++ {
		status, err := f.service.GetViewStatus(context.Background(), id, "recipient-1")
		require.NoError(t, err)
		assert.True(t, status.HasCredentials)
		assert.True(t, status.CanView)
		assert.Equal(t, 0, status.ViewCount)
		assert.Equal(t, 3, status.RemainingViews)
	}
}

func TestViewCredentialsOwnershipLooksLikeAbsence(t *testing.T) {
	f := newNotificationFixture(t)
	id := f.seedCredentialNotice(t, "recipient-1", 3)

	_, err := f.service.ViewCredentials(context.Background(), id, "someone-else")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = f.service.GetViewStatus(context.Background(), "missing-id", "recipient-1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestViewCredentialsOnPlainNoticeFails(t *testing.T) {
	f := newNotificationFixture(t)
	id := f.seedPlainNotice(t, "recipient-1")

	_, err := f.service.ViewCredentials(context.Background(), id, "recipient-1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	status, err := f.service.GetViewStatus(context.Background(), id, "recipient-1")
	require.NoError(t, err)
	assert.False(t, status.HasCredentials)
	assert.False(t, status.CanView)
}

func TestListScrubsCredentialMetadata(t *testing.T) {
	f := newNotificationFixture(t)
	f.seedCredentialNotice(t, "recipient-1", 3)
	f.seedPlainNotice(t, "recipient-1")

	notices, err := f.service.List(context.Background(), "recipient-1", false, 50, 0)
	require.NoError(t, err)
	require.Len(t, notices, 2)

	for _, notice := range notices {
		_, leaked := notice.Metadata["credentials"]
		assert.False(t, leaked)
	}
	assert.Equal(t, true, notices[0].Metadata["has_credentials"])
	_, flagged := notices[1].Metadata["has_credentials"]
	assert.False(t, flagged)
}

func TestMarkReadAndUnreadCount(t *testing.T) {
	f := newNotificationFixture(t)
	first := f.seedCredentialNotice(t, "recipient-1", 3)
	f.seedPlainNotice(t, "recipient-1")
	f.seedPlainNotice(t, "recipient-2")

	count, err := f.service.UnreadCount(context.Background(), "recipient-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// The count is now cached; a repo-level write without invalidation
	// would not show, so MarkRead must invalidate.
	require.NoError(t, f.service.MarkRead(context.Background(), first, "recipient-1"))

	count, err = f.service.UnreadCount(context.Background(), "recipient-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	err = f.service.MarkRead(context.Background(), first, "someone-else")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	updated, err := f.service.MarkAllRead(context.Background(), "recipient-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	count, err = f.service.UnreadCount(context.Background(), "recipient-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestUnreadCountServesFromCache(t *testing.T) {
	f := newNotificationFixture(t)
	f.seedPlainNotice(t, "recipient-1")

	count, err := f.service.UnreadCount(context.Background(), "recipient-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// A stale cache answer is returned until invalidated.
	f.cache.Set(context.Background(), "recipient-1", 42)
	count, err = f.service.UnreadCount(context.Background(), "recipient-1")
	require.NoError(t, err)
	assert.Equal(t, 42, count)
}
