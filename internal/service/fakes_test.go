package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/personnel-service/internal/domain"
	"github.com/spec-kit/personnel-service/internal/repository"
	apperrors "github.com/spec-kit/personnel-service/pkg/util/errorutil"
)

type fakeIdentityRepo struct {
	mu         sync.Mutex
	identities map[string]*domain.Identity
}

func newFakeIdentityRepo() *fakeIdentityRepo {
	return &fakeIdentityRepo{identities: make(map[string]*domain.Identity)}
}

func (f *fakeIdentityRepo) Create(ctx context.Context, identity *domain.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	email := strings.ToLower(identity.Email)
	for _, existing := range f.identities {
		if existing.Email == email {
			return apperrors.NewDuplicateEmail(identity.Email)
		}
		if existing.Phone == identity.Phone {
			return apperrors.NewDuplicatePhone(identity.Phone)
		}
	}
	identity.ID = uuid.NewString()
	identity.Email = email
	identity.CreatedAt = time.Now()
	identity.UpdatedAt = identity.CreatedAt
	stored := *identity
	f.identities[identity.ID] = &stored
	return nil
}

func (f *fakeIdentityRepo) GetByID(ctx context.Context, id string) (*domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	identity, ok := f.identities[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *identity
	return &copied, nil
}

func (f *fakeIdentityRepo) GetByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, identity := range f.identities {
		if identity.Email == strings.ToLower(email) {
			copied := *identity
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeIdentityRepo) GetByPhone(ctx context.Context, phone string) (*domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, identity := range f.identities {
		if identity.Phone == phone {
			copied := *identity
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeIdentityRepo) ListByRoles(ctx context.Context, roles []domain.Role, onlyActive bool) ([]domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := make(map[domain.Role]bool, len(roles))
	for _, role := range roles {
		wanted[role] = true
	}
	var out []domain.Identity
	for _, identity := range f.identities {
		if !wanted[identity.Role] {
			continue
		}
		if onlyActive && identity.Status != domain.IdentityStatusActive {
			continue
		}
		out = append(out, *identity)
	}
	return out, nil
}

func (f *fakeIdentityRepo) UpdateStatus(ctx context.Context, id string, status domain.IdentityStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	identity, ok := f.identities[id]
	if !ok {
		return pgx.ErrNoRows
	}
	identity.Status = status
	return nil
}

func (f *fakeIdentityRepo) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	identity, ok := f.identities[id]
	if !ok {
		return pgx.ErrNoRows
	}
	identity.PasswordHash = passwordHash
	return nil
}

func (f *fakeIdentityRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	identity, ok := f.identities[id]
	if !ok {
		return pgx.ErrNoRows
	}
	identity.LastLogin = &at
	return nil
}

// seed inserts an identity directly, bypassing duplicate checks.
func (f *fakeIdentityRepo) seed(identity *domain.Identity) *domain.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}
	identity.Email = strings.ToLower(identity.Email)
	stored := *identity
	f.identities[identity.ID] = &stored
	return identity
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*domain.RoleProfile
	// registrars maps user_id to the identity that created it, for the
	// ListPending registrar filter.
	identityRepo *fakeIdentityRepo
}

func newFakeProfileRepo(identities *fakeIdentityRepo) *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]*domain.RoleProfile), identityRepo: identities}
}

func (f *fakeProfileRepo) Create(ctx context.Context, profile *domain.RoleProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile.ID = uuid.NewString()
	profile.CreatedAt = time.Now()
	profile.UpdatedAt = profile.CreatedAt
	stored := *profile
	f.profiles[profile.ID] = &stored
	return nil
}

func (f *fakeProfileRepo) GetByID(ctx context.Context, id string) (*domain.RoleProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.profiles[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *profile
	return &copied, nil
}

func (f *fakeProfileRepo) GetByUserID(ctx context.Context, userID string) (*domain.RoleProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, profile := range f.profiles {
		if profile.UserID == userID {
			copied := *profile
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeProfileRepo) ListPending(ctx context.Context, filter repository.PendingFilter) ([]domain.RoleProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.RoleProfile
	for _, profile := range f.profiles {
		if profile.ApprovalStatus != domain.ApprovalStatusPending {
			continue
		}
		if filter.Type != nil && profile.Type != *filter.Type {
			continue
		}
		if filter.RegistrarID != nil {
			identity, err := f.identityRepo.GetByID(ctx, profile.UserID)
			if err != nil || identity.CreatedByID == nil || *identity.CreatedByID != *filter.RegistrarID {
				continue
			}
		}
		out = append(out, *profile)
	}
	return out, nil
}

func (f *fakeProfileRepo) ListByGeneralSupervisor(ctx context.Context, generalSupervisorProfileID string) ([]domain.RoleProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.RoleProfile
	for _, profile := range f.profiles {
		if profile.GeneralSupervisorID != nil && *profile.GeneralSupervisorID == generalSupervisorProfileID {
			out = append(out, *profile)
		}
	}
	return out, nil
}

func (f *fakeProfileRepo) Resolve(ctx context.Context, id string, res repository.ProfileResolution) (*domain.RoleProfile, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.profiles[id]
	if !ok {
		return nil, "", apperrors.NewNotFound("profile", map[string]any{"profile_id": id})
	}
	if profile.ApprovalStatus != domain.ApprovalStatusPending {
		return nil, "", apperrors.NewNotPending(id)
	}
	captured := ""
	if profile.RawPassword != nil {
		captured = *profile.RawPassword
	}
	profile.ApprovalStatus = res.Status
	profile.ApprovedByID = &res.ResolvedByID
	resolvedAt := res.ResolvedAt
	profile.ApprovedAt = &resolvedAt
	profile.RejectionReason = res.RejectionReason
	profile.RawPassword = nil
	profile.UpdatedAt = time.Now()
	copied := *profile
	return &copied, captured, nil
}

// seed inserts a profile with a fixed ID.
func (f *fakeProfileRepo) seed(profile *domain.RoleProfile) *domain.RoleProfile {
	f.mu.Lock()
	defer f.mu.Unlock()
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	stored := *profile
	f.profiles[profile.ID] = &stored
	return profile
}

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications map[string]*domain.Notification
	order         []string
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{notifications: make(map[string]*domain.Notification)}
}

func (f *fakeNotificationRepo) Create(ctx context.Context, notification *domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	notification.ID = uuid.NewString()
	notification.SentAt = time.Now()
	stored := *notification
	f.notifications[notification.ID] = &stored
	f.order = append(f.order, notification.ID)
	return nil
}

func (f *fakeNotificationRepo) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	notification, ok := f.notifications[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return copyNotification(notification), nil
}

func (f *fakeNotificationRepo) ListByReceiver(ctx context.Context, receiverID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Notification
	for _, id := range f.order {
		notification := f.notifications[id]
		if notification.ReceiverID != receiverID {
			continue
		}
		if unreadOnly && notification.IsRead {
			continue
		}
		out = append(out, *copyNotification(notification))
	}
	return out, nil
}

func (f *fakeNotificationRepo) IncrementView(ctx context.Context, id string) (*domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	notification, ok := f.notifications[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if notification.ViewCount >= notification.MaxViews {
		return nil, pgx.ErrNoRows
	}
	notification.ViewCount++
	return copyNotification(notification), nil
}

func (f *fakeNotificationRepo) MarkRead(ctx context.Context, id, receiverID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	notification, ok := f.notifications[id]
	if !ok || notification.ReceiverID != receiverID {
		return pgx.ErrNoRows
	}
	notification.IsRead = true
	return nil
}

func (f *fakeNotificationRepo) MarkAllRead(ctx context.Context, receiverID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, notification := range f.notifications {
		if notification.ReceiverID == receiverID && !notification.IsRead {
			notification.IsRead = true
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationRepo) CountUnread(ctx context.Context, receiverID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, notification := range f.notifications {
		if notification.ReceiverID == receiverID && !notification.IsRead {
			count++
		}
	}
	return count, nil
}

func copyNotification(notification *domain.Notification) *domain.Notification {
	copied := *notification
	if notification.Metadata != nil {
		copied.Metadata = make(map[string]any, len(notification.Metadata))
		for k, v := range notification.Metadata {
			copied.Metadata[k] = v
		}
	}
	return &copied
}

type fakeActivityRepo struct {
	mu      sync.Mutex
	entries []domain.ActivityLogEntry
}

func newFakeActivityRepo() *fakeActivityRepo {
	return &fakeActivityRepo{}
}

func (f *fakeActivityRepo) Create(ctx context.Context, entry *domain.ActivityLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.ID = uuid.NewString()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeActivityRepo) ListRecent(ctx context.Context, limit int) ([]domain.ActivityLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit <= 0 || limit > len(f.entries) {
		limit = len(f.entries)
	}
	out := make([]domain.ActivityLogEntry, 0, limit)
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.entries[i])
	}
	return out, nil
}

func (f *fakeActivityRepo) ListPaginated(ctx context.Context, page, limit int, filter repository.ActivityFilter) ([]domain.ActivityLogEntry, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []domain.ActivityLogEntry
	for _, entry := range f.entries {
		if filter.UserID != nil && entry.UserID != *filter.UserID {
			continue
		}
		if filter.Action != nil && entry.Action != *filter.Action {
			continue
		}
		matched = append(matched, entry)
	}
	return matched, int64(len(matched)), nil
}

type fakeUnreadCache struct {
	mu          sync.Mutex
	counts      map[string]int
	invalidated []string
}

func newFakeUnreadCache() *fakeUnreadCache {
	return &fakeUnreadCache{counts: make(map[string]int)}
}

func (f *fakeUnreadCache) Get(ctx context.Context, receiverID string) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count, ok := f.counts[receiverID]
	return count, ok
}

func (f *fakeUnreadCache) Set(ctx context.Context, receiverID string, count int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[receiverID] = count
}

func (f *fakeUnreadCache) Invalidate(ctx context.Context, receiverID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.counts, receiverID)
	f.invalidated = append(f.invalidated, receiverID)
}
