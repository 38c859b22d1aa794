package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/personnel-service/internal/domain"
)

// NotificationRepository handles persistence for inbox notifications.
//
// IncrementView is the only mutation requiring atomic compare-and-increment:
// the conditional UPDATE guarantees view_count never exceeds max_views even
// under concurrent viewers. Records are never deleted.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	ListByReceiver(ctx context.Context, receiverID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error)
	IncrementView(ctx context.Context, id string) (*domain.Notification, error)
	MarkRead(ctx context.Context, id, receiverID string) error
	MarkAllRead(ctx context.Context, receiverID string) (int64, error)
	CountUnread(ctx context.Context, receiverID string) (int, error)
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository instantiates the repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

const notificationColumns = `id, sender_id, receiver_id, type, subject, message, metadata, view_count, max_views, is_read, sent_at`

func (r *notificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	metadata, err := json.Marshal(notification.Metadata)
	if err != nil {
		return err
	}

	const query = `
        INSERT INTO notifications (sender_id, receiver_id, type, subject, message, metadata, view_count, max_views, is_read)
        VALUES ($1,$2,$3,$4,$5,$6,0,$7,FALSE)
        RETURNING id, sent_at`

	return r.pool.QueryRow(ctx, query,
		notification.SenderID,
		notification.ReceiverID,
		notification.Type,
		notification.Subject,
		notification.Message,
		metadata,
		notification.MaxViews,
	).Scan(&notification.ID, &notification.SentAt)
}

func (r *notificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	const query = `SELECT ` + notificationColumns + ` FROM notifications WHERE id=$1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *notificationRepository) ListByReceiver(ctx context.Context, receiverID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE receiver_id=$1`
	if unreadOnly {
		query += ` AND is_read=FALSE`
	}
	query += ` ORDER BY sent_at DESC`
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query += ` LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, receiverID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		notification, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *notification)
	}
	return result, rows.Err()
}

// IncrementView bumps view_count by one, but only while it is below
// max_views. pgx.ErrNoRows signals either a missing record or a spent
// limit; callers disambiguate with GetByID.
func (r *notificationRepository) IncrementView(ctx context.Context, id string) (*domain.Notification, error) {
	const query = `
        UPDATE notifications
        SET view_count = view_count + 1
        WHERE id=$1 AND view_count < max_views
        RETURNING ` + notificationColumns

	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, receiverID string) error {
	const query = `UPDATE notifications SET is_read=TRUE WHERE id=$1 AND receiver_id=$2`
	cmd, err := r.pool.Exec(ctx, query, id, receiverID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, receiverID string) (int64, error) {
	const query = `UPDATE notifications SET is_read=TRUE WHERE receiver_id=$1 AND is_read=FALSE`
	cmd, err := r.pool.Exec(ctx, query, receiverID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, receiverID string) (int, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE receiver_id=$1 AND is_read=FALSE`
	var count int
	if err := r.pool.QueryRow(ctx, query, receiverID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *notificationRepository) scanOne(row rowScanner) (*domain.Notification, error) {
	var notification domain.Notification
	var metadata []byte
	if err := row.Scan(
		&notification.ID,
		&notification.SenderID,
		&notification.ReceiverID,
		&notification.Type,
		&notification.Subject,
		&notification.Message,
		&metadata,
		&notification.ViewCount,
		&notification.MaxViews,
		&notification.IsRead,
		&notification.SentAt,
	); err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &notification.Metadata); err != nil {
			return nil, err
		}
	}
	return &notification, nil
}
