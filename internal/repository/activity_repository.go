package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/personnel-service/internal/domain"
)

// ActivityFilter narrows paginated audit queries.
type ActivityFilter struct {
	UserID     *string
	Action     *domain.ActivityAction
	EntityType *string
	From       *time.Time
	To         *time.Time
}

// ActivityRepository stores the append-only audit log. There are no update
// or delete operations.
type ActivityRepository interface {
	Create(ctx context.Context, entry *domain.ActivityLogEntry) error
	ListRecent(ctx context.Context, limit int) ([]domain.ActivityLogEntry, error)
	ListPaginated(ctx context.Context, page, limit int, filter ActivityFilter) ([]domain.ActivityLogEntry, int64, error)
}

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository builds the repository.
func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepository{pool: pool}
}

const activityColumns = `id, user_id, action, entity_type, entity_id, metadata, ip_address, user_agent, created_at`

func (r *activityRepository) Create(ctx context.Context, entry *domain.ActivityLogEntry) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return err
	}

	const query = `
        INSERT INTO activity_log (user_id, action, entity_type, entity_id, metadata, ip_address, user_agent)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		entry.UserID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		metadata,
		entry.IPAddress,
		entry.UserAgent,
	).Scan(&entry.ID, &entry.Timestamp)
}

func (r *activityRepository) ListRecent(ctx context.Context, limit int) ([]domain.ActivityLogEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `SELECT ` + activityColumns + ` FROM activity_log ORDER BY created_at DESC LIMIT $1`
	return r.list(ctx, query, limit)
}

func (r *activityRepository) ListPaginated(ctx context.Context, page, limit int, filter ActivityFilter) ([]domain.ActivityLogEntry, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}

	args := []any{}
	clauses := []string{}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id=$%d", len(args)))
	}
	if filter.Action != nil {
		args = append(args, *filter.Action)
		clauses = append(clauses, fmt.Sprintf("action=$%d", len(args)))
	}
	if filter.EntityType != nil {
		args = append(args, *filter.EntityType)
		clauses = append(clauses, fmt.Sprintf("entity_type=$%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM activity_log` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + activityColumns + ` FROM activity_log` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d OFFSET %d", limit, (page-1)*limit)
	entries, err := r.list(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *activityRepository) list(ctx context.Context, query string, args ...any) ([]domain.ActivityLogEntry, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ActivityLogEntry
	for rows.Next() {
		var entry domain.ActivityLogEntry
		var metadata []byte
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Action,
			&entry.EntityType,
			&entry.EntityID,
			&metadata,
			&entry.IPAddress,
			&entry.UserAgent,
			&entry.Timestamp,
		); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
				return nil, err
			}
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
