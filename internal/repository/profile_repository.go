package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/personnel-service/internal/domain"
	apperrors "github.com/spec-kit/personnel-service/pkg/util/errorutil"
)

// ProfileResolution carries the terminal state applied to a pending profile.
type ProfileResolution struct {
	Status          domain.ApprovalStatus
	ResolvedByID    string
	ResolvedAt      time.Time
	RejectionReason *string
}

// PendingFilter narrows pending-approval listings.
type PendingFilter struct {
	Type        *domain.ProfileType
	RegistrarID *string
	Limit       int
	Offset      int
}

// ProfileRepository handles persistence for role profiles.
//
// Resolve is the compare-and-swap gate of the approval workflow: it moves a
// profile out of PENDING, clears raw_password and captures its pre-update
// value in a single statement, so concurrent resolutions serialize at the
// store and the loser observes NotPending.
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.RoleProfile) error
	GetByID(ctx context.Context, id string) (*domain.RoleProfile, error)
	GetByUserID(ctx context.Context, userID string) (*domain.RoleProfile, error)
	ListPending(ctx context.Context, filter PendingFilter) ([]domain.RoleProfile, error)
	ListByGeneralSupervisor(ctx context.Context, generalSupervisorProfileID string) ([]domain.RoleProfile, error)
	Resolve(ctx context.Context, id string, res ProfileResolution) (*domain.RoleProfile, string, error)
}

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository instantiates the repository.
func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepository{pool: pool}
}

const profileColumns = `id, user_id, employee_id, full_name, profile_type, general_supervisor_id, supervisor_id, approval_status, raw_password, approved_by_id, approved_at, rejection_reason, created_at, updated_at`

func (r *profileRepository) Create(ctx context.Context, profile *domain.RoleProfile) error {
	const query = `
        INSERT INTO role_profiles (user_id, employee_id, full_name, profile_type, general_supervisor_id, supervisor_id, approval_status, raw_password)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		profile.UserID,
		profile.EmployeeID,
		profile.FullName,
		profile.Type,
		profile.GeneralSupervisorID,
		profile.SupervisorID,
		profile.ApprovalStatus,
		profile.RawPassword,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.RoleProfile, error) {
	const query = `SELECT ` + profileColumns + ` FROM role_profiles WHERE id=$1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID string) (*domain.RoleProfile, error) {
	const query = `SELECT ` + profileColumns + ` FROM role_profiles WHERE user_id=$1`
	return r.scanOne(r.pool.QueryRow(ctx, query, userID))
}

func (r *profileRepository) ListPending(ctx context.Context, filter PendingFilter) ([]domain.RoleProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM role_profiles WHERE approval_status='PENDING'`
	args := []any{}
	clauses := []string{}

	if filter.Type != nil {
		args = append(args, *filter.Type)
		clauses = append(clauses, fmt.Sprintf("profile_type=$%d", len(args)))
	}
	if filter.RegistrarID != nil {
		args = append(args, *filter.RegistrarID)
		clauses = append(clauses, fmt.Sprintf("user_id IN (SELECT id FROM identities WHERE created_by_id=$%d)", len(args)))
	}
	if len(clauses) > 0 {
		query += " AND " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY created_at ASC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	return r.list(ctx, query, args...)
}

func (r *profileRepository) ListByGeneralSupervisor(ctx context.Context, generalSupervisorProfileID string) ([]domain.RoleProfile, error) {
	const query = `SELECT ` + profileColumns + ` FROM role_profiles WHERE general_supervisor_id=$1 ORDER BY created_at ASC`
	return r.list(ctx, query, generalSupervisorProfileID)
}

// Resolve applies the PENDING -> terminal transition. The second return
// value is the raw password the profile held before the transition (empty
// on rejection or when none was stored).
func (r *profileRepository) Resolve(ctx context.Context, id string, res ProfileResolution) (*domain.RoleProfile, string, error) {
	// Self-join so RETURNING can expose the pre-update raw_password while
	// the row itself is cleared in the same statement.
	const query = `
        UPDATE role_profiles AS p
        SET approval_status=$2, approved_by_id=$3, approved_at=$4, rejection_reason=$5, raw_password=NULL, updated_at=NOW()
        FROM role_profiles AS prev
        WHERE p.id=prev.id AND p.id=$1 AND p.approval_status='PENDING'
        RETURNING p.id, p.user_id, p.employee_id, p.full_name, p.profile_type, p.general_supervisor_id, p.supervisor_id,
                  p.approval_status, p.raw_password, p.approved_by_id, p.approved_at, p.rejection_reason, p.created_at, p.updated_at,
                  prev.raw_password`

	var profile domain.RoleProfile
	var prevPassword *string
	err := r.pool.QueryRow(ctx, query,
		id,
		res.Status,
		res.ResolvedByID,
		res.ResolvedAt,
		res.RejectionReason,
	).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.EmployeeID,
		&profile.FullName,
		&profile.Type,
		&profile.GeneralSupervisorID,
		&profile.SupervisorID,
		&profile.ApprovalStatus,
		&profile.RawPassword,
		&profile.ApprovedByID,
		&profile.ApprovedAt,
		&profile.RejectionReason,
		&profile.CreatedAt,
		&profile.UpdatedAt,
		&prevPassword,
	)
	if err == pgx.ErrNoRows {
		// Either the profile does not exist or it already left PENDING.
		if _, getErr := r.GetByID(ctx, id); getErr == pgx.ErrNoRows {
			return nil, "", apperrors.NewNotFound("profile", map[string]any{"profile_id": id})
		} else if getErr != nil {
			return nil, "", getErr
		}
		return nil, "", apperrors.NewNotPending(id)
	}
	if err != nil {
		return nil, "", err
	}

	captured := ""
	if prevPassword != nil {
		captured = *prevPassword
	}
	return &profile, captured, nil
}

func (r *profileRepository) list(ctx context.Context, query string, args ...any) ([]domain.RoleProfile, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.RoleProfile
	for rows.Next() {
		profile, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *profile)
	}
	return result, rows.Err()
}

func (r *profileRepository) scanOne(row rowScanner) (*domain.RoleProfile, error) {
	var profile domain.RoleProfile
	if err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.EmployeeID,
		&profile.FullName,
		&profile.Type,
		&profile.GeneralSupervisorID,
		&profile.SupervisorID,
		&profile.ApprovalStatus,
		&profile.RawPassword,
		&profile.ApprovedByID,
		&profile.ApprovedAt,
		&profile.RejectionReason,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &profile, nil
}
