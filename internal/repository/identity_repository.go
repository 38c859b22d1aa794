package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/personnel-service/internal/domain"
	apperrors "github.com/spec-kit/personnel-service/pkg/util/errorutil"
)

// IdentityRepository handles persistence for staff identities. Create maps
// unique-index violations on email/phone to the matching domain error, which
// is the authoritative duplicate check.
type IdentityRepository interface {
	Create(ctx context.Context, identity *domain.Identity) error
	GetByID(ctx context.Context, id string) (*domain.Identity, error)
	GetByEmail(ctx context.Context, email string) (*domain.Identity, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Identity, error)
	ListByRoles(ctx context.Context, roles []domain.Role, onlyActive bool) ([]domain.Identity, error)
	UpdateStatus(ctx context.Context, id string, status domain.IdentityStatus) error
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

type identityRepository struct {
	pool *pgxpool.Pool
}

// NewIdentityRepository instantiates the repository.
func NewIdentityRepository(pool *pgxpool.Pool) IdentityRepository {
	return &identityRepository{pool: pool}
}

const identityColumns = `id, email, phone, password_hash, role, status, employee_id, created_by_id, last_login, created_at, updated_at`

func (r *identityRepository) Create(ctx context.Context, identity *domain.Identity) error {
	const query = `
        INSERT INTO identities (email, phone, password_hash, role, status, employee_id, created_by_id)
        VALUES (LOWER($1),$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		identity.Email,
		identity.Phone,
		identity.PasswordHash,
		identity.Role,
		identity.Status,
		identity.EmployeeID,
		identity.CreatedByID,
	).Scan(&identity.ID, &identity.CreatedAt, &identity.UpdatedAt)
	if err != nil {
		return mapUniqueViolation(err, identity)
	}
	identity.Email = strings.ToLower(identity.Email)
	return nil
}

func mapUniqueViolation(err error, identity *domain.Identity) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch {
		case strings.Contains(pgErr.ConstraintName, "email"):
			return apperrors.NewDuplicateEmail(identity.Email)
		case strings.Contains(pgErr.ConstraintName, "phone"):
			return apperrors.NewDuplicatePhone(identity.Phone)
		case strings.Contains(pgErr.ConstraintName, "employee"):
			return apperrors.NewConflict("employee id already exists", map[string]any{"employee_id": identity.EmployeeID})
		}
	}
	return err
}

func (r *identityRepository) GetByID(ctx context.Context, id string) (*domain.Identity, error) {
	const query = `SELECT ` + identityColumns + ` FROM identities WHERE id=$1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *identityRepository) GetByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	const query = `SELECT ` + identityColumns + ` FROM identities WHERE email=LOWER($1)`
	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *identityRepository) GetByPhone(ctx context.Context, phone string) (*domain.Identity, error) {
	const query = `SELECT ` + identityColumns + ` FROM identities WHERE phone=$1`
	return r.scanOne(r.pool.QueryRow(ctx, query, phone))
}

func (r *identityRepository) ListByRoles(ctx context.Context, roles []domain.Role, onlyActive bool) ([]domain.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE role = ANY($1)`
	if onlyActive {
		query += ` AND status='ACTIVE'`
	}
	query += ` ORDER BY created_at ASC`

	roleNames := make([]string, len(roles))
	for i, role := range roles {
		roleNames[i] = string(role)
	}

	rows, err := r.pool.Query(ctx, query, roleNames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Identity
	for rows.Next() {
		identity, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *identity)
	}
	return result, rows.Err()
}

func (r *identityRepository) UpdateStatus(ctx context.Context, id string, status domain.IdentityStatus) error {
	const query = `UPDATE identities SET status=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *identityRepository) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE identities SET password_hash=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *identityRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE identities SET last_login=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.pool.Exec(ctx, query, at, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *identityRepository) scanOne(row rowScanner) (*domain.Identity, error) {
	var identity domain.Identity
	if err := row.Scan(
		&identity.ID,
		&identity.Email,
		&identity.Phone,
		&identity.PasswordHash,
		&identity.Role,
		&identity.Status,
		&identity.EmployeeID,
		&identity.CreatedByID,
		&identity.LastLogin,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &identity, nil
}
