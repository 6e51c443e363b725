package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avkuzmin/gymcore/internal/apperrors"
	"github.com/avkuzmin/gymcore/internal/models"
)

// IdentityRepo stores one principal kind
// The four kinds share the schema except tenant scoped ones carry gym_id,
// so the repo is parameterized by table instead of written four times
type IdentityRepo struct {
	DB    DBTX
	table string
	role  models.Role
}

func (r *IdentityRepo) columns() string {
	if r.role.IsTenantScoped() {
		return "id, created_at, gym_id, email, full_name, password_hash, is_blocked, is_deleted, is_verified"
	}
	return "id, created_at, email, full_name, password_hash, is_blocked, is_deleted, is_verified"
}

func (r *IdentityRepo) rowToIdentity(row pgx.CollectableRow) (models.Identity, error) {
	i := models.Identity{Role: r.role}
	if r.role.IsTenantScoped() {
		err := row.Scan(&i.ID, &i.CreatedAt, &i.GymID, &i.Email, &i.FullName, &i.HashedPassword, &i.IsBlocked, &i.IsDeleted, &i.IsVerified)
		return i, err
	}
	err := row.Scan(&i.ID, &i.CreatedAt, &i.Email, &i.FullName, &i.HashedPassword, &i.IsBlocked, &i.IsDeleted, &i.IsVerified)
	return i, err
}

func (r *IdentityRepo) Create(ctx context.Context, identity models.Identity) (models.Identity, error) {
	var query string
	var args []any

	id := identity.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	switch {
	case r.role.IsTenantScoped():
		query = fmt.Sprintf(`-- name: CreateIdentity
INSERT INTO %s (id, gym_id, email, full_name, password_hash, is_blocked, is_deleted, is_verified)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING %s`, r.table, r.columns())
		args = []any{id, identity.GymID, identity.Email, identity.FullName, identity.HashedPassword, identity.IsBlocked, identity.IsDeleted, identity.IsVerified}
	default:
		query = fmt.Sprintf(`-- name: CreateIdentity
INSERT INTO %s (id, email, full_name, password_hash, is_blocked, is_deleted, is_verified)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING %s`, r.table, r.columns())
		args = []any{id, identity.Email, identity.FullName, identity.HashedPassword, identity.IsBlocked, identity.IsDeleted, identity.IsVerified}
	}

	rows, _ := r.DB.Query(ctx, query, args...)
	created, err := pgx.CollectOneRow(rows, r.rowToIdentity)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return created, apperrors.ErrEmailTaken
		}

		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

func (r *IdentityRepo) GetByID(ctx context.Context, id uuid.UUID) (models.Identity, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", r.columns(), r.table)

	rows, _ := r.DB.Query(ctx, query, id)
	identity, err := pgx.CollectOneRow(rows, r.rowToIdentity)

	switch {
	case err == nil:
		return identity, nil
	case errors.Is(err, pgx.ErrNoRows):
		return identity, apperrors.ErrIdentityNotFound
	default:
		return identity, fmt.Errorf("db error: %w", err)
	}
}

func (r *IdentityRepo) GetByEmail(ctx context.Context, email string) (models.Identity, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE email = $1", r.columns(), r.table)

	rows, _ := r.DB.Query(ctx, query, email)
	identity, err := pgx.CollectOneRow(rows, r.rowToIdentity)

	switch {
	case err == nil:
		return identity, nil
	case errors.Is(err, pgx.ErrNoRows):
		return identity, apperrors.ErrIdentityNotFound
	default:
		return identity, fmt.Errorf("db error: %w", err)
	}
}

func (r *IdentityRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hashedPassword string) error {
	query := fmt.Sprintf("UPDATE %s SET password_hash = $2 WHERE id = $1", r.table)

	tag, err := r.DB.Exec(ctx, query, id, hashedPassword)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrIdentityNotFound
	}

	return nil
}

func (r *IdentityRepo) SetVerified(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf("UPDATE %s SET is_verified = TRUE WHERE id = $1", r.table)

	tag, err := r.DB.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrIdentityNotFound
	}

	return nil
}

func (r *IdentityRepo) SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error {
	query := fmt.Sprintf("UPDATE %s SET is_blocked = $2 WHERE id = $1", r.table)

	tag, err := r.DB.Exec(ctx, query, id, blocked)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrIdentityNotFound
	}

	return nil
}

func (r *IdentityRepo) ListByGym(ctx context.Context, gymID uuid.UUID) ([]models.Identity, error) {
	if !r.role.IsTenantScoped() {
		return nil, apperrors.ErrIdentityNotFound
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE gym_id = $1 ORDER BY created_at", r.columns(), r.table)

	rows, _ := r.DB.Query(ctx, query, gymID)
	identities, err := pgx.CollectRows(rows, r.rowToIdentity)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return identities, nil
}
