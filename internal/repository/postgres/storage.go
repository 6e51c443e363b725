package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avkuzmin/gymcore/internal/apperrors"
	"github.com/avkuzmin/gymcore/internal/models"
	"github.com/avkuzmin/gymcore/internal/repository"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx
type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Storage struct {
	db DBTX
}

func NewStorage(db DBTX) *Storage {
	return &Storage{db: db}
}

// ByRole returns the identity repository backing the given principal kind
func (s *Storage) ByRole(role models.Role) (repository.IdentityRepo, error) {
	switch role {
	case models.RoleGym:
		return s.Gyms(), nil
	case models.RoleClient:
		return s.Clients(), nil
	case models.RoleTrainer:
		return s.Trainers(), nil
	case models.RoleSuperAdmin:
		return s.SuperAdmins(), nil
	default:
		return nil, fmt.Errorf("no identity repo for role %q: %w", role, apperrors.ErrIdentityNotFound)
	}
}

func (s *Storage) Gyms() repository.IdentityRepo {
	return &IdentityRepo{DB: s.db, table: "gyms", role: models.RoleGym}
}

func (s *Storage) Clients() repository.IdentityRepo {
	return &IdentityRepo{DB: s.db, table: "clients", role: models.RoleClient}
}

func (s *Storage) Trainers() repository.IdentityRepo {
	return &IdentityRepo{DB: s.db, table: "trainers", role: models.RoleTrainer}
}

func (s *Storage) SuperAdmins() repository.IdentityRepo {
	return &IdentityRepo{DB: s.db, table: "superadmins", role: models.RoleSuperAdmin}
}

func (s *Storage) Plans() repository.PlanRepo {
	return &PlanRepo{DB: s.db}
}
