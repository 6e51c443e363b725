package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/avkuzmin/gymcore/internal/models"
)

// Identity repository interface
// One implementation exists per principal kind, all with the same contract
type IdentityRepo interface {
	// Create identity
	// If an identity with the email exists already has to return apperrors.ErrEmailTaken
	Create(ctx context.Context, identity models.Identity) (models.Identity, error)

	// Get identity by id or email
	// If identity not found must return apperrors.ErrIdentityNotFound
	GetByID(ctx context.Context, id uuid.UUID) (models.Identity, error)
	GetByEmail(ctx context.Context, email string) (models.Identity, error)

	// Replace stored password hash
	UpdatePassword(ctx context.Context, id uuid.UUID, hashedPassword string) error

	// Mark identity verified (account activation completed)
	SetVerified(ctx context.Context, id uuid.UUID) error

	// Toggle blocked flag
	SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error

	// List identities belonging to a gym
	// Non tenant scoped kinds return apperrors.ErrIdentityNotFound
	ListByGym(ctx context.Context, gymID uuid.UUID) ([]models.Identity, error)
}

// IdentityStore selects the identity repository for a role
// The role carried in token claims picks the adapter, callers never know
// which concrete table is behind it
type IdentityStore interface {
	ByRole(role models.Role) (IdentityRepo, error)
}

// Plan repository interface
type PlanRepo interface {
	// Create plan scoped to a gym
	Create(ctx context.Context, plan models.Plan) (models.Plan, error)

	// Get plan by id
	// If plan not found must return apperrors.ErrPlanNotFound
	GetByID(ctx context.Context, id uuid.UUID) (models.Plan, error)

	// List plans of a gym ordered by creation time
	ListByGym(ctx context.Context, gymID uuid.UUID) ([]models.Plan, error)

	// Delete plan owned by the gym
	// If plan not found must return apperrors.ErrPlanNotFound
	Delete(ctx context.Context, gymID uuid.UUID, id uuid.UUID) error
}
