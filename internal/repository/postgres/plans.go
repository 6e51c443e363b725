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

type PlanRepo struct {
	DB DBTX
}

const createPlan = `-- name: CreatePlan
INSERT INTO plans (id, gym_id, name, price, duration_days)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at, gym_id, name, price, duration_days
`

func (r *PlanRepo) Create(ctx context.Context, plan models.Plan) (models.Plan, error) {
	id := plan.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, createPlan, id, plan.GymID, plan.Name, plan.Price, plan.DurationDays)
	created, err := pgx.CollectOneRow(rows, rowToPlan)

	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return created, nil
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation:
		return created, apperrors.ErrPlanNameTaken
	default:
		return created, fmt.Errorf("db error: %w", err)
	}
}

const getPlanByID = `-- name: GetPlanByID
SELECT id, created_at, gym_id, name, price, duration_days
FROM plans
WHERE id = $1
`

func (r *PlanRepo) GetByID(ctx context.Context, id uuid.UUID) (models.Plan, error) {
	rows, _ := r.DB.Query(ctx, getPlanByID, id)
	plan, err := pgx.CollectOneRow(rows, rowToPlan)

	switch {
	case err == nil:
		return plan, nil
	case errors.Is(err, pgx.ErrNoRows):
		return plan, apperrors.ErrPlanNotFound
	default:
		return plan, fmt.Errorf("db error: %w", err)
	}
}

const listPlansByGym = `-- name: ListPlansByGym
SELECT id, created_at, gym_id, name, price, duration_days
FROM plans
WHERE gym_id = $1
ORDER BY created_at
`

func (r *PlanRepo) ListByGym(ctx context.Context, gymID uuid.UUID) ([]models.Plan, error) {
	rows, _ := r.DB.Query(ctx, listPlansByGym, gymID)
	plans, err := pgx.CollectRows(rows, rowToPlan)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return plans, nil
}

const deletePlan = `-- name: DeletePlan
DELETE FROM plans
WHERE gym_id = $1 AND id = $2
`

func (r *PlanRepo) Delete(ctx context.Context, gymID uuid.UUID, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deletePlan, gymID, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrPlanNotFound
	}

	return nil
}

func rowToPlan(row pgx.CollectableRow) (models.Plan, error) {
	var p models.Plan
	err := row.Scan(&p.ID, &p.CreatedAt, &p.GymID, &p.Name, &p.Price, &p.DurationDays)
	return p, err
}
