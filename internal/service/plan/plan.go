package plan

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avkuzmin/gymcore/internal/apperrors"
	"github.com/avkuzmin/gymcore/internal/models"
	"github.com/avkuzmin/gymcore/internal/repository"
)

// PlanService manages membership plans of a gym
// Ownership is always taken from the caller's principal, never the payload
type PlanService struct {
	plans repository.PlanRepo
}

func NewService(plans repository.PlanRepo) (*PlanService, error) {
	if plans == nil {
		return nil, errors.New("plan repo must not be nil")
	}

	return &PlanService{plans: plans}, nil
}

func (s *PlanService) CreatePlan(ctx context.Context, gymID uuid.UUID, name string, price decimal.Decimal, durationDays int) (models.Plan, error) {
	var plan models.Plan

	if price.IsNegative() {
		return plan, fmt.Errorf("%w: price must not be negative", apperrors.ErrPlanInvalid)
	}
	if durationDays <= 0 {
		return plan, fmt.Errorf("%w: duration must be positive", apperrors.ErrPlanInvalid)
	}

	plan, err := s.plans.Create(ctx, models.Plan{
		GymID:        gymID,
		Name:         name,
		Price:        price,
		DurationDays: durationDays,
	})
	if err != nil {
		return plan, fmt.Errorf("can't create plan. Err: %w", err)
	}

	return plan, nil
}

func (s *PlanService) ListPlans(ctx context.Context, gymID uuid.UUID) ([]models.Plan, error) {
	plans, err := s.plans.ListByGym(ctx, gymID)
	if err != nil {
		return nil, fmt.Errorf("can't list plans. Err: %w", err)
	}

	return plans, nil
}

func (s *PlanService) DeletePlan(ctx context.Context, gymID uuid.UUID, planID uuid.UUID) error {
	return s.plans.Delete(ctx, gymID, planID)
}
