package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avkuzmin/gymcore/internal/apperrors"
	"github.com/avkuzmin/gymcore/internal/handlers/principalctx"
	"github.com/avkuzmin/gymcore/internal/handlers/render"
	"github.com/avkuzmin/gymcore/internal/logger"
)

type PlanResponse struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	DurationDays int             `json:"duration_days"`
	CreatedAt    time.Time       `json:"created_at"`
}

func handleCreatePlan(planService planService, l logger.Logger) http.Handler {
	type request struct {
		Name         string          `json:"name" validate:"required,min=2,max=100"`
		Price        decimal.Decimal `json:"price" validate:"required"`
		DurationDays int             `json:"duration_days" validate:"required,min=1"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := principalctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		plan, err := planService.CreatePlan(r.Context(), principal.TenantID(), data.Name, data.Price, data.DurationDays)

		switch {
		case err == nil:
			render.JSONWithStatus(w, PlanResponse{
				ID:           plan.ID,
				Name:         plan.Name,
				Price:        plan.Price,
				DurationDays: plan.DurationDays,
				CreatedAt:    plan.CreatedAt,
			}, http.StatusCreated)
		case errors.Is(err, apperrors.ErrPlanInvalid):
			render.ServiceError(w, "Invalid plan price or duration", http.StatusUnprocessableEntity)
		case errors.Is(err, apperrors.ErrPlanNameTaken):
			render.ServiceError(w, "Plan name already taken", http.StatusConflict)
		default:
			l.Error("Failed to create plan", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListPlans(planService planService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := principalctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		plans, err := planService.ListPlans(r.Context(), principal.TenantID())

		switch err {
		case nil:
			out := make([]PlanResponse, 0, len(plans))
			for _, plan := range plans {
				out = append(out, PlanResponse{
					ID:           plan.ID,
					Name:         plan.Name,
					Price:        plan.Price,
					DurationDays: plan.DurationDays,
					CreatedAt:    plan.CreatedAt,
				})
			}
			render.JSON(w, out)
		default:
			l.Error("Failed to list plans", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleDeletePlan(planService planService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := principalctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		planID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid plan id", http.StatusBadRequest)
			return
		}

		err = planService.DeletePlan(r.Context(), principal.TenantID(), planID)

		switch {
		case err == nil:
			w.WriteHeader(http.StatusNoContent)
		case errors.Is(err, apperrors.ErrPlanNotFound):
			render.ServiceError(w, "Plan not found", http.StatusNotFound)
		default:
			l.Error("Failed to delete plan", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
