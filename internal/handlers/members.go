package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/avkuzmin/gymcore/internal/apperrors"
	"github.com/avkuzmin/gymcore/internal/handlers/principalctx"
	"github.com/avkuzmin/gymcore/internal/handlers/render"
	"github.com/avkuzmin/gymcore/internal/logger"
	"github.com/avkuzmin/gymcore/internal/models"
)

func handleInviteMember(memberService memberService, l logger.Logger) http.Handler {
	type request struct {
		Role  string `json:"role" validate:"required,oneof=trainer client"`
		Email string `json:"email" validate:"required,email"`
		Name  string `json:"name" validate:"required,min=2,max=100"`
	}
	type response struct {
		ID      uuid.UUID `json:"id"`
		Message string    `json:"message"`
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

		invited, err := memberService.InviteMember(r.Context(), principal.TenantID(), models.Role(data.Role), data.Email, data.Name)

		switch {
		case err == nil:
			render.JSON(w, response{ID: invited.ID, Message: "Invitation sent"})
		case errors.Is(err, apperrors.ErrEmailTaken):
			render.ServiceError(w, "Email already registered", http.StatusConflict)
		case errors.Is(err, apperrors.ErrForbidden):
			render.ServiceError(w, "Role cannot be invited", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrNotifyFailed):
			l.Error("Failed to send activation code", "error", err)
			render.ServiceError(w, "Failed to send activation code", http.StatusBadGateway)
		default:
			l.Error("Failed to invite member", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListMembers(memberService memberService, l logger.Logger) http.Handler {
	type member struct {
		ID        uuid.UUID `json:"id"`
		Role      string    `json:"role"`
		Email     string    `json:"email"`
		Name      string    `json:"name"`
		Active    bool      `json:"active"`
		CreatedAt time.Time `json:"created_at"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := principalctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		role, err := models.ParseRole(r.URL.Query().Get("role"))
		if err != nil || !role.IsTenantScoped() {
			render.ServiceError(w, "Query param 'role' must be 'trainer' or 'client'", http.StatusBadRequest)
			return
		}

		identities, err := memberService.ListMembers(r.Context(), principal.TenantID(), role)

		switch err {
		case nil:
			members := make([]member, 0, len(identities))
			for _, identity := range identities {
				members = append(members, member{
					ID:        identity.ID,
					Role:      identity.Role.String(),
					Email:     identity.Email,
					Name:      identity.FullName,
					Active:    identity.IsVerified && !identity.IsBlocked && !identity.IsDeleted,
					CreatedAt: identity.CreatedAt,
				})
			}
			render.JSON(w, members)
		default:
			l.Error("Failed to list members", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
