package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/avkuzmin/gymcore/internal/handlers/principalctx"
	"github.com/avkuzmin/gymcore/internal/handlers/render"
)

func handleMe() http.Handler {
	type response struct {
		ID    uuid.UUID  `json:"id"`
		Role  string     `json:"role"`
		GymID *uuid.UUID `json:"gym_id,omitempty"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, _ := principalctx.FromContext(r.Context())
		render.JSON(w, response{ID: principal.ID, Role: principal.Role.String(), GymID: principal.GymID})
	})
}
