package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/avkuzmin/gymcore/internal/apperrors"
	"github.com/avkuzmin/gymcore/internal/handlers/principalctx"
	"github.com/avkuzmin/gymcore/internal/handlers/render"
	"github.com/avkuzmin/gymcore/internal/models"
)

type sessionService interface {
	// Resolve request credentials into a principal
	// Non-nil pair means rotation happened and must be surfaced
	Authenticate(ctx context.Context, access string, refresh string) (models.Principal, *models.TokenPair, error)

	// Credential plumbing
	GetAccessString(r *http.Request) string
	GetRefreshString(r *http.Request) (string, error)
	SetRotatedPairToResponse(w http.ResponseWriter, pair models.TokenPair)
}

// SessionMiddleware validates the access token and, failing that, tries
// the refresh cookie: identity status is re-checked and a fresh pair is
// attached to the response before the wrapped handler runs.
//
// Rotation is deliberately not transactional with the handler: once the
// status check passed the new refresh cookie is set even if the handler
// fails afterwards.
func SessionMiddleware(s sessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access := s.GetAccessString(r)
			refresh, err := s.GetRefreshString(r)
			if err != nil {
				refresh = ""
			}

			principal, rotated, err := s.Authenticate(r.Context(), access, refresh)
			if err != nil {
				// Never explain why a credential failed
				switch {
				case errors.Is(err, apperrors.ErrForbidden):
					render.ServiceError(w, "Access denied", http.StatusForbidden)
				default:
					render.ServiceError(w, "Session expired", http.StatusUnauthorized)
				}
				return
			}

			if rotated != nil {
				s.SetRotatedPairToResponse(w, *rotated)
			}

			ctx := principalctx.New(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles rejects principals outside the allow-list with 403
// Must be chained strictly after SessionMiddleware
func RequireRoles(roles ...models.Role) func(http.Handler) http.Handler {
	allowed := make(map[models.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := principalctx.FromContext(r.Context())
			if !ok || !allowed[principal.Role] {
				render.ServiceError(w, "Access denied", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
