package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avkuzmin/gymcore/internal/handlers/middleware"
	"github.com/avkuzmin/gymcore/internal/logger"
	"github.com/avkuzmin/gymcore/internal/models"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	memberService memberService,
	planService planService,
	logger logger.Logger,
) http.Handler {
	session := middleware.SessionMiddleware(authService)
	gymOnly := func(h http.Handler) http.Handler {
		return chain(h, session, middleware.RequireRoles(models.RoleGym))
	}

	apiauth := http.NewServeMux()

	apiauth.Handle("POST /signup/initiate", handleInitiateSignup(authService, logger))
	apiauth.Handle("POST /signup/complete", handleCompleteSignup(authService, logger))
	apiauth.Handle("POST /login", handleLogin(authService, logger))
	apiauth.Handle("POST /logout", handleLogout(authService))
	apiauth.Handle("POST /password/forgot", handleForgotPassword(authService, logger))
	apiauth.Handle("POST /password/reset", handleResetPassword(authService, logger))
	apiauth.Handle("POST /activate", handleActivate(authService, logger))

	api := http.NewServeMux()
	api.Handle("/auth/", http.StripPrefix("/auth", apiauth))

	api.Handle("POST /members/invite", gymOnly(handleInviteMember(memberService, logger)))
	api.Handle("GET /members", gymOnly(handleListMembers(memberService, logger)))

	api.Handle("POST /plans", gymOnly(handleCreatePlan(planService, logger)))
	api.Handle("GET /plans", gymOnly(handleListPlans(planService, logger)))
	api.Handle("DELETE /plans/{id}", gymOnly(handleDeletePlan(planService, logger)))

	api.Handle("GET /me", session(handleMe()))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type authService interface {
	// Signup: code dispatch then account creation
	// Has to return apperrors.ErrEmailTaken if the email is registered and
	// apperrors.ErrOTPInvalid on a wrong or expired code
	InitiateSignup(ctx context.Context, email string) error
	CompleteSignup(ctx context.Context, email string, code string, fullName string, password string) (models.Identity, models.TokenPair, error)

	// Login with role-scoped credentials
	// Wrong email and wrong password collapse to apperrors.ErrInvalidCredentials
	Login(ctx context.Context, role models.Role, email string, password string) (models.TokenPair, error)

	// Password reset and staff activation flows
	ForgotPassword(ctx context.Context, role models.Role, email string) error
	ResetPassword(ctx context.Context, role models.Role, email string, code string, newPassword string) error
	ActivateAccount(ctx context.Context, role models.Role, email string, code string, password string) (models.TokenPair, error)

	// Session resolution for the middleware: non-nil pair means rotation
	Authenticate(ctx context.Context, access string, refresh string) (models.Principal, *models.TokenPair, error)

	// Token plumbing between service and HTTP layer
	SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair)
	SetRotatedPairToResponse(w http.ResponseWriter, pair models.TokenPair)
	ClearRefreshCookie(w http.ResponseWriter)
	GetAccessString(r *http.Request) string
	GetRefreshString(r *http.Request) (string, error)
}

type memberService interface {
	InviteMember(ctx context.Context, gymID uuid.UUID, role models.Role, email string, fullName string) (models.Identity, error)
	ListMembers(ctx context.Context, gymID uuid.UUID, role models.Role) ([]models.Identity, error)
}

type planService interface {
	CreatePlan(ctx context.Context, gymID uuid.UUID, name string, price decimal.Decimal, durationDays int) (models.Plan, error)
	ListPlans(ctx context.Context, gymID uuid.UUID) ([]models.Plan, error)
	DeletePlan(ctx context.Context, gymID uuid.UUID, planID uuid.UUID) error
}
