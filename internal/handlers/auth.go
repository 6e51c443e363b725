package handlers

import (
	"errors"
	"net/http"

	"github.com/avkuzmin/gymcore/internal/apperrors"
	"github.com/avkuzmin/gymcore/internal/handlers/render"
	"github.com/avkuzmin/gymcore/internal/logger"
	"github.com/avkuzmin/gymcore/internal/models"
)

func handleInitiateSignup(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Email string `json:"email" validate:"required,email"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		err = authService.InitiateSignup(r.Context(), data.Email)

		switch {
		case err == nil:
			render.JSON(w, response{Message: "Verification code sent"})
		case errors.Is(err, apperrors.ErrEmailTaken):
			render.ServiceError(w, "Email already registered", http.StatusConflict)
		case errors.Is(err, apperrors.ErrNotifyFailed):
			l.Error("Failed to send signup code", "error", err)
			render.ServiceError(w, "Failed to send verification code", http.StatusBadGateway)
		default:
			l.Error("Failed to initiate signup", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleCompleteSignup(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required,email"`
		Code     string `json:"code" validate:"required,len=6,numeric"`
		Name     string `json:"name" validate:"required,min=2,max=100"`
		Password string `json:"password" validate:"required,min=8"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		_, pair, err := authService.CompleteSignup(r.Context(), data.Email, data.Code, data.Name, data.Password)

		switch {
		case err == nil:
			authService.SetTokenPairToResponse(w, pair)
			render.JSON(w, response{Message: "Gym registered successfully"})
		case errors.Is(err, apperrors.ErrOTPInvalid):
			render.ServiceError(w, "Invalid or expired code", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrEmailTaken):
			render.ServiceError(w, "Email already registered", http.StatusConflict)
		default:
			l.Error("Failed to complete signup", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleLogin(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Role     string `json:"role" validate:"required,role"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := authService.Login(r.Context(), models.Role(data.Role), data.Email, data.Password)

		switch {
		case err == nil:
			authService.SetTokenPairToResponse(w, pair)
			render.JSON(w, response{Message: "Logged in successfully"})
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			render.ServiceError(w, "Invalid email or password", http.StatusUnauthorized)
		case errors.Is(err, apperrors.ErrAccountBlocked):
			render.ServiceError(w, "Account is blocked", http.StatusForbidden)
		case errors.Is(err, apperrors.ErrAccountDeleted):
			render.ServiceError(w, "Account is deleted", http.StatusForbidden)
		case errors.Is(err, apperrors.ErrAccountNotActive):
			render.ServiceError(w, "Account is not activated", http.StatusForbidden)
		default:
			l.Error("Failed to login", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleLogout(authService authService) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authService.ClearRefreshCookie(w)
		render.JSON(w, response{Message: "Logged out"})
	})
}

func handleForgotPassword(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Role  string `json:"role" validate:"required,role"`
		Email string `json:"email" validate:"required,email"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		err = authService.ForgotPassword(r.Context(), models.Role(data.Role), data.Email)

		switch {
		case err == nil:
			render.JSON(w, response{Message: "Reset code sent"})
		case errors.Is(err, apperrors.ErrIdentityNotFound):
			render.ServiceError(w, "Account not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrNotifyFailed):
			l.Error("Failed to send reset code", "error", err)
			render.ServiceError(w, "Failed to send reset code", http.StatusBadGateway)
		default:
			l.Error("Failed to initiate password reset", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleResetPassword(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Role     string `json:"role" validate:"required,role"`
		Email    string `json:"email" validate:"required,email"`
		Code     string `json:"code" validate:"required,len=6,numeric"`
		Password string `json:"password" validate:"required,min=8"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		err = authService.ResetPassword(r.Context(), models.Role(data.Role), data.Email, data.Code, data.Password)

		switch {
		case err == nil:
			render.JSON(w, response{Message: "Password updated, please log in"})
		case errors.Is(err, apperrors.ErrOTPInvalid):
			render.ServiceError(w, "Invalid or expired code", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrIdentityNotFound):
			render.ServiceError(w, "Account not found", http.StatusNotFound)
		default:
			l.Error("Failed to reset password", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleActivate(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Role     string `json:"role" validate:"required,role"`
		Email    string `json:"email" validate:"required,email"`
		Code     string `json:"code" validate:"required,len=6,numeric"`
		Password string `json:"password" validate:"required,min=8"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := authService.ActivateAccount(r.Context(), models.Role(data.Role), data.Email, data.Code, data.Password)

		switch {
		case err == nil:
			authService.SetTokenPairToResponse(w, pair)
			render.JSON(w, response{Message: "Account activated"})
		case errors.Is(err, apperrors.ErrOTPInvalid):
			render.ServiceError(w, "Invalid or expired code", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrIdentityNotFound):
			render.ServiceError(w, "Account not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrAccountBlocked), errors.Is(err, apperrors.ErrAccountDeleted):
			render.ServiceError(w, "Account is not available", http.StatusForbidden)
		default:
			l.Error("Failed to activate account", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
