package apperrors

import (
	"errors"
)

var (
	ErrEmailTaken       = errors.New("email already registered")
	ErrIdentityNotFound = errors.New("identity not found")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountBlocked     = errors.New("account is blocked")
	ErrAccountDeleted     = errors.New("account is deleted")
	ErrAccountNotActive   = errors.New("account is not activated")

	ErrUnauthorized = errors.New("session expired")
	ErrForbidden    = errors.New("access denied")

	ErrOTPInvalid = errors.New("invalid or expired OTP")

	ErrNotifyFailed = errors.New("notification dispatch failed")

	ErrPlanNotFound  = errors.New("plan not found")
	ErrPlanInvalid   = errors.New("plan price or duration invalid")
	ErrPlanNameTaken = errors.New("plan name already taken")
)
