package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/avkuzmin/gymcore/internal/apperrors"
	"github.com/avkuzmin/gymcore/internal/models"
	"github.com/avkuzmin/gymcore/internal/notifier"
	"github.com/avkuzmin/gymcore/internal/repository"
	"github.com/avkuzmin/gymcore/internal/repository/otpstore"
	"github.com/avkuzmin/gymcore/internal/service/auth/tokenissuer"
)

const (
	defaultSignupCodeTTL = 5 * time.Minute
	defaultResetCodeTTL  = 10 * time.Minute
)

type Config struct {
	// Hasher to use during registration or login
	// If not set then default bcrypt hasher is used
	Hasher PasswordHasher

	// One-time code lifetimes
	// If not set then defaults are used
	SignupCodeTTL time.Duration
	ResetCodeTTL  time.Duration

	// Drop the Secure flag on the refresh cookie, dev only
	InsecureCookies bool
}

// AuthService composes identity lookup, password hashing, the OTP store
// and the token issuer into the signup, login, reset and session flows
type AuthService struct {
	identities repository.IdentityStore
	otp        otpstore.Store
	notify     notifier.Notifier
	issuer     *tokenissuer.Issuer
	hasher     PasswordHasher

	signupCodeTTL   time.Duration
	resetCodeTTL    time.Duration
	insecureCookies bool
}

func NewService(cfg Config, identities repository.IdentityStore, otp otpstore.Store, notify notifier.Notifier, issuer *tokenissuer.Issuer) (*AuthService, error) {
	if identities == nil || otp == nil || notify == nil || issuer == nil {
		return nil, errors.New("identities, otp store, notifier and issuer must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.SignupCodeTTL, defaultSignupCodeTTL)
	setDefaultDuration(&cfg.ResetCodeTTL, defaultResetCodeTTL)

	return &AuthService{
		identities:      identities,
		otp:             otp,
		notify:          notify,
		issuer:          issuer,
		hasher:          hasher,
		signupCodeTTL:   cfg.SignupCodeTTL,
		resetCodeTTL:    cfg.ResetCodeTTL,
		insecureCookies: cfg.InsecureCookies,
	}, nil
}

// InitiateSignup generates a code for gym registration and dispatches it
// A pending code for the same email is silently replaced
func (s *AuthService) InitiateSignup(ctx context.Context, email string) error {
	gyms, err := s.identities.ByRole(models.RoleGym)
	if err != nil {
		return err
	}

	// Existence pre-check is an optimization only, the unique constraint
	// on create is the authoritative duplicate signal
	_, err = gyms.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return apperrors.ErrEmailTaken
	case !errors.Is(err, apperrors.ErrIdentityNotFound):
		return err
	}

	return s.issueCode(ctx, email, s.signupCodeTTL, notifier.PurposeSignup)
}

// CompleteSignup verifies the code and creates the gym owner account
func (s *AuthService) CompleteSignup(ctx context.Context, email string, code string, fullName string, password string) (models.Identity, models.TokenPair, error) {
	var identity models.Identity
	var pair models.TokenPair

	if err := s.checkCode(ctx, email, code); err != nil {
		return identity, pair, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return identity, pair, fmt.Errorf("can't use this as password, error=%w", err)
	}

	gyms, err := s.identities.ByRole(models.RoleGym)
	if err != nil {
		return identity, pair, err
	}

	identity, err = gyms.Create(ctx, models.Identity{
		Role:           models.RoleGym,
		Email:          email,
		FullName:       fullName,
		HashedPassword: hash,
		IsVerified:     true,
	})
	if err != nil {
		return identity, pair, err
	}

	// Consume the code only after the terminal action succeeded
	if err := s.otp.Delete(ctx, email); err != nil {
		return identity, pair, fmt.Errorf("error while deleting used code. Err: %w", err)
	}

	pair, err = s.issuer.IssuePair(identity.Principal())
	if err != nil {
		return identity, pair, fmt.Errorf("token could not be generated, sorry. %w", err)
	}

	return identity, pair, nil
}

// Login authenticates an identity of the given role with email and password
func (s *AuthService) Login(ctx context.Context, role models.Role, email string, password string) (models.TokenPair, error) {
	var pair models.TokenPair

	repo, err := s.identities.ByRole(role)
	if err != nil {
		return pair, apperrors.ErrInvalidCredentials
	}

	identity, err := repo.GetByEmail(ctx, email)
	if err != nil {
		// Compare against a throwaway hash so a missing email costs
		// about as much as a wrong password
		_ = s.hasher.Compare("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy", password)
		return pair, apperrors.ErrInvalidCredentials
	}

	if err := s.hasher.Compare(identity.HashedPassword, password); err != nil {
		return pair, apperrors.ErrInvalidCredentials
	}

	if err := checkStatus(identity); err != nil {
		return pair, err
	}

	pair, err = s.issuer.IssuePair(identity.Principal())
	if err != nil {
		return pair, fmt.Errorf("token could not be generated, sorry. %w", err)
	}

	return pair, nil
}

// ForgotPassword issues a reset code for an existing identity
func (s *AuthService) ForgotPassword(ctx context.Context, role models.Role, email string) error {
	repo, err := s.identities.ByRole(role)
	if err != nil {
		return err
	}

	identity, err := repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := checkStatus(identity); err != nil {
		return err
	}

	return s.issueCode(ctx, email, s.resetCodeTTL, notifier.PurposePasswordReset)
}

// ResetPassword verifies the code and replaces the stored hash in place
// No tokens are issued, the user logs in with the new password after
func (s *AuthService) ResetPassword(ctx context.Context, role models.Role, email string, code string, newPassword string) error {
	if err := s.checkCode(ctx, email, code); err != nil {
		return err
	}

	repo, err := s.identities.ByRole(role)
	if err != nil {
		return err
	}

	identity, err := repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("can't use this as password, error=%w", err)
	}

	if err := repo.UpdatePassword(ctx, identity.ID, hash); err != nil {
		return err
	}

	if err := s.otp.Delete(ctx, email); err != nil {
		return fmt.Errorf("error while deleting used code. Err: %w", err)
	}

	return nil
}

// InviteMember creates an unverified staff account under the gym and
// dispatches the activation code
func (s *AuthService) InviteMember(ctx context.Context, gymID uuid.UUID, role models.Role, email string, fullName string) (models.Identity, error) {
	var identity models.Identity

	if !role.IsTenantScoped() {
		return identity, fmt.Errorf("%w: only trainers and clients can be invited", apperrors.ErrForbidden)
	}

	repo, err := s.identities.ByRole(role)
	if err != nil {
		return identity, err
	}

	// Placeholder password, replaced when the invitee activates
	placeholder := make([]byte, 32)
	if _, err := rand.Read(placeholder); err != nil {
		return identity, fmt.Errorf("error while generating placeholder password. Err: %w", err)
	}
	hash, err := s.hasher.Hash(hex.EncodeToString(placeholder))
	if err != nil {
		return identity, err
	}

	identity, err = repo.Create(ctx, models.Identity{
		Role:           role,
		GymID:          &gymID,
		Email:          email,
		FullName:       fullName,
		HashedPassword: hash,
	})
	if err != nil {
		return identity, err
	}

	if err := s.issueCode(ctx, email, s.resetCodeTTL, notifier.PurposeActivation); err != nil {
		return identity, err
	}

	return identity, nil
}

// ListMembers returns the gym's staff accounts of the given role
func (s *AuthService) ListMembers(ctx context.Context, gymID uuid.UUID, role models.Role) ([]models.Identity, error) {
	if !role.IsTenantScoped() {
		return nil, fmt.Errorf("%w: role %q has no gym members", apperrors.ErrForbidden, role)
	}

	repo, err := s.identities.ByRole(role)
	if err != nil {
		return nil, err
	}

	return repo.ListByGym(ctx, gymID)
}

// ActivateAccount completes a staff invitation: the invitee proves control
// of the email, sets the password and gets logged in
func (s *AuthService) ActivateAccount(ctx context.Context, role models.Role, email string, code string, password string) (models.TokenPair, error) {
	var pair models.TokenPair

	if err := s.checkCode(ctx, email, code); err != nil {
		return pair, err
	}

	repo, err := s.identities.ByRole(role)
	if err != nil {
		return pair, err
	}

	identity, err := repo.GetByEmail(ctx, email)
	if err != nil {
		return pair, err
	}
	if identity.IsBlocked {
		return pair, apperrors.ErrAccountBlocked
	}
	if identity.IsDeleted {
		return pair, apperrors.ErrAccountDeleted
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return pair, fmt.Errorf("can't use this as password, error=%w", err)
	}

	if err := repo.UpdatePassword(ctx, identity.ID, hash); err != nil {
		return pair, err
	}
	if err := repo.SetVerified(ctx, identity.ID); err != nil {
		return pair, err
	}

	if err := s.otp.Delete(ctx, email); err != nil {
		return pair, fmt.Errorf("error while deleting used code. Err: %w", err)
	}

	pair, err = s.issuer.IssuePair(identity.Principal())
	if err != nil {
		return pair, fmt.Errorf("token could not be generated, sorry. %w", err)
	}

	return pair, nil
}

// Authenticate resolves the request credentials into a principal
//
// A valid access token is accepted statelessly. Otherwise the refresh
// token is tried: its claims are re-checked against the store (the only
// timely enforcement point for block and delete) and, if the identity is
// healthy, a fresh pair is returned for rotation. The returned pair is
// nil when no rotation happened.
func (s *AuthService) Authenticate(ctx context.Context, access string, refresh string) (models.Principal, *models.TokenPair, error) {
	if access != "" {
		principal, err := s.issuer.ParseAccess(access)
		if err == nil {
			return principal, nil, nil
		}
	}

	if refresh == "" {
		return models.Principal{}, nil, apperrors.ErrUnauthorized
	}

	refreshed, err := s.issuer.ParseRefresh(refresh)
	if err != nil {
		return models.Principal{}, nil, apperrors.ErrUnauthorized
	}

	repo, err := s.identities.ByRole(refreshed.Role)
	if err != nil {
		return models.Principal{}, nil, apperrors.ErrUnauthorized
	}

	identity, err := repo.GetByID(ctx, refreshed.ID)
	switch {
	case errors.Is(err, apperrors.ErrIdentityNotFound):
		return models.Principal{}, nil, apperrors.ErrForbidden
	case err != nil:
		// Internal store failure must not leak, collapse to generic 401
		return models.Principal{}, nil, apperrors.ErrUnauthorized
	}

	if identity.IsBlocked || identity.IsDeleted {
		return models.Principal{}, nil, apperrors.ErrForbidden
	}

	pair, err := s.issuer.IssuePair(identity.Principal())
	if err != nil {
		return models.Principal{}, nil, apperrors.ErrUnauthorized
	}

	return identity.Principal(), &pair, nil
}

// issueCode stores the code before the send is attempted, so a transport
// failure never leaves a sent but unknown code
func (s *AuthService) issueCode(ctx context.Context, email string, ttl time.Duration, purpose string) error {
	code, err := otpstore.GenerateCode()
	if err != nil {
		return err
	}

	if err := s.otp.Upsert(ctx, email, code, ttl); err != nil {
		return fmt.Errorf("error while storing code. Err: %w", err)
	}

	if err := s.notify.SendCode(ctx, email, code, purpose); err != nil {
		return err
	}

	return nil
}

func (s *AuthService) checkCode(ctx context.Context, email string, code string) error {
	ok, err := s.otp.Verify(ctx, email, code)
	if err != nil {
		return fmt.Errorf("error while verifying code. Err: %w", err)
	}
	if !ok {
		return apperrors.ErrOTPInvalid
	}
	return nil
}

func checkStatus(identity models.Identity) error {
	switch {
	case identity.IsBlocked:
		return apperrors.ErrAccountBlocked
	case identity.IsDeleted:
		return apperrors.ErrAccountDeleted
	case !identity.IsVerified:
		return apperrors.ErrAccountNotActive
	}
	return nil
}
