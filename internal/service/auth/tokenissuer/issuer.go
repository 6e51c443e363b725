package tokenissuer

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/avkuzmin/gymcore/internal/apperrors"
	"github.com/avkuzmin/gymcore/internal/models"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
	defaultSigningMethod   = "HS256"
)

// Claims of the short lived access token
// Carries the full principal so no DB hit is needed to accept it
type AccessTokenClaims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID  `json:"uid"`
	Role   string     `json:"role"`
	GymID  *uuid.UUID `json:"gym,omitempty"`
}

// Claims of the long lived refresh token
// No tenant here: every use re-checks identity status in the store anyway
type RefreshTokenClaims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"uid"`
	Role   string    `json:"role"`
}

// Token issuer with sensible defaults
type Config struct {
	// Secrets to sign the two token classes
	// Both required and must differ
	AccessSecret  string
	RefreshSecret string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set then default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set then default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type Issuer struct {
	accessKey  string
	refreshKey string

	alg jwt.SigningMethod

	accessTTL  time.Duration
	refreshTTL time.Duration
}

func New(cfg Config) (*Issuer, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("both token secrets must not be empty")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &Issuer{
		accessKey:  cfg.AccessSecret,
		refreshKey: cfg.RefreshSecret,
		alg:        jwt.GetSigningMethod(cfg.Alg),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}, nil
}

func (i *Issuer) IssueAccess(principal models.Principal) (models.IssuedToken, error) {
	now := time.Now().Truncate(time.Second)
	expiresAt := now.Add(i.accessTTL)

	token := jwt.NewWithClaims(
		i.alg,
		AccessTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			UserID: principal.ID,
			Role:   principal.Role.String(),
			GymID:  principal.GymID,
		},
	)
	signed, err := token.SignedString([]byte(i.accessKey))
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	return models.IssuedToken{Value: signed, ExpiresAt: expiresAt}, nil
}

func (i *Issuer) IssueRefresh(principal models.Principal) (models.IssuedToken, error) {
	now := time.Now().Truncate(time.Second)
	expiresAt := now.Add(i.refreshTTL)

	token := jwt.NewWithClaims(
		i.alg,
		RefreshTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			UserID: principal.ID,
			Role:   principal.Role.String(),
		},
	)
	signed, err := token.SignedString([]byte(i.refreshKey))
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing refresh token. Err: %w", err)
	}

	return models.IssuedToken{Value: signed, ExpiresAt: expiresAt}, nil
}

func (i *Issuer) IssuePair(principal models.Principal) (models.TokenPair, error) {
	access, err := i.IssueAccess(principal)
	if err != nil {
		return models.TokenPair{}, err
	}

	refresh, err := i.IssueRefresh(principal)
	if err != nil {
		return models.TokenPair{}, err
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

// Parse and validate access token
// Any defect (bad signature, expired, malformed) collapses to ErrUnauthorized
func (i *Issuer) ParseAccess(access string) (models.Principal, error) {
	claims := &AccessTokenClaims{}

	_, err := jwt.ParseWithClaims(
		access,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(i.accessKey), nil },
		jwt.WithValidMethods([]string{i.alg.Alg()}),
	)
	if err != nil {
		return models.Principal{}, fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, err)
	}

	return claimsToPrincipal(claims.UserID, claims.Role, claims.GymID)
}

// Parse and validate refresh token
func (i *Issuer) ParseRefresh(refresh string) (models.Principal, error) {
	claims := &RefreshTokenClaims{}

	_, err := jwt.ParseWithClaims(
		refresh,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(i.refreshKey), nil },
		jwt.WithValidMethods([]string{i.alg.Alg()}),
	)
	if err != nil {
		return models.Principal{}, fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, err)
	}

	return claimsToPrincipal(claims.UserID, claims.Role, nil)
}

func claimsToPrincipal(userID uuid.UUID, role string, gymID *uuid.UUID) (models.Principal, error) {
	parsed, err := models.ParseRole(role)
	if err != nil {
		return models.Principal{}, fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, err)
	}

	return models.Principal{ID: userID, Role: parsed, GymID: gymID}, nil
}
