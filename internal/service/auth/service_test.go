package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/avkuzmin/gymcore/internal/apperrors"
	"github.com/avkuzmin/gymcore/internal/models"
	"github.com/avkuzmin/gymcore/internal/notifier"
	"github.com/avkuzmin/gymcore/internal/repository/otpstore"
	"github.com/avkuzmin/gymcore/internal/service/auth/tokenissuer"
)

type fixture struct {
	service    *AuthService
	identities *memIdentityStore
	otp        *otpstore.MemoryStore
	notify     *recordingNotifier
	issuer     *tokenissuer.Issuer
}

func newFixture(t *testing.T, accessTTL time.Duration, refreshTTL time.Duration) fixture {
	t.Helper()

	issuer, err := tokenissuer.New(tokenissuer.Config{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
	})
	require.NoError(t, err, "issuer should be created without errors")

	identities := newMemIdentityStore()
	otp := otpstore.NewMemoryStore()
	notify := &recordingNotifier{}

	s, err := NewService(Config{}, identities, otp, notify, issuer)
	require.NoError(t, err, "auth service should be created without errors")

	return fixture{service: s, identities: identities, otp: otp, notify: notify, issuer: issuer}
}

func signupGym(t *testing.T, f fixture, email string, password string) models.Identity {
	t.Helper()

	require.NoError(t, f.service.InitiateSignup(t.Context(), email))
	identity, _, err := f.service.CompleteSignup(t.Context(), email, f.notify.last().code, "Iron Temple", password)
	require.NoError(t, err)
	return identity
}

func Test_AuthService_Signup(t *testing.T) {
	t.Parallel()

	t.Run("initiate dispatches 6 digit code", func(t *testing.T) {
		f := newFixture(t, 15*time.Minute, 168*time.Hour)

		err := f.service.InitiateSignup(t.Context(), "a@x.com")
		require.NoError(t, err)

		sent := f.notify.last()
		require.Equal(t, "a@x.com", sent.email)
		require.Len(t, sent.code, 6)
		require.Equal(t, notifier.PurposeSignup, sent.purpose)
	})

	t.Run("reissue replaces pending code", func(t *testing.T) {
		f := newFixture(t, 15*time.Minute, 168*time.Hour)

		require.NoError(t, f.service.InitiateSignup(t.Context(), "a@x.com"))
		first := f.notify.last().code

		require.NoError(t, f.service.InitiateSignup(t.Context(), "a@x.com"))
		second := f.notify.last().code

		ok, err := f.otp.Verify(t.Context(), "a@x.com", first)
		require.NoError(t, err)
		if first != second {
			require.False(t, ok, "replaced code must not verify")
		}

		ok, err = f.otp.Verify(t.Context(), "a@x.com", second)
		require.NoError(t, err)
		require.True(t, ok, "latest code must verify")
	})

	t.Run("complete creates verified gym and logs it in", func(t *testing.T) {
		f := newFixture(t, 15*time.Minute, 168*time.Hour)

		require.NoError(t, f.service.InitiateSignup(t.Context(), "a@x.com"))
		code := f.notify.last().code

		identity, pair, err := f.service.CompleteSignup(t.Context(), "a@x.com", code, "Iron Temple", "StrongEnoughPassword")

		require.NoError(t, err)
		require.Equal(t, models.RoleGym, identity.Role)
		require.True(t, identity.IsVerified)
		require.NotEmpty(t, pair.Access.Value)
		require.NotEmpty(t, pair.Refresh.Value)

		gyms, err := f.identities.ByRole(models.RoleGym)
		require.NoError(t, err)
		stored, err := gyms.GetByEmail(t.Context(), "a@x.com")
		require.NoError(t, err)
		require.True(t, stored.IsVerified, "stored identity should be active and verified")
	})

	t.Run("complete consumes the code", func(t *testing.T) {
		f := newFixture(t, 15*time.Minute, 168*time.Hour)

		require.NoError(t, f.service.InitiateSignup(t.Context(), "a@x.com"))
		code := f.notify.last().code

		_, _, err := f.service.CompleteSignup(t.Context(), "a@x.com", code, "Iron Temple", "StrongEnoughPassword")
		require.NoError(t, err)

		_, _, err = f.service.CompleteSignup(t.Context(), "a@x.com", code, "Iron Temple", "StrongEnoughPassword")
		require.Error(t, err)
		require.ErrorIs(t, err, apperrors.ErrOTPInvalid, "reused code must be rejected")
	})

	t.Run("complete with wrong code fails", func(t *testing.T) {
		f := newFixture(t, 15*time.Minute, 168*time.Hour)

		require.NoError(t, f.service.InitiateSignup(t.Context(), "a@x.com"))

		_, _, err := f.service.CompleteSignup(t.Context(), "a@x.com", "000000", "Iron Temple", "StrongEnoughPassword")
		if f.notify.last().code != "000000" {
			require.ErrorIs(t, err, apperrors.ErrOTPInvalid)
		}
	})

	t.Run("initiate fails for registered email", func(t *testing.T) {
		f := newFixture(t, 15*time.Minute, 168*time.Hour)
		signupGym(t, f, "a@x.com", "StrongEnoughPassword")

		err := f.service.InitiateSignup(t.Context(), "a@x.com")
		require.ErrorIs(t, err, apperrors.ErrEmailTaken)
	})

	t.Run("code stored even when dispatch fails", func(t *testing.T) {
		f := newFixture(t, 15*time.Minute, 168*time.Hour)
		f.notify.fails = true

		err := f.service.InitiateSignup(t.Context(), "a@x.com")
		require.ErrorIs(t, err, apperrors.ErrNotifyFailed)
	})
}

func Test_AuthService_Login(t *testing.T) {
	t.Parallel()

	t.Run("existing gym ok", func(t *testing.T) {
		f := newFixture(t, 15*time.Minute, 168*time.Hour)
		signupGym(t, f, "a@x.com", "StrongEnoughPassword")

		pair, err := f.service.Login(t.Context(), models.RoleGym, "a@x.com", "StrongEnoughPassword")

		require.NoError(t, err)
		require.NotEmpty(t, pair.Access.Value)
		require.NotEmpty(t, pair.Refresh.Value)
	})

	tests := []struct {
		name        string
		role        models.Role
		email       string
		password    string
		expectedErr error
	}{
		{
			name:        "fail if wrong password",
			role:        models.RoleGym,
			email:       "a@x.com",
			password:    "wrong",
			expectedErr: apperrors.ErrInvalidCredentials,
		},
		{
			name:        "fail if email not registered",
			role:        models.RoleGym,
			email:       "nobody@x.com",
			password:    "StrongEnoughPassword",
			expectedErr: apperrors.ErrInvalidCredentials,
		},
		{
			name:        "fail if wrong role",
			role:        models.RoleTrainer,
			email:       "a@x.com",
			password:    "StrongEnoughPassword",
			expectedErr: apperrors.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 15*time.Minute, 168*time.Hour)
			signupGym(t, f, "a@x.com", "StrongEnoughPassword")

			_, err := f.service.Login(t.Context(), tt.role, tt.email, tt.password)

			require.Error(t, err)
			require.ErrorIs(t, err, tt.expectedErr)
		})
	}

	t.Run("fail if blocked", func(t *testing.T) {
		f := newFixture(t, 15*time.Minute, 168*time.Hour)
		identity := signupGym(t, f, "a@x.com", "StrongEnoughPassword")

		gyms, err := f.identities.ByRole(models.RoleGym)
		require.NoError(t, err)
		require.NoError(t, gyms.SetBlocked(t.Context(), identity.ID, true))

		_, err = f.service.Login(t.Context(), models.RoleGym, "a@x.com", "StrongEnoughPassword")
		require.ErrorIs(t, err, apperrors.ErrAccountBlocked)
	})
}

func Test_AuthService_PasswordReset(t *testing.T) {
	t.Parallel()

	t.Run("reset replaces the password", func(t *testing.T) {
		f := newFixture(t, 15*time.Minute, 168*time.Hour)
		signupGym(t, f, "a@x.com", "OldPassword123")

		require.NoError(t, f.service.ForgotPassword(t.Context(), models.RoleGym, "a@x.com"))
		sent := f.notify.last()
		require.Equal(t, notifier.PurposePasswordReset, sent.purpose)

		err := f.service.ResetPassword(t.Context(), models.RoleGym, "a@x.com", sent.code, "NewPassword123")
		require.NoError(t, err)

		_, err = f.service.Login(t.Context(), models.RoleGym, "a@x.com", "OldPassword123")
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials, "old password must stop working")

		_, err = f.service.Login(t.Context(), models.RoleGym, "a@x.com", "NewPassword123")
		require.NoError(t, err, "new password must work")
	})

	t.Run("reset consumes the code", func(t *testing.T) {
		f := newFixture(t, 15*time.Minute, 168*time.Hour)
		signupGym(t, f, "a@x.com", "OldPassword123")

		require.NoError(t, f.service.ForgotPassword(t.Context(), models.RoleGym, "a@x.com"))
		code := f.notify.last().code

		require.NoError(t, f.service.ResetPassword(t.Context(), models.RoleGym, "a@x.com", code, "NewPassword123"))

		err := f.service.ResetPassword(t.Context(), models.RoleGym, "a@x.com", code, "AnotherPassword1")
		require.ErrorIs(t, err, apperrors.ErrOTPInvalid)
	})

	t.Run("forgot fails for unknown email", func(t *testing.T) {
		f := newFixture(t, 15*time.Minute, 168*time.Hour)

		err := f.service.ForgotPassword(t.Context(), models.RoleGym, "nobody@x.com")
		require.ErrorIs(t, err, apperrors.ErrIdentityNotFound)
	})
}

func Test_AuthService_Invitations(t *testing.T) {
	t.Parallel()

	t.Run("invite and activate trainer", func(t *testing.T) {
		f := newFixture(t, 15*time.Minute, 168*time.Hour)
		gym := signupGym(t, f, "owner@x.com", "StrongEnoughPassword")

		invited, err := f.service.InviteMember(t.Context(), gym.ID, models.RoleTrainer, "coach@x.com", "Coach")
		require.NoError(t, err)
		require.False(t, invited.IsVerified, "invited account starts unverified")
		require.NotNil(t, invited.GymID)
		require.Equal(t, gym.ID, *invited.GymID)

		sent := f.notify.last()
		require.Equal(t, notifier.PurposeActivation, sent.purpose)

		// Login before activation must fail
		_, err = f.service.Login(t.Context(), models.RoleTrainer, "coach@x.com", "TrainerPassword1")
		require.Error(t, err)

		pair, err := f.service.ActivateAccount(t.Context(), models.RoleTrainer, "coach@x.com", sent.code, "TrainerPassword1")
		require.NoError(t, err)
		require.NotEmpty(t, pair.Access.Value)

		// Access token carries the tenant
		principal, err := f.issuer.ParseAccess(pair.Access.Value)
		require.NoError(t, err)
		require.Equal(t, models.RoleTrainer, principal.Role)
		require.NotNil(t, principal.GymID)
		require.Equal(t, gym.ID, *principal.GymID)

		_, err = f.service.Login(t.Context(), models.RoleTrainer, "coach@x.com", "TrainerPassword1")
		require.NoError(t, err, "activated account can log in")
	})

	t.Run("cannot invite non staff roles", func(t *testing.T) {
		f := newFixture(t, 15*time.Minute, 168*time.Hour)
		gym := signupGym(t, f, "owner@x.com", "StrongEnoughPassword")

		_, err := f.service.InviteMember(t.Context(), gym.ID, models.RoleSuperAdmin, "admin@x.com", "Admin")
		require.ErrorIs(t, err, apperrors.ErrForbidden)
	})
}

func Test_AuthService_Authenticate(t *testing.T) {
	t.Parallel()

	t.Run("valid access accepted without rotation", func(t *testing.T) {
		f := newFixture(t, 15*time.Minute, 168*time.Hour)
		identity := signupGym(t, f, "a@x.com", "StrongEnoughPassword")

		pair, err := f.service.Login(t.Context(), models.RoleGym, "a@x.com", "StrongEnoughPassword")
		require.NoError(t, err)

		principal, rotated, err := f.service.Authenticate(t.Context(), pair.Access.Value, "")

		require.NoError(t, err)
		require.Equal(t, identity.ID, principal.ID)
		require.Nil(t, rotated, "no rotation for a valid access token")
	})

	t.Run("no credentials rejected", func(t *testing.T) {
		f := newFixture(t, 15*time.Minute, 168*time.Hour)

		_, _, err := f.service.Authenticate(t.Context(), "", "")
		require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("garbage access with no refresh rejected", func(t *testing.T) {
		f := newFixture(t, 15*time.Minute, 168*time.Hour)

		_, _, err := f.service.Authenticate(t.Context(), "not-a-token", "")
		require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("expired access with healthy refresh rotates", func(t *testing.T) {
		f := newFixture(t, 1*time.Second, 168*time.Hour)
		identity := signupGym(t, f, "a@x.com", "StrongEnoughPassword")

		pair, err := f.service.Login(t.Context(), models.RoleGym, "a@x.com", "StrongEnoughPassword")
		require.NoError(t, err)

		// Wait for the access token to expire
		time.Sleep(time.Second)

		principal, rotated, err := f.service.Authenticate(t.Context(), pair.Access.Value, pair.Refresh.Value)

		require.NoError(t, err, "valid refresh should silently extend the session")
		require.Equal(t, identity.ID, principal.ID)
		require.NotNil(t, rotated, "rotation should produce a fresh pair")
		require.NotEqual(t, pair.Refresh.Value, rotated.Refresh.Value, "refresh should be reissued")
		require.NotEmpty(t, rotated.Access.Value)
	})

	t.Run("refresh for blocked identity rejected and no tokens issued", func(t *testing.T) {
		f := newFixture(t, 15*time.Minute, 168*time.Hour)
		identity := signupGym(t, f, "a@x.com", "StrongEnoughPassword")

		pair, err := f.service.Login(t.Context(), models.RoleGym, "a@x.com", "StrongEnoughPassword")
		require.NoError(t, err)

		gyms, err := f.identities.ByRole(models.RoleGym)
		require.NoError(t, err)
		require.NoError(t, gyms.SetBlocked(t.Context(), identity.ID, true))

		_, rotated, err := f.service.Authenticate(t.Context(), "", pair.Refresh.Value)

		require.ErrorIs(t, err, apperrors.ErrForbidden)
		require.Nil(t, rotated, "no tokens for a blocked identity")
	})

	t.Run("refresh for vanished identity rejected", func(t *testing.T) {
		f := newFixture(t, 15*time.Minute, 168*time.Hour)

		// Refresh token signed for an id the store never had
		ghost := models.Principal{ID: uuid.New(), Role: models.RoleClient}
		refresh, err := f.issuer.IssueRefresh(ghost)
		require.NoError(t, err)

		_, _, err = f.service.Authenticate(t.Context(), "", refresh.Value)
		require.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("access token in refresh slot rejected", func(t *testing.T) {
		f := newFixture(t, 15*time.Minute, 168*time.Hour)
		signupGym(t, f, "a@x.com", "StrongEnoughPassword")

		pair, err := f.service.Login(t.Context(), models.RoleGym, "a@x.com", "StrongEnoughPassword")
		require.NoError(t, err)

		_, _, err = f.service.Authenticate(t.Context(), "", pair.Access.Value)
		require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})
}
