// Package notifier delivers one-time codes out of band.
// The core only guarantees the code was stored before a send is
// attempted, delivery itself belongs to an external mailer.
package notifier

import (
	"context"
)

// Purpose of a dispatched code, consumers pick the mail template by it
const (
	PurposeSignup        = "signup"
	PurposePasswordReset = "password_reset"
	PurposeActivation    = "activation"
)

type Notifier interface {
	// Send the code to the email
	// Transport failures must be wrapped as apperrors.ErrNotifyFailed
	SendCode(ctx context.Context, email string, code string, purpose string) error
}
