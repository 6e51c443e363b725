// Package otpstore keeps one pending verification code per email.
// Issuing a new code replaces the previous one, validity ends at the
// stored TTL. Verify never consumes the code: completion flows delete
// it explicitly once their terminal action succeeded.
package otpstore

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

type Store interface {
	// Replace any pending code for the email with the given one
	Upsert(ctx context.Context, email string, code string, ttl time.Duration) error

	// Report whether the code matches the pending one and is not expired
	// Does not consume the code
	Verify(ctx context.Context, email string, code string) (bool, error)

	// Drop the pending code for the email, no error if absent
	Delete(ctx context.Context, email string) error
}

// GenerateCode returns a random 6 digit numeric code
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("error while generating OTP code. Err: %w", err)
	}

	return fmt.Sprintf("%06d", n.Int64()), nil
}
