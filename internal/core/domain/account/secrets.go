package account

import (
	"time"

	"github.com/google/uuid"
)

const (
	// VerificationCodeTTL bounds how long an emailed verification code stays usable.
	VerificationCodeTTL = time.Hour
	// ResetTokenTTL bounds how long a password reset token stays usable.
	ResetTokenTTL = time.Hour
)

// VerificationCode is a single-use secret mailed at registration.
type VerificationCode string

func NewVerificationCode() VerificationCode {
	return VerificationCode(uuid.NewString())
}

func (c VerificationCode) String() string { return string(c) }

// ResetToken is a single-use password reset secret. ExpiresAt is only used to
// derive the store TTL; the store evicts the entry when it lapses.
type ResetToken struct {
	Value     string
	ExpiresAt time.Time
}

func NewResetToken(now time.Time) ResetToken {
	return ResetToken{Value: uuid.NewString(), ExpiresAt: now.Add(ResetTokenTTL)}
}

// TTL returns the remaining lifetime relative to now, never negative.
func (t ResetToken) TTL(now time.Time) time.Duration {
	d := t.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
