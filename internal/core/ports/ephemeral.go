package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EphemeralStore is a TTL-capable key-value store. All operations act on a
// single key.
type EphemeralStore interface {
	// Set stores value for key; ttl <= 0 means no expiration.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns found=false when the key is absent or expired.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Delete removes the key; absence is not an error.
	Delete(ctx context.Context, key string) error
	// Increment atomically adds one and applies ttl only when the counter is created.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// AccountStateRepository keeps the short-lived per-account and per-token state
// that backs verification, password reset, lockout and revocation.
type AccountStateRepository interface {
	SetEmailVerificationCode(ctx context.Context, accountID uuid.UUID, code string, ttl time.Duration) error
	GetEmailVerificationCode(ctx context.Context, accountID uuid.UUID) (string, bool, error)
	DeleteEmailVerificationCode(ctx context.Context, accountID uuid.UUID) error

	SetResetPasswordToken(ctx context.Context, accountID uuid.UUID, token string, ttl time.Duration) error
	GetResetPasswordToken(ctx context.Context, accountID uuid.UUID) (string, bool, error)
	DeleteResetPasswordToken(ctx context.Context, accountID uuid.UUID) error

	IncrementLoginAttempts(ctx context.Context, accountID uuid.UUID) (int64, error)
	ResetLoginAttempts(ctx context.Context, accountID uuid.UUID) error
	BlockAccount(ctx context.Context, accountID uuid.UUID) error
	IsAccountBlocked(ctx context.Context, accountID uuid.UUID) (bool, error)

	BlacklistAccessToken(ctx context.Context, token string, ttl time.Duration) error
	IsAccessTokenBlacklisted(ctx context.Context, token string) (bool, error)
	BlacklistRefreshToken(ctx context.Context, token string, ttl time.Duration) error
	IsRefreshTokenBlacklisted(ctx context.Context, token string) (bool, error)

	RevokeAllSessions(ctx context.Context, accountID uuid.UUID, revokedAt time.Time, ttl time.Duration) error
	// SessionsRevokedAt returns the time of the last all-sessions revocation, if any.
	SessionsRevokedAt(ctx context.Context, accountID uuid.UUID) (time.Time, bool, error)
}
