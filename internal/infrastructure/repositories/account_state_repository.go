package repositories

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Akiyuki89/my-best-ddd-architecture/internal/core/ports"
)

const (
	emailVerificationPrefix = "email_verification"
	resetPasswordPrefix     = "reset_password" //nolint:gosec
	loginAttemptsPrefix     = "login_attempts"
	blockedUserPrefix       = "blocked_user"
	accessBlacklistPrefix   = "blacklist:access"
	refreshBlacklistPrefix  = "blacklist:refresh"
	allSessionsPrefix       = "blacklist:all-sessions"

	blockedValue     = "blocked"
	blacklistedValue = "true"
)

// AccountStateRepository maps account lifecycle state onto an EphemeralStore.
type AccountStateRepository struct {
	store         ports.EphemeralStore
	blockDuration time.Duration
	logger        *logrus.Logger
}

// NewAccountStateRepository creates a state repository. blockDuration bounds both
// the failed-attempt window and the block flag.
func NewAccountStateRepository(store ports.EphemeralStore, blockDuration time.Duration, logger *logrus.Logger) *AccountStateRepository {
	return &AccountStateRepository{store: store, blockDuration: blockDuration, logger: logger}
}

var _ ports.AccountStateRepository = (*AccountStateRepository)(nil)

func accountKey(prefix string, id uuid.UUID) string {
	return fmt.Sprintf("%s:%s", prefix, id.String())
}

func tokenKey(prefix, token string) string {
	return fmt.Sprintf("%s:%s", prefix, token)
}

func (r *AccountStateRepository) SetEmailVerificationCode(ctx context.Context, accountID uuid.UUID, code string, ttl time.Duration) error {
	return r.store.Set(ctx, accountKey(emailVerificationPrefix, accountID), code, ttl)
}

func (r *AccountStateRepository) GetEmailVerificationCode(ctx context.Context, accountID uuid.UUID) (string, bool, error) {
	return r.store.Get(ctx, accountKey(emailVerificationPrefix, accountID))
}

func (r *AccountStateRepository) DeleteEmailVerificationCode(ctx context.Context, accountID uuid.UUID) error {
	return r.store.Delete(ctx, accountKey(emailVerificationPrefix, accountID))
}

func (r *AccountStateRepository) SetResetPasswordToken(ctx context.Context, accountID uuid.UUID, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("reset token already expired")
	}
	return r.store.Set(ctx, accountKey(resetPasswordPrefix, accountID), token, ttl)
}

func (r *AccountStateRepository) GetResetPasswordToken(ctx context.Context, accountID uuid.UUID) (string, bool, error) {
	return r.store.Get(ctx, accountKey(resetPasswordPrefix, accountID))
}

func (r *AccountStateRepository) DeleteResetPasswordToken(ctx context.Context, accountID uuid.UUID) error {
	return r.store.Delete(ctx, accountKey(resetPasswordPrefix, accountID))
}

// IncrementLoginAttempts counts a failed login. The window starts at the first failure.
func (r *AccountStateRepository) IncrementLoginAttempts(ctx context.Context, accountID uuid.UUID) (int64, error) {
	return r.store.Increment(ctx, accountKey(loginAttemptsPrefix, accountID), r.blockDuration)
}

func (r *AccountStateRepository) ResetLoginAttempts(ctx context.Context, accountID uuid.UUID) error {
	return r.store.Delete(ctx, accountKey(loginAttemptsPrefix, accountID))
}

func (r *AccountStateRepository) BlockAccount(ctx context.Context, accountID uuid.UUID) error {
	if err := r.store.Set(ctx, accountKey(blockedUserPrefix, accountID), blockedValue, r.blockDuration); err != nil {
		return err
	}
	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{
			"account_id": accountID,
			"duration":   r.blockDuration.String(),
		}).Warn("account blocked after repeated login failures")
	}
	return nil
}

func (r *AccountStateRepository) IsAccountBlocked(ctx context.Context, accountID uuid.UUID) (bool, error) {
	val, ok, err := r.store.Get(ctx, accountKey(blockedUserPrefix, accountID))
	if err != nil {
		return false, err
	}
	return ok && val == blockedValue, nil
}

func (r *AccountStateRepository) BlacklistAccessToken(ctx context.Context, token string, ttl time.Duration) error {
	return r.blacklist(ctx, tokenKey(accessBlacklistPrefix, token), ttl)
}

func (r *AccountStateRepository) IsAccessTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	return r.exists(ctx, tokenKey(accessBlacklistPrefix, token))
}

func (r *AccountStateRepository) BlacklistRefreshToken(ctx context.Context, token string, ttl time.Duration) error {
	return r.blacklist(ctx, tokenKey(refreshBlacklistPrefix, token), ttl)
}

func (r *AccountStateRepository) IsRefreshTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	return r.exists(ctx, tokenKey(refreshBlacklistPrefix, token))
}

// blacklist skips tokens whose lifetime is already over; they fail verification anyway.
func (r *AccountStateRepository) blacklist(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.store.Set(ctx, key, blacklistedValue, ttl)
}

func (r *AccountStateRepository) exists(ctx context.Context, key string) (bool, error) {
	_, ok, err := r.store.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (r *AccountStateRepository) RevokeAllSessions(ctx context.Context, accountID uuid.UUID, revokedAt time.Time, ttl time.Duration) error {
	value := strconv.FormatInt(revokedAt.Unix(), 10)
	return r.store.Set(ctx, accountKey(allSessionsPrefix, accountID), value, ttl)
}

func (r *AccountStateRepository) SessionsRevokedAt(ctx context.Context, accountID uuid.UUID) (time.Time, bool, error) {
	key := accountKey(allSessionsPrefix, accountID)
	val, ok, err := r.store.Get(ctx, key)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	sec, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"key": key, "value": val}).WithError(err).Warn("ignoring malformed session revocation marker")
		}
		return time.Time{}, false, nil
	}
	return time.Unix(sec, 0).UTC(), true, nil
}
