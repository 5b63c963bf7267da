package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisinfra "github.com/Akiyuki89/my-best-ddd-architecture/internal/infrastructure/redis"
	impl "github.com/Akiyuki89/my-best-ddd-architecture/internal/infrastructure/repositories"
)

func newStateRepo(t *testing.T, block time.Duration) (*impl.AccountStateRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := redisinfra.NewEphemeralStore(client, "")
	return impl.NewAccountStateRepository(store, block, logrus.New()), mr
}

func TestAccountState_VerificationCode(t *testing.T) {
	ctx := context.Background()
	repo, mr := newStateRepo(t, time.Minute)
	id := uuid.New()

	require.NoError(t, repo.SetEmailVerificationCode(ctx, id, "code-1", time.Hour))
	assert.Equal(t, "code-1", mustGet(t, mr, "email_verification:"+id.String()))
	assert.Equal(t, time.Hour, mr.TTL("email_verification:"+id.String()))

	code, ok, err := repo.GetEmailVerificationCode(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "code-1", code)

	require.NoError(t, repo.DeleteEmailVerificationCode(ctx, id))
	_, ok, err = repo.GetEmailVerificationCode(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAccountState_ResetTokenRejectsExpiredTTL(t *testing.T) {
	ctx := context.Background()
	repo, mr := newStateRepo(t, time.Minute)
	id := uuid.New()

	assert.Error(t, repo.SetResetPasswordToken(ctx, id, "tok", 0))

	require.NoError(t, repo.SetResetPasswordToken(ctx, id, "tok", time.Hour))
	assert.True(t, mr.Exists("reset_password:"+id.String()))

	mr.FastForward(time.Hour + time.Second)
	_, ok, err := repo.GetResetPasswordToken(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAccountState_LoginAttemptsAndBlock(t *testing.T) {
	ctx := context.Background()
	repo, mr := newStateRepo(t, 15*time.Minute)
	id := uuid.New()

	for i := int64(1); i <= 3; i++ {
		n, err := repo.IncrementLoginAttempts(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}
	assert.Equal(t, 15*time.Minute, mr.TTL("login_attempts:"+id.String()))

	require.NoError(t, repo.ResetLoginAttempts(ctx, id))
	assert.False(t, mr.Exists("login_attempts:"+id.String()))

	blocked, err := repo.IsAccountBlocked(ctx, id)
	require.NoError(t, err)
	assert.False(t, blocked)

	require.NoError(t, repo.BlockAccount(ctx, id))
	assert.Equal(t, "blocked", mustGet(t, mr, "blocked_user:"+id.String()))

	blocked, err = repo.IsAccountBlocked(ctx, id)
	require.NoError(t, err)
	assert.True(t, blocked)

	mr.FastForward(16 * time.Minute)
	blocked, err = repo.IsAccountBlocked(ctx, id)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestAccountState_Blacklists(t *testing.T) {
	ctx := context.Background()
	repo, mr := newStateRepo(t, time.Minute)

	require.NoError(t, repo.BlacklistAccessToken(ctx, "a.b.c", time.Minute))
	require.NoError(t, repo.BlacklistRefreshToken(ctx, "d.e.f", time.Hour))
	assert.True(t, mr.Exists("blacklist:access:a.b.c"))
	assert.True(t, mr.Exists("blacklist:refresh:d.e.f"))

	ok, err := repo.IsAccessTokenBlacklisted(ctx, "a.b.c")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IsRefreshTokenBlacklisted(ctx, "a.b.c")
	require.NoError(t, err)
	assert.False(t, ok)

	// expired tokens are not stored
	require.NoError(t, repo.BlacklistAccessToken(ctx, "old", -time.Second))
	assert.False(t, mr.Exists("blacklist:access:old"))
}

func TestAccountState_RevokeAllSessions(t *testing.T) {
	ctx := context.Background()
	repo, mr := newStateRepo(t, time.Minute)
	id := uuid.New()

	_, ok, err := repo.SessionsRevokedAt(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.RevokeAllSessions(ctx, id, at, 7*24*time.Hour))
	assert.Equal(t, "1709294400", mustGet(t, mr, "blacklist:all-sessions:"+id.String()))

	got, ok, err := repo.SessionsRevokedAt(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, at.Equal(got))

	require.NoError(t, mr.Set("blacklist:all-sessions:"+id.String(), "garbage"))
	_, ok, err = repo.SessionsRevokedAt(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}
