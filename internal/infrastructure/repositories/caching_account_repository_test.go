package repositories_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akiyuki89/my-best-ddd-architecture/internal/core/domain/account"
	redisinfra "github.com/Akiyuki89/my-best-ddd-architecture/internal/infrastructure/redis"
	impl "github.com/Akiyuki89/my-best-ddd-architecture/internal/infrastructure/repositories"
	"github.com/Akiyuki89/my-best-ddd-architecture/test/mocks"
)

func newCachingRepo(t *testing.T) (*impl.CachingAccountRepository, *mocks.AccountRepositoryMock, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	inner := mocks.NewAccountRepositoryMock()
	store := redisinfra.NewEphemeralStore(client, "accountcache")
	return impl.NewCachingAccountRepository(inner, store, time.Minute, nil), inner, mr
}

func TestCachingAccountRepository_ReadThrough(t *testing.T) {
	ctx := context.Background()
	repo, inner, mr := newCachingRepo(t)

	a, err := account.New("Alice", "alice@example.com", "hash", "")
	require.NoError(t, err)
	require.NoError(t, inner.Create(ctx, a))

	got, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, inner.Calls("FindByID"))
	assert.True(t, mr.Exists("accountcache:account:id:"+a.ID.String()))

	got, err = repo.FindByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	// password hash survives the cache round trip
	assert.Equal(t, "hash", got.PasswordHash)
	assert.Equal(t, 0, inner.Calls("FindByEmail"))
}

func TestCachingAccountRepository_MissIsNotCached(t *testing.T) {
	ctx := context.Background()
	repo, inner, _ := newCachingRepo(t)

	got, err := repo.FindByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, _ = repo.FindByEmail(ctx, "nobody@example.com")
	assert.Equal(t, 2, inner.Calls("FindByEmail"))
}

func TestCachingAccountRepository_UpdateInvalidatesOldEmail(t *testing.T) {
	ctx := context.Background()
	repo, _, mr := newCachingRepo(t)

	a, err := account.New("Alice", "alice@example.com", "hash", "")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, a))
	assert.True(t, mr.Exists("accountcache:account:email:alice@example.com"))

	newEmail := "alice@new.example.com"
	updated, err := repo.Update(ctx, a.ID, account.UpdateFields{Email: &newEmail})
	require.NoError(t, err)
	assert.Equal(t, newEmail, updated.Email)

	assert.False(t, mr.Exists("accountcache:account:email:alice@example.com"))

	old, err := repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Nil(t, old)

	byID, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, newEmail, byID.Email)
}

func TestCachingAccountRepository_FindAllCoalesced(t *testing.T) {
	ctx := context.Background()
	repo, inner, _ := newCachingRepo(t)

	for _, email := range []string{"a@example.com", "b@example.com"} {
		a, err := account.New("x", email, "hash", "")
		require.NoError(t, err)
		require.NoError(t, inner.Create(ctx, a))
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			all, err := repo.FindAll(ctx)
			assert.NoError(t, err)
			assert.Len(t, all, 2)
		}()
	}
	wg.Wait()

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.LessOrEqual(t, inner.Calls("FindAll"), 8)
	calls := inner.Calls("FindAll")

	// served from cache now
	_, err = repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, calls, inner.Calls("FindAll"))
}

func TestCachingAccountRepository_DeleteInvalidates(t *testing.T) {
	ctx := context.Background()
	repo, _, mr := newCachingRepo(t)

	a, err := account.New("Alice", "alice@example.com", "hash", "")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, a))
	_, err = repo.FindAll(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, a.ID))
	assert.False(t, mr.Exists("accountcache:account:id:"+a.ID.String()))
	assert.False(t, mr.Exists("accountcache:account:email:alice@example.com"))
	assert.False(t, mr.Exists("accountcache:accounts:all"))

	got, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
