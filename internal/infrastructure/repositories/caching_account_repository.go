package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/Akiyuki89/my-best-ddd-architecture/internal/core/domain/account"
	"github.com/Akiyuki89/my-best-ddd-architecture/internal/core/ports"
)

const accountsAllKey = "accounts:all"

func accountIDKey(id uuid.UUID) string { return "account:id:" + id.String() }
func accountEmailKey(email string) string { return "account:email:" + account.NormalizeEmail(email) }

// cachedAccount mirrors account.Account including the password hash, which the
// domain type keeps out of its JSON form.
type cachedAccount struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Role         string    `json:"role"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toCached(a *account.Account) cachedAccount {
	return cachedAccount{
		ID: a.ID, Name: a.Name, Email: a.Email, PasswordHash: a.PasswordHash,
		Role: a.Role, Verified: a.Verified, CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt,
	}
}

func (c cachedAccount) account() *account.Account {
	return &account.Account{
		ID: c.ID, Name: c.Name, Email: c.Email, PasswordHash: c.PasswordHash,
		Role: c.Role, Verified: c.Verified, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
}

// CachingAccountRepository decorates an AccountRepository with cache-aside
// lookups by id and email and a coalesced full-list load. Writes invalidate.
type CachingAccountRepository struct {
	inner  ports.AccountRepository
	cache  ports.EphemeralStore
	ttl    time.Duration
	logger *logrus.Logger
	sf     singleflight.Group
}

func NewCachingAccountRepository(inner ports.AccountRepository, cache ports.EphemeralStore, ttl time.Duration, logger *logrus.Logger) *CachingAccountRepository {
	return &CachingAccountRepository{inner: inner, cache: cache, ttl: ttl, logger: logger}
}

var _ ports.AccountRepository = (*CachingAccountRepository)(nil)

func (c *CachingAccountRepository) setSilently(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, string(b), c.ttl); err != nil && c.logger != nil {
		c.logger.WithFields(logrus.Fields{"key": key}).WithError(err).Debug("cache: set failed")
	}
}

func (c *CachingAccountRepository) deleteSilently(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := c.cache.Delete(ctx, key); err != nil && c.logger != nil {
			c.logger.WithFields(logrus.Fields{"key": key}).WithError(err).Warn("cache: invalidation failed")
		}
	}
}

func cacheGet[T any](ctx context.Context, cache ports.EphemeralStore, key string) (*T, bool) {
	s, ok, err := cache.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	var v T
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return &v, true
}

func (c *CachingAccountRepository) remember(ctx context.Context, a *account.Account) {
	entry := toCached(a)
	c.setSilently(ctx, accountIDKey(a.ID), entry)
	c.setSilently(ctx, accountEmailKey(a.Email), entry)
}

func (c *CachingAccountRepository) forget(ctx context.Context, a *account.Account) {
	c.deleteSilently(ctx, accountIDKey(a.ID), accountEmailKey(a.Email))
}

func (c *CachingAccountRepository) Create(ctx context.Context, a *account.Account) error {
	if err := c.inner.Create(ctx, a); err != nil {
		return err
	}
	c.remember(ctx, a)
	c.deleteSilently(ctx, accountsAllKey)
	return nil
}

func (c *CachingAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	if v, ok := cacheGet[cachedAccount](ctx, c.cache, accountIDKey(id)); ok {
		return v.account(), nil
	}
	a, err := c.inner.FindByID(ctx, id)
	if err == nil && a != nil {
		c.remember(ctx, a)
	}
	return a, err
}

func (c *CachingAccountRepository) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	if v, ok := cacheGet[cachedAccount](ctx, c.cache, accountEmailKey(email)); ok {
		return v.account(), nil
	}
	a, err := c.inner.FindByEmail(ctx, email)
	if err == nil && a != nil {
		c.remember(ctx, a)
	}
	return a, err
}

// FindAll coalesces concurrent cache misses into one load.
func (c *CachingAccountRepository) FindAll(ctx context.Context) ([]*account.Account, error) {
	if v, ok := cacheGet[[]cachedAccount](ctx, c.cache, accountsAllKey); ok {
		return fromCachedList(*v), nil
	}
	res, err, _ := c.sf.Do(accountsAllKey, func() (any, error) {
		if v, ok := cacheGet[[]cachedAccount](ctx, c.cache, accountsAllKey); ok {
			return fromCachedList(*v), nil
		}
		all, err := c.inner.FindAll(ctx)
		if err != nil {
			return nil, err
		}
		entries := make([]cachedAccount, 0, len(all))
		for _, a := range all {
			entries = append(entries, toCached(a))
		}
		c.setSilently(ctx, accountsAllKey, entries)
		return all, nil
	})
	if err != nil {
		return nil, err
	}
	all, ok := res.([]*account.Account)
	if !ok {
		return nil, fmt.Errorf("unexpected type from singleflight result")
	}
	return all, nil
}

func fromCachedList(entries []cachedAccount) []*account.Account {
	out := make([]*account.Account, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.account())
	}
	return out
}

func (c *CachingAccountRepository) Update(ctx context.Context, id uuid.UUID, fields account.UpdateFields) (*account.Account, error) {
	// Need the current email to drop its key when the address changes
	previous, _ := c.inner.FindByID(ctx, id)
	updated, err := c.inner.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	if previous != nil {
		c.forget(ctx, previous)
	}
	c.remember(ctx, updated)
	c.deleteSilently(ctx, accountsAllKey)
	return updated, nil
}

func (c *CachingAccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	current, _ := c.inner.FindByID(ctx, id)
	if err := c.inner.Delete(ctx, id); err != nil {
		return err
	}
	c.deleteSilently(ctx, accountIDKey(id), accountsAllKey)
	if current != nil {
		c.deleteSilently(ctx, accountEmailKey(current.Email))
	}
	return nil
}
