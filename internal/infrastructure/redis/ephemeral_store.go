package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Akiyuki89/my-best-ddd-architecture/internal/core/ports"
	"github.com/go-redis/redis/v8"
)

// incrementScript bumps a counter and sets its expiry only on creation, so
// later increments never extend the window.
var incrementScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 and tonumber(ARGV[1]) > 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// EphemeralStore implements ports.EphemeralStore using a Redis client.
type EphemeralStore struct {
	r redis.Cmdable
	// optional key prefix to namespace entries
	prefix string
}

// NewEphemeralStore creates a new Redis-backed store.
func NewEphemeralStore(r redis.Cmdable, prefix string) *EphemeralStore {
	return &EphemeralStore{r: r, prefix: prefix}
}

var _ ports.EphemeralStore = (*EphemeralStore)(nil)

func (s *EphemeralStore) namespaced(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

func (s *EphemeralStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.r.Set(ctx, s.namespaced(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *EphemeralStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.r.Get(ctx, s.namespaced(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

func (s *EphemeralStore) Delete(ctx context.Context, key string) error {
	if err := s.r.Del(ctx, s.namespaced(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (s *EphemeralStore) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	n, err := incrementScript.Run(ctx, s.r, []string{s.namespaced(key)}, ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", key, err)
	}
	return n, nil
}
