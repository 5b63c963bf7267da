package redis

import (
	"context"
	"fmt"
	"time"

	config "github.com/Akiyuki89/my-best-ddd-architecture/configs"
	"github.com/go-redis/redis/v8"
)

// Client is the subset of the standalone and cluster clients the process needs.
type Client interface {
	redis.Cmdable
	Close() error
}

// NewClient connects to a cluster when cluster addresses are configured and to
// a single node otherwise.
func NewClient(cfg *config.RedisConfig) (Client, error) {
	if len(cfg.ClusterAddrs) > 0 {
		c, err := NewRedisClusterClient(cfg.ClusterAddrs, cfg.Password)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	c, err := NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// NewRedisClient creates a new Redis client
func NewRedisClient(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolTimeout:  cfg.PoolTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	})

	if err := ping(client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// NewRedisClusterClient creates a new Redis cluster client
func NewRedisClusterClient(addrs []string, password string) (*redis.ClusterClient, error) {
	client := redis.NewClusterClient(&redis.ClusterOptions{
		Addrs:    addrs,
		Password: password,
	})

	if err := ping(client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis cluster: %w", err)
	}

	return client, nil
}

func ping(c redis.Cmdable) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.Ping(ctx).Err()
}
