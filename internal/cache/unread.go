package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xxxsen/accord/internal/config"
)

var ErrCacheMiss = errors.New("cache miss")

const unreadKeyPrefix = "accord:unread:"

// UnreadCounter caches per-recipient unread notification counts. A nil
// client turns every call into a miss or no-op.
type UnreadCounter struct {
	client *redis.Client
	ttl    time.Duration
}

func NewUnreadCounter(client *redis.Client, ttl time.Duration) *UnreadCounter {
	return &UnreadCounter{client: client, ttl: ttl}
}

// NewClient returns nil when no address is configured.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (c *UnreadCounter) Get(ctx context.Context, recipient string) (int, error) {
	if c == nil || c.client == nil {
		return 0, ErrCacheMiss
	}
	raw, err := c.client.Get(ctx, unreadKeyPrefix+recipient).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrCacheMiss
		}
		return 0, fmt.Errorf("redis get unread: %w", err)
	}
	count, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse unread count: %w", err)
	}
	return count, nil
}

func (c *UnreadCounter) Set(ctx context.Context, recipient string, count int) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Set(ctx, unreadKeyPrefix+recipient, count, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set unread: %w", err)
	}
	return nil
}

func (c *UnreadCounter) Invalidate(ctx context.Context, recipients ...string) error {
	if c == nil || c.client == nil || len(recipients) == 0 {
		return nil
	}
	keys := make([]string, 0, len(recipients))
	for _, r := range recipients {
		keys = append(keys, unreadKeyPrefix+r)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete unread: %w", err)
	}
	return nil
}
