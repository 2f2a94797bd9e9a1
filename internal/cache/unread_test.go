package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/accord/internal/config"
)

func setupCounter(t *testing.T) (*UnreadCounter, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewUnreadCounter(client, time.Minute), s
}

func TestUnreadCounterRoundTrip(t *testing.T) {
	counter, _ := setupCounter(t)
	ctx := context.Background()

	_, err := counter.Get(ctx, "a@x.com")
	require.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, counter.Set(ctx, "a@x.com", 4))
	count, err := counter.Get(ctx, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, 4, count)

	require.NoError(t, counter.Invalidate(ctx, "a@x.com", "b@x.com"))
	_, err = counter.Get(ctx, "a@x.com")
	require.ErrorIs(t, err, ErrCacheMiss)
}

func TestUnreadCounterExpires(t *testing.T) {
	counter, s := setupCounter(t)
	ctx := context.Background()

	require.NoError(t, counter.Set(ctx, "a@x.com", 1))
	s.FastForward(2 * time.Minute)
	_, err := counter.Get(ctx, "a@x.com")
	require.ErrorIs(t, err, ErrCacheMiss)
}

func TestUnreadCounterWithoutClient(t *testing.T) {
	counter := NewUnreadCounter(nil, time.Minute)
	ctx := context.Background()
	_, err := counter.Get(ctx, "a@x.com")
	require.ErrorIs(t, err, ErrCacheMiss)
	require.NoError(t, counter.Set(ctx, "a@x.com", 1))
	require.NoError(t, counter.Invalidate(ctx, "a@x.com"))
}

func TestNewClient(t *testing.T) {
	client, err := NewClient(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	require.Nil(t, client)

	s := miniredis.RunT(t)
	client, err = NewClient(context.Background(), config.RedisConfig{Addr: s.Addr()})
	require.NoError(t, err)
	require.NotNil(t, client)
	_ = client.Close()
}
