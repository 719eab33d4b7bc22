//go:build integration

package ratelimit_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/deck-translate/internal/ratelimit"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) *goredis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := redis.Run(ctx,
		"redis:7.4-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate redis container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := ratelimit.NewRedisClient(ctx, &ratelimit.RedisConfig{
		Addr:     fmt.Sprintf("%s:%s", host, port.Port()),
		PoolSize: 20,
	}, discard())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client
}

func TestRedisStore_FixedWindow(t *testing.T) {
	client := setupRedis(t)
	policies := map[string]ratelimit.Policy{
		ratelimit.ActionLogin: {Limit: 5, Window: 2 * time.Second},
	}
	l := ratelimit.New(ratelimit.NewRedisStore(client), policies, discard(), ratelimit.WithKeyPrefix("test:"))
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		d, err := l.Check(ctx, "user-1", ratelimit.ActionLogin)
		require.NoError(t, err)
		require.True(t, d.Allowed, "call %d", i)
	}

	d, err := l.Check(ctx, "user-1", ratelimit.ActionLogin)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Greater(t, d.RetryAfterSeconds, 0)

	time.Sleep(2100 * time.Millisecond)

	d, err = l.Check(ctx, "user-1", ratelimit.ActionLogin)
	require.NoError(t, err)
	require.True(t, d.Allowed)
}

func TestRedisStore_Concurrent(t *testing.T) {
	client := setupRedis(t)
	policies := map[string]ratelimit.Policy{
		ratelimit.ActionTranslate: {Limit: 25, Window: time.Minute},
	}
	l := ratelimit.New(ratelimit.NewRedisStore(client), policies, discard())

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for range 100 {
		wg.Go(func() {
			d, err := l.Check(context.Background(), "shared", ratelimit.ActionTranslate)
			if err == nil && d.Allowed {
				allowed.Add(1)
			}
		})
	}
	wg.Wait()

	require.Equal(t, int32(25), allowed.Load())
}
