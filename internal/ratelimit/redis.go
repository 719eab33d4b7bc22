package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/deck-translate/pkg/lifecycle"
	"github.com/redis/go-redis/v9"
)

// incrementScript increments the counter, starts the window on first use,
// and returns the count with the remaining TTL in milliseconds.
var incrementScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if count == 1 or ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisStore keeps buckets in Redis so limits hold across service instances.
type RedisStore struct {
	client redis.Scripter
}

// NewRedisStore creates a RedisStore over client.
func NewRedisStore(client redis.Scripter) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration, now time.Time) (Bucket, error) {
	res, err := incrementScript.Run(ctx, s.client, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Bucket{}, fmt.Errorf("increment %s: %w", key, err)
	}
	if len(res) != 2 {
		return Bucket{}, fmt.Errorf("increment %s: unexpected reply length %d", key, len(res))
	}

	ttl := time.Duration(res[1]) * time.Millisecond
	return Bucket{
		Count:       int(res[0]),
		WindowStart: now.Add(ttl - window),
	}, nil
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg *RedisConfig, logger *slog.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Addr, err)
	}

	logger.Info("redis connected", "addr", cfg.Addr, "db", cfg.DB)
	return client, nil
}

// CloseOnShutdown closes client once the coordinator shuts down.
func CloseOnShutdown(lc *lifecycle.Coordinator, client *redis.Client, logger *slog.Logger) {
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := client.Close(); err != nil {
			logger.Error("redis close failed", "error", err)
			return
		}
		logger.Info("redis connection closed")
	})
}
