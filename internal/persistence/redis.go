package persistence

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/personnel-service/internal/config"
)

// Redis wraps the go-redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// UnreadCounterCache is a read-through cache for per-receiver unread
// notification counts. A miss or any Redis failure simply falls back to the
// store; entries are invalidated whenever a notification is created or read.
type UnreadCounterCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewUnreadCounterCache builds the cache on top of the shared client.
func NewUnreadCounterCache(r *Redis, ttl time.Duration) *UnreadCounterCache {
	if r == nil || r.Client == nil {
		return nil
	}
	return &UnreadCounterCache{client: r.Client, ttl: ttl}
}

func unreadKey(receiverID string) string {
	return "notifications:unread:" + receiverID
}

// Get returns the cached count, or ok=false on miss or error.
func (c *UnreadCounterCache) Get(ctx context.Context, receiverID string) (int, bool) {
	if c == nil {
		return 0, false
	}
	val, err := c.client.Get(ctx, unreadKey(receiverID)).Result()
	if err != nil {
		return 0, false
	}
	count, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return count, true
}

// Set stores the count with the configured TTL.
func (c *UnreadCounterCache) Set(ctx context.Context, receiverID string, count int) {
	if c == nil {
		return
	}
	_ = c.client.Set(ctx, unreadKey(receiverID), strconv.Itoa(count), c.ttl).Err()
}

// Invalidate drops the cached count.
func (c *UnreadCounterCache) Invalidate(ctx context.Context, receiverID string) {
	if c == nil {
		return
	}
	_ = c.client.Del(ctx, unreadKey(receiverID)).Err()
}
