package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyTTL = 24 * time.Hour

// RedisCache holds short-lived coordination state, currently the idempotency
// keys that deduplicate request submissions
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisCache{client: client}, nil
}

// NewRedisCacheFromClient wraps an existing client, used by tests
func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// ClaimIdempotencyKey binds the key to requestID when the key is fresh and
// returns "". When the key is already bound, the bound request id is returned
// and requestID is discarded. Keys expire after 24 hours.
func (c *RedisCache) ClaimIdempotencyKey(ctx context.Context, key, requestID string) (string, error) {
	redisKey := "idempotency:request:" + key

	claimed, err := c.client.SetNX(ctx, redisKey, requestID, idempotencyTTL).Result()
	if err != nil {
		return "", fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	if claimed {
		return "", nil
	}

	existing, err := c.client.Get(ctx, redisKey).Result()
	if err == redis.Nil {
		// key expired between SetNX and Get, treat as fresh
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read idempotency key: %w", err)
	}
	return existing, nil
}

// Close releases the underlying client
func (c *RedisCache) Close() error {
	return c.client.Close()
}
