package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opensource-finance/credix/internal/domain"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "credix:"

// RedisCache implements Cache using Redis.
// Used as the Pro tier cache and as L2 in two-phase caching.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache.
func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return &RedisCache{client: client}, nil
}

// Get retrieves a value from Redis. A missing key is nil, nil.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Set stores a value in Redis with TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, redisKeyPrefix+key, value, ttl).Err()
}

// Delete removes a value from Redis.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, redisKeyPrefix+key).Err()
}

// GetCustomer retrieves a cached customer snapshot.
func (c *RedisCache) GetCustomer(ctx context.Context, customerID string) (*domain.CustomerRecord, error) {
	data, err := c.Get(ctx, CustomerKey(customerID))
	if err != nil || data == nil {
		return nil, err
	}
	return decodeCustomer(data)
}

// SetCustomer caches a customer snapshot.
func (c *RedisCache) SetCustomer(ctx context.Context, rec *domain.CustomerRecord, ttl time.Duration) error {
	data, err := encodeCustomer(rec)
	if err != nil {
		return err
	}
	return c.Set(ctx, CustomerKey(rec.CustomerID), data, ttl)
}

// Ping checks Redis connectivity.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
