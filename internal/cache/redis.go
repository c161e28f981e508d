package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smokyabdulrahman/shaum/internal/forecast"
	"github.com/smokyabdulrahman/shaum/internal/hijri"
)

const redisKeyPrefix = "shaum:calendar:"

// RedisCache shares calendar months between processes through Redis.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// RedisOptions configures NewRedis.
type RedisOptions struct {
	Addr     string
	Username string
	Password string
	DB       int
	// TTL defaults to CalendarTTL.
	TTL time.Duration
}

// NewRedis creates a Redis-backed cache. It does not contact the server;
// use Ping to check connectivity.
func NewRedis(opts RedisOptions) *RedisCache {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = CalendarTTL
	}
	return &RedisCache{
		rdb: redis.NewClient(&redis.Options{
			Addr:        opts.Addr,
			Username:    opts.Username,
			Password:    opts.Password,
			DB:          opts.DB,
			DialTimeout: 2 * time.Second,
			ReadTimeout: 2 * time.Second,
		}),
		ttl: ttl,
	}
}

func redisKey(key forecast.Key) string {
	return redisKeyPrefix + key.String()
}

// Ping checks that the server is reachable.
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// LoadCalendar reads a cached month. Connection errors count as a miss.
func (c *RedisCache) LoadCalendar(ctx context.Context, key forecast.Key) ([]hijri.Mapping, bool) {
	data, err := c.rdb.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		return nil, false
	}

	var days []hijri.Mapping
	if err := json.Unmarshal(data, &days); err != nil {
		return nil, false
	}
	return days, true
}

// SaveCalendar writes a month with the configured TTL.
func (c *RedisCache) SaveCalendar(ctx context.Context, key forecast.Key, days []hijri.Mapping) error {
	data, err := json.Marshal(days)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if err := c.rdb.Set(ctx, redisKey(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to add %s to redis: %w", redisKey(key), err)
	}
	return nil
}

// Clear deletes every cached month under the shaum prefix.
func (c *RedisCache) Clear(ctx context.Context) (int, error) {
	var n int
	iter := c.rdb.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return n, fmt.Errorf("failed to delete %s: %w", iter.Val(), err)
		}
		n++
	}
	if err := iter.Err(); err != nil {
		return n, fmt.Errorf("redis scan failed: %w", err)
	}
	return n, nil
}

// Close releases the connection pool.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
