package cache

import (
	"context"
	"errors"
	"fmt"
	"route-planner-service/internal/platform/obs"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "route-planner:polyline:"

// RedisPolylineCache shares computed polylines between service instances.
type RedisPolylineCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisPolylineCache(client *redis.Client, ttl time.Duration) *RedisPolylineCache {
	return &RedisPolylineCache{Client: client, TTL: ttl}
}

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (r *RedisPolylineCache) Get(ctx context.Context, key string) (_ string, _ bool, err error) {
	defer obs.Time(ctx, "polyline.cache.redis.Get")(&err)

	if r.Client == nil {
		return "", false, errors.New("polyline cache: redis client is nil")
	}

	val, err := r.Client.Get(ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get polyline cache: redis get: %w", err)
	}
	return val, true, nil
}

func (r *RedisPolylineCache) Put(ctx context.Context, key string, polyline string) (err error) {
	defer obs.Time(ctx, "polyline.cache.redis.Put")(&err)

	if r.Client == nil {
		return errors.New("polyline cache: redis client is nil")
	}

	if err := r.Client.Set(ctx, redisKeyPrefix+key, polyline, r.TTL).Err(); err != nil {
		return fmt.Errorf("put polyline cache: redis set: %w", err)
	}
	return nil
}
