// Package cache provides a Redis-backed store for TF-IDF scoring results.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/TobiSchelling/TrendCrawler/internal/score"
)

const (
	DefaultPrefix  = "trendcrawler:scores:"
	DefaultTTL     = 24 * time.Hour
	opTimeout      = 2 * time.Second
	invalidateScan = 100
)

// RedisConfig holds connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	Prefix   string
}

// RedisCache implements score.Cache on top of Redis. Redis errors are
// logged and treated as cache misses so scoring never fails because of
// the cache.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

var _ score.Cache = (*RedisCache)(nil)

// NewRedisCache connects to Redis. A failed ping is returned so callers
// can fall back to an in-memory cache.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: opTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
	}
	return newRedisCache(client, cfg), nil
}

func newRedisCache(client *redis.Client, cfg RedisConfig) *RedisCache {
	c := &RedisCache{client: client, ttl: cfg.TTL, prefix: cfg.Prefix}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.prefix == "" {
		c.prefix = DefaultPrefix
	}
	return c
}

// Get returns cached scores for key.
func (c *RedisCache) Get(key string) ([]score.TermScore, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("Warning: redis get %s: %v", key, err)
		return nil, false
	}

	var scores []score.TermScore
	if err := json.Unmarshal(data, &scores); err != nil {
		log.Printf("Warning: decoding cached scores %s: %v", key, err)
		return nil, false
	}
	return scores, true
}

// Put stores scores under key with the configured TTL.
func (c *RedisCache) Put(key string, scores []score.TermScore) {
	data, err := json.Marshal(scores)
	if err != nil {
		log.Printf("Warning: encoding scores %s: %v", key, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		log.Printf("Warning: redis set %s: %v", key, err)
	}
}

// Invalidate deletes every key under the cache prefix.
func (c *RedisCache) Invalidate(ctx context.Context) (int, error) {
	var cursor uint64
	deleted := 0
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", invalidateScan).Result()
		if err != nil {
			return deleted, fmt.Errorf("scanning cached scores: %w", err)
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("deleting cached scores: %w", err)
			}
			deleted += int(n)
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

// Close releases the connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
