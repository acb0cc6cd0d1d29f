// Package cache keeps computed summaries in Redis between mutations.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JonMunkholm/schoolbooks/internal/core"
	"github.com/JonMunkholm/schoolbooks/internal/logging"
)

// KeyPrefix namespaces every summary key.
const KeyPrefix = "schoolbooks:summary:"

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Redis implements core.SummaryCache. Errors are logged and treated as misses.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects, pings the server and drops summary keys left by an
// earlier process, whose store may no longer hold the same books.
func NewRedis(ctx context.Context, opts Options) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	r := &Redis{client: client, ttl: ttl}

	if err := r.DeletePattern(pingCtx, KeyPrefix+"*"); err != nil {
		client.Close()
		return nil, fmt.Errorf("clear stale summaries: %w", err)
	}
	return r, nil
}

// Key returns the cache key for a summary. Membership sets are sorted first
// so equivalent criteria share a key.
func Key(dim core.Dimension, c core.Criteria) (string, error) {
	c.Zones = sortedCopy(c.Zones)
	c.Grades = sortedCopy(c.Grades)
	c.Categories = sortedCopy(c.Categories)

	raw, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode criteria: %w", err)
	}
	sum := sha256.Sum256(raw)
	return KeyPrefix + string(dim) + ":" + hex.EncodeToString(sum[:8]), nil
}

func sortedCopy(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

func (r *Redis) GetSummary(ctx context.Context, dim core.Dimension, c core.Criteria) (*core.Summary, bool) {
	key, err := Key(dim, c)
	if err != nil {
		logging.FromContext(ctx).Warn("summary cache key failed", "error", err)
		return nil, false
	}
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		logging.FromContext(ctx).Warn("summary cache read failed", "key", key, "error", err)
		return nil, false
	}

	var s core.Summary
	if err := json.Unmarshal(raw, &s); err != nil {
		logging.FromContext(ctx).Warn("summary cache entry unreadable", "key", key, "error", err)
		return nil, false
	}
	return &s, true
}

func (r *Redis) PutSummary(ctx context.Context, dim core.Dimension, c core.Criteria, s *core.Summary) {
	key, err := Key(dim, c)
	if err != nil {
		logging.FromContext(ctx).Warn("summary cache key failed", "error", err)
		return
	}
	raw, err := json.Marshal(s)
	if err != nil {
		logging.FromContext(ctx).Warn("summary encode failed", "error", err)
		return
	}
	if err := r.client.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		logging.FromContext(ctx).Warn("summary cache write failed", "key", key, "error", err)
	}
}

// Invalidate deletes every summary key.
func (r *Redis) Invalidate(ctx context.Context) {
	if err := r.DeletePattern(ctx, KeyPrefix+"*"); err != nil {
		logging.FromContext(ctx).Warn("summary cache invalidation failed", "error", err)
	}
}

// DeletePattern removes keys matching pattern using SCAN, never KEYS.
func (r *Redis) DeletePattern(ctx context.Context, pattern string) error {
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return r.client.Del(ctx, batch...).Err()
	}
	return nil
}

// Ping checks the connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
