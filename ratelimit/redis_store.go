package ratelimit

import (
	"context"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Store lets fixed-window counters be shared across processes instead of
// living only in one Limiter's in-memory entries map, the same externalized
// pattern as session.Store and transport/server/auth.RedisStore.
type Store interface {
	// Incr atomically increments the counter for key in the current window
	// bucket and returns the post-increment count, setting the bucket's TTL
	// to window on first increment.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisStore is a Store backed by Redis, keying each fixed window bucket as
// "<prefix><key>:<bucket index>" so expiry is automatic via Redis TTL.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed rate-limit counter Store.
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "mcp:ratelimit:"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	bucket := time.Now().UnixNano() / int64(window)
	fullKey := s.prefix + key + ":" + strconv.FormatInt(bucket, 10)

	pipe := s.rdb.TxPipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.Expire(ctx, fullKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
