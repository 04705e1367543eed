package session

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Store lets a deployer point several Manager instances at one external
// record store (e.g. Redis) so a session created against one process is
// visible to another. This is a single shared store, not a replication
// protocol: spec.md's "no cluster-wide session replication" non-goal still
// holds, since nothing here propagates writes between independently-held
// copies.
type Store interface {
	Put(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	Delete(ctx context.Context, id string) error
}

// RedisStore is a Store backed by Redis, grounded on the same client the
// teacher's transport/server/auth.RedisStore already uses.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed session Store.
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "mcp:session:"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(id string) string { return s.prefix + id }

func (s *RedisStore) Put(ctx context.Context, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	var ttl time.Duration
	if rec.TimeoutSeconds > 0 {
		ttl = time.Duration(rec.TimeoutSeconds) * time.Second
	}
	return s.rdb.Set(ctx, s.key(rec.ID), data, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Record, error) {
	raw, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		return nil, err
	}
	rec := &Record{}
	if err := json.Unmarshal(raw, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, s.key(id)).Err()
}
