package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// hitScript mirrors MemoryStore.Hit. Redis expiry stands in for ResetTime, so
// a key that outlived its window is simply gone.
// Returns {count, pttl, allowed}.
var hitScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if not current then
	redis.call('SET', KEYS[1], '1', 'PX', ARGV[2])
	return {1, tonumber(ARGV[2]), 1}
end
current = tonumber(current)
local ttl = redis.call('PTTL', KEYS[1])
if current >= tonumber(ARGV[1]) then
	return {current, ttl, 0}
end
current = redis.call('INCR', KEYS[1])
return {current, ttl, 1}
`)

// RedisStore shares counters between instances through Redis.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
}

type RedisOption func(*RedisStore)

func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = strings.Trim(prefix, ":") }
}

func NewRedisStore(rdb redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{rdb: rdb, prefix: "wordwise:ratelimit"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(k string) string {
	return s.prefix + ":" + k
}

func (s *RedisStore) Hit(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Record, bool, error) {
	vals, err := hitScript.Run(ctx, s.rdb, []string{s.key(key)}, limit, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Record{}, false, fmt.Errorf("redis hit %s: %w", key, err)
	}
	if len(vals) != 3 {
		return Record{}, false, fmt.Errorf("redis hit %s: unexpected reply %v", key, vals)
	}

	ttl := time.Duration(vals[1]) * time.Millisecond
	if ttl < 0 {
		ttl = window
	}
	return Record{Count: int(vals[0]), ResetTime: now.Add(ttl)}, vals[2] == 1, nil
}

// Sweep is a no-op: Redis expires keys on its own.
func (s *RedisStore) Sweep(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}

func (s *RedisStore) Len(ctx context.Context) (int, error) {
	n := 0
	iter := s.rdb.Scan(ctx, 0, s.prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan: %w", err)
	}
	return n, nil
}
