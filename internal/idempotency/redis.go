package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const pendingValue = "pending"

// RedisStore keeps keys in Redis with a TTL.
type RedisStore struct {
	rdb    *goredis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisClient connects and pings the server.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func NewRedisStore(rdb *goredis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{rdb: rdb, ttl: ttl, prefix: "bookshare:idempotency:"}
}

func (s *RedisStore) redisKey(scope, key string) string {
	return s.prefix + scope + ":" + key
}

func (s *RedisStore) Reserve(ctx context.Context, scope, key string) (uint, bool, error) {
	rk := s.redisKey(scope, key)
	ok, err := s.rdb.SetNX(ctx, rk, pendingValue, s.ttl).Result()
	if err != nil {
		return 0, false, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	if ok {
		return 0, true, nil
	}

	val, err := s.rdb.Get(ctx, rk).Result()
	if errors.Is(err, goredis.Nil) {
		// Expired between SETNX and GET.
		return s.Reserve(ctx, scope, key)
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to load idempotency key: %w", err)
	}
	if val == pendingValue {
		return 0, false, ErrInProgress
	}
	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt idempotency value %q: %w", val, err)
	}
	return uint(id), false, nil
}

func (s *RedisStore) Complete(ctx context.Context, scope, key string, resourceID uint) error {
	return s.rdb.Set(ctx, s.redisKey(scope, key), strconv.FormatUint(uint64(resourceID), 10), s.ttl).Err()
}

func (s *RedisStore) Release(ctx context.Context, scope, key string) error {
	return s.rdb.Del(ctx, s.redisKey(scope, key)).Err()
}

// Purge is a no-op: Redis expires keys on its own.
func (s *RedisStore) Purge(context.Context) (int64, error) {
	return 0, nil
}
