package lock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DistributedLock guards work that must run on at most one instance at a time.
type DistributedLock interface {
	// Acquire tries to take the lock for ttl. Returns false if another
	// holder already has it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Renew extends a held lock's TTL. Returns false if the lock expired.
	Renew(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release drops the lock.
	Release(ctx context.Context, key string) error
}

// RedisLock implements DistributedLock with SET NX + TTL.
type RedisLock struct {
	client *redis.Client
}

func NewRedisLock(client *redis.Client) *RedisLock {
	return &RedisLock{client: client}
}

func (l *RedisLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, "lock:"+key, "1", ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (l *RedisLock) Renew(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.Expire(ctx, "lock:"+key, ttl).Result()
}

func (l *RedisLock) Release(ctx context.Context, key string) error {
	return l.client.Del(ctx, "lock:"+key).Err()
}
