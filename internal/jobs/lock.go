package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

// Locker hands out best-effort leases so only one replica runs a job
type Locker interface {
	// TryLock reports whether the caller now holds key for ttl
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// RedisLocker leases keys in Redis and is shared by every replica
type RedisLocker struct {
	client *redislock.Client
}

// NewRedisLocker creates a locker over client
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: redislock.New(client)}
}

// TryLock obtains key without retrying. The lease is left to expire.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	_, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// LocalLocker leases keys inside one process
type LocalLocker struct {
	clock clockwork.Clock

	mu     sync.Mutex
	leases map[string]time.Time
}

// NewLocalLocker creates an in-process locker
func NewLocalLocker(clock clockwork.Clock) *LocalLocker {
	return &LocalLocker{clock: clock, leases: make(map[string]time.Time)}
}

// TryLock grants key unless an unexpired lease holds it
func (l *LocalLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if expires, ok := l.leases[key]; ok && now.Before(expires) {
		return false, nil
	}
	l.leases[key] = now.Add(ttl)
	return true, nil
}
