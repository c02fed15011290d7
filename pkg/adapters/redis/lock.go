package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/relay/pkg/chain"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

var (
	// ErrLockAcquire is returned when the lock cannot be acquired.
	ErrLockAcquire = errors.New("failed to acquire distributed lock")
)

// UnlockFunc releases a lock.
type UnlockFunc func(ctx context.Context) error

const unlockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// Locker hands out distributed locks using Redis SET NX PX.
type Locker struct {
	client *backend.Client
	prefix string
	poll   time.Duration
}

// NewLocker creates a new Redis locker.
func NewLocker(client *backend.Client, prefix string) *Locker {
	return &Locker{
		client: client,
		prefix: prefix,
		poll:   100 * time.Millisecond,
	}
}

// Lock acquires the lock for key, polling until ctx is done.
// The lock expires after ttl if never released.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error) {
	lockKey := l.prefix + "lock:" + key
	val := uuid.NewString()

	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, lockKey, val, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis error acquiring lock: %w", err)
		}
		if ok {
			return func(ctx context.Context) error {
				return l.client.Eval(ctx, unlockScript, []string{lockKey}, val).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrLockAcquire, key, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Exclusive returns middleware that lets only one invocation of an
// operation run at a time across every process sharing the Redis server.
func (l *Locker) Exclusive(ttl time.Duration) chain.Middleware {
	return func(ctx context.Context, req *chain.Request, next chain.Next) (any, error) {
		unlock, err := l.Lock(ctx, req.Operation, ttl)
		if err != nil {
			return nil, err
		}
		defer unlock(context.WithoutCancel(ctx))
		return next(nil)
	}
}
