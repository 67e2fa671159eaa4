// Package redislock is a single-holder lock over Redis SET NX PX.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotHeld is returned by an unlock whose key expired or was taken over.
var ErrNotHeld = errors.New("redislock: lock not held")

// UnlockFunc releases a lock taken by TryLock.
type UnlockFunc func(ctx context.Context) error

const unlockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`

var unlock = redis.NewScript(unlockScript)

type Locker struct {
	client redis.UniversalClient
	prefix string
}

type Option func(*Locker)

// WithPrefix namespaces every lock key.
func WithPrefix(prefix string) Option {
	return func(l *Locker) { l.prefix = prefix }
}

func New(client redis.UniversalClient, opts ...Option) *Locker {
	l := &Locker{client: client, prefix: "naw:"}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// TryLock takes key for ttl without waiting. ok is false when another holder
// has it.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, bool, error) {
	lockKey := l.prefix + "lock:" + key
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, lockKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redislock: acquire %s: %w", key, err)
	}
	if !acquired {
		return nil, false, nil
	}
	return func(ctx context.Context) error {
		n, err := unlock.Run(ctx, l.client, []string{lockKey}, token).Int()
		if err != nil {
			return fmt.Errorf("redislock: release %s: %w", key, err)
		}
		if n == 0 {
			return ErrNotHeld
		}
		return nil
	}, true, nil
}
