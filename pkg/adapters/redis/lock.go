package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"

	"github.com/tmarche/fabula/pkg/ports"
)

// retryInterval is how often Lock re-attempts a held lock.
const retryInterval = 100 * time.Millisecond

// unlockScript releases a lock only if the caller still holds it, so an
// expired-and-reacquired lock is never deleted by the old holder.
var unlockScript = backend.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// Locker implements ports.DistributedLocker using Redis SET NX. The lock
// value is a random token checked on release, and the TTL bounds how long
// a crashed holder can wedge a key.
type Locker struct {
	client *backend.Client
	prefix string
}

var _ ports.DistributedLocker = (*Locker)(nil)

// NewLocker creates a distributed locker sharing the store's client.
func NewLocker(client *backend.Client, prefix string) *Locker {
	if prefix == "" {
		prefix = "fabula:"
	}
	return &Locker{
		client: client,
		prefix: prefix,
	}
}

func (l *Locker) key(lockKey string) string {
	return l.prefix + "lock:" + lockKey
}

// Lock blocks until the lock is acquired or the context is done.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	lockKey := l.key(key)
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, lockKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}

	if !acquired {
		ticker := time.NewTicker(retryInterval)
		defer ticker.Stop()

		for !acquired {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-ticker.C:
				acquired, err = l.client.SetNX(ctx, lockKey, token, ttl).Result()
				if err != nil {
					return nil, fmt.Errorf("failed to acquire lock: %w", err)
				}
			}
		}
	}

	unlock := func(ctx context.Context) error {
		if err := unlockScript.Run(ctx, l.client, []string{lockKey}, token).Err(); err != nil && err != backend.Nil {
			return fmt.Errorf("failed to release lock: %w", err)
		}
		return nil
	}
	return unlock, nil
}
