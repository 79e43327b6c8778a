package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a held lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker defines the interface for cross-instance concurrency
// control over save keys. The in-process saves manager already serializes
// one process; a distributed locker extends that guarantee across replicas
// sharing a backend.
type DistributedLocker interface {
	// Lock acquires a lock for the given key, blocking until it is
	// acquired or the context is canceled. The TTL guards against a
	// crashed holder. The returned UnlockFunc MUST be called to release.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
