package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock taken by a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serialises submissions to one session across server
// replicas sharing a store. The session manager holds it for every store
// access it makes on behalf of one session.
type DistributedLocker interface {
	// Lock blocks until key is held or ctx is done. The lock expires on its
	// own after ttl, so a crashed replica cannot hold a session forever.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
