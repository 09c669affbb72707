// Package lock provides keyed mutual exclusion, in-process or shared through redis.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned when a key could not be acquired before the deadline.
var ErrTimeout = errors.New("lock: acquire timeout")

// Locker serializes work per key. The returned release func is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, key string, timeout time.Duration) (release func(), err error)
}
