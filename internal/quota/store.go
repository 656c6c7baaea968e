package quota

import (
	"context"
	"time"
)

// CounterStore is the shared counter backend for quota windows. Incr must
// atomically increment the counter for key, start the window on first
// increment, and report the updated count plus the time remaining until the
// window resets.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, reset time.Duration, err error)
	Close() error
}
