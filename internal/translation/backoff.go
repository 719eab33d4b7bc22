package translation

import (
	"context"
	"time"
)

// backoff returns initial * 2^attempt, capped at max.
func backoff(attempt int, initial, max time.Duration) time.Duration {
	d := initial
	for range attempt {
		d *= 2
		if d >= max {
			return max
		}
	}
	return min(d, max)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
