package resilience

import (
	"context"
	"time"
)

// Retry calls fn up to attempts times, doubling the delay between tries
// starting from baseDelay. It stops early on success or when ctx is
// cancelled; the last error is returned otherwise.
func Retry(ctx context.Context, attempts int, baseDelay time.Duration, fn func(ctx context.Context) error) error {
	var err error
	delay := baseDelay
	for i := 0; i < attempts; i++ {
		if i > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
			delay *= 2
		}
		if err = fn(ctx); err == nil {
			return nil
		}
	}
	return err
}
