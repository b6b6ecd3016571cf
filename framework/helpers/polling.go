package helpers

import (
	"context"
	"time"
)

// PollUntil calls testFn immediately and then at each interval until it returns true, in which case
// PollUntil returns nil, or until ctx is done, in which case it returns ctx.Err().
func PollUntil(ctx context.Context, interval time.Duration, testFn func() bool) error {
	if testFn() {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if testFn() {
				return nil
			}
		}
	}
}
