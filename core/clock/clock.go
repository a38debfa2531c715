// Package clock abstracts time so the poll and verification loops can run
// under a fake clock in tests instead of sleeping in real time.
package clock

import (
	"context"
	"time"
)

// Clock provides current time and cancellable sleeping
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is cancelled, returning ctx's error
	// in the cancelled case
	Sleep(ctx context.Context, d time.Duration) error
}

// Real uses the system clock
type Real struct{}

// Now returns the current system time
func (Real) Now() time.Time {
	return time.Now()
}

// Sleep blocks for d, honoring context cancellation
func (Real) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
