package engine

import (
	"context"
	"time"
)

// TimeScheduler is the wall-clock Scheduler used in production. Tests
// substitute a zero-delay recorder.
type TimeScheduler struct{}

func (TimeScheduler) Delay(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
