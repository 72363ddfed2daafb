package schedule

import (
	"context"
	"time"
)

// RunAt calls execute at runAt on a separate goroutine. If ctx is done first,
// execute is not called.
func RunAt(ctx context.Context, runAt time.Time, execute func(ctx context.Context)) {
	go func() {
		delay := time.Until(runAt)
		if delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
		}
		if ctx.Err() != nil {
			return
		}
		execute(ctx)
	}()
}
