package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/glizzus/cronspan/internal/repository"
)

type RunPuller interface {
	Pull(ctx context.Context, before time.Time) ([]repository.ScheduleRun, error)
}

// Dispatcher moves runs that are due within the lookahead window from the
// repository to a job handler.
type Dispatcher struct {
	puller    RunPuller
	handler   JobHandler
	lookahead time.Duration
	now       func() time.Time
}

func NewDispatcher(puller RunPuller, handler JobHandler, lookahead time.Duration) *Dispatcher {
	return &Dispatcher{
		puller:    puller,
		handler:   handler,
		lookahead: lookahead,
		now:       time.Now,
	}
}

// DispatchOnce hands over every run due before now plus the lookahead and
// returns how many were dispatched.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (int, error) {
	runs, err := d.puller.Pull(ctx, d.now().Add(d.lookahead))
	if err != nil {
		return 0, fmt.Errorf("failed to pull runs: %w", err)
	}
	if len(runs) == 0 {
		return 0, nil
	}

	jobs := make([]ScheduleRunJob, 0, len(runs))
	for _, run := range runs {
		jobs = append(jobs, JobFromRun(run))
	}
	if err := d.handler.HandleJobs(ctx, jobs...); err != nil {
		return 0, fmt.Errorf("failed to handle %d jobs: %w", len(jobs), err)
	}
	return len(jobs), nil
}

// Run dispatches every interval until ctx is done. Failures are logged and
// retried on the next tick.
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, err := d.DispatchOnce(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "failed to dispatch runs", slog.Any("error", err))
		} else if n > 0 {
			slog.InfoContext(ctx, "dispatched runs", slog.Int("count", n))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
