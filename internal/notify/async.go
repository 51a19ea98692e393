package notify

import (
	"context"
	"errors"

	"github.com/panjf2000/ants/v2"

	"github.com/gbetibienvenu/HealthMonitorApp/internal/health"
)

// Async presents notifications on a bounded worker pool. Calls return once
// the work is queued; presentation errors are logged.
type Async struct {
	next   Notifier
	pool   *ants.Pool
	logger Logger
}

// NewAsync starts a pool of size workers in front of next.
func NewAsync(next Notifier, size int, logger Logger) (*Async, error) {
	if logger == nil {
		logger = nopLogger{}
	}
	if size < 1 {
		size = 1
	}
	pool, err := ants.NewPool(size,
		ants.WithPanicHandler(func(p interface{}) {
			logger.Error("notification worker panicked", "panic", p)
		}),
		ants.WithMaxBlockingTasks(size*10),
	)
	if err != nil {
		return nil, err
	}
	return &Async{next: next, pool: pool, logger: logger}, nil
}

func (a *Async) ShowAlert(ctx context.Context, alert health.Alert) error {
	ctx = context.WithoutCancel(ctx)
	return a.submit(func() {
		if err := a.next.ShowAlert(ctx, alert); err != nil {
			a.logger.Warn("alert notification failed", "level", alert.Level, "error", err)
		}
	})
}

func (a *Async) ShowRecommendation(ctx context.Context, message string, priority health.Priority) error {
	ctx = context.WithoutCancel(ctx)
	return a.submit(func() {
		if err := a.next.ShowRecommendation(ctx, message, priority); err != nil {
			a.logger.Warn("recommendation notification failed", "priority", priority, "error", err)
		}
	})
}

func (a *Async) submit(task func()) error {
	err := a.pool.Submit(task)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ants.ErrPoolClosed):
		return ErrPoolClosed
	case errors.Is(err, ants.ErrPoolOverload):
		return ErrOverloaded
	default:
		return err
	}
}

// Running returns the number of notifications being presented.
func (a *Async) Running() int {
	return a.pool.Running()
}

// Release stops the pool. Queued notifications may be dropped.
func (a *Async) Release() {
	a.pool.Release()
}
