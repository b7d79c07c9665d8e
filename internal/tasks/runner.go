// Package tasks runs detached background work that must outlive the request that started it.
package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Runner starts tasks on their own goroutines with a context that is independent of any request.
// Shutdown cancels that context and waits for in-flight tasks.
type Runner struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	grace   time.Duration
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// DefaultCancelGrace is how long Shutdown waits for canceled tasks before abandoning them.
const DefaultCancelGrace = 2 * time.Second

// NewRunner creates a runner. timeout bounds each task; zero means unbounded.
func NewRunner(timeout time.Duration, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{ctx: ctx, cancel: cancel, timeout: timeout, grace: DefaultCancelGrace, logger: logger}
}

// Go runs fn in the background. Errors and panics are logged and never reach the caller.
func (r *Runner) Go(name string, fn func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx := r.ctx
		if r.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}
		defer func() {
			if p := recover(); p != nil {
				r.logger.Error("background task panicked", zap.String("task", name), zap.String("panic", fmt.Sprint(p)))
			}
		}()
		if err := fn(ctx); err != nil {
			r.logger.Warn("background task failed", zap.String("task", name), zap.Error(err))
		}
	}()
}

// Wait blocks until every started task has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Shutdown waits for in-flight tasks until ctx is done, then cancels them. Tasks that ignore cancellation
// are abandoned after a short grace period so shutdown stays bounded.
func (r *Runner) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		t := time.NewTimer(r.grace)
		defer t.Stop()
		select {
		case <-done:
		case <-t.C:
			r.logger.Warn("abandoning background tasks that ignored cancellation")
		}
		return ctx.Err()
	}
}
