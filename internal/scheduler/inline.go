package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"nirvana_backend/internal/intake/domain"
	"nirvana_backend/platform/logger"

	"golang.org/x/sync/semaphore"
)

const defaultInlineWorkers = 32

// InlineDispatcher processes events in-process when no queue is configured.
// At most `workers` events run at once; Dispatch blocks for a free slot so
// the webhook applies backpressure instead of piling up goroutines.
type InlineDispatcher struct {
	handler MessageHandler
	sem     *semaphore.Weighted
	timeout time.Duration
	wg      sync.WaitGroup
	log     *logger.Logger
}

// NewInlineDispatcher creates a dispatcher. timeout bounds a single event,
// including all collaborator calls.
func NewInlineDispatcher(handler MessageHandler, workers int, timeout time.Duration, log *logger.Logger) *InlineDispatcher {
	if workers < 1 {
		workers = defaultInlineWorkers
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &InlineDispatcher{
		handler: handler,
		sem:     semaphore.NewWeighted(int64(workers)),
		timeout: timeout,
		log:     log,
	}
}

// Dispatch starts processing evt and returns once a worker slot is taken.
// Processing outlives the caller's context.
func (d *InlineDispatcher) Dispatch(ctx context.Context, evt domain.InboundEvent) error {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.sem.Release(1)

		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		if _, err := d.handler.Handle(runCtx, evt); err != nil {
			d.log.WithSender(evt.SenderID).Error("inline message handling failed",
				slog.String("message_id", evt.MessageID),
				slog.String("error", err.Error()),
			)
		}
	}()
	return nil
}

// Wait blocks until in-flight events finish or ctx is done.
func (d *InlineDispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
