package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"course-purchase/internal/domain/ports/adapter"
	"course-purchase/internal/infra/logging"
	"course-purchase/internal/infra/metrics"
	"course-purchase/internal/infra/worker"
)

var _ adapter.Notifier = (*Dispatcher)(nil)

// Submitter is the part of worker.Pool the dispatcher needs.
type Submitter interface {
	Submit(task worker.Task) error
}

// Dispatcher queues notifications on a worker pool so request handlers never
// wait on push delivery. Failed sends are retried with linear backoff; after
// the last attempt the notification is logged as dead-lettered.
type Dispatcher struct {
	sender      Sender
	pool        Submitter
	maxAttempts int
	backoff     time.Duration
	timeout     time.Duration
	log         *zerolog.Logger
}

func NewDispatcher(sender Sender, pool Submitter, maxAttempts int, backoff time.Duration, logger *zerolog.Logger) *Dispatcher {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	l := logging.OrNop(logger).With().Str("component", "NotifyDispatcher").Logger()
	return &Dispatcher{
		sender:      sender,
		pool:        pool,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		timeout:     10 * time.Second,
		log:         &l,
	}
}

// Notify never blocks. An error means the notification was dropped.
func (d *Dispatcher) Notify(ctx context.Context, n adapter.Notification) error {
	traceID := logging.TraceID(ctx)
	err := d.pool.Submit(func(poolCtx context.Context) error {
		return d.deliver(poolCtx, traceID, n)
	})
	if err != nil {
		metrics.IncNotification(string(n.Kind), "dropped")
		return fmt.Errorf("notify %s: %w", n.Kind, err)
	}
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, traceID string, n adapter.Notification) error {
	if traceID != "" {
		ctx = logging.WithTraceID(ctx, traceID)
	}
	log := logging.With(ctx, d.log)

	var lastErr error
attempts:
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
		lastErr = d.sender.Send(sendCtx, n)
		cancel()
		if lastErr == nil {
			metrics.IncNotification(string(n.Kind), "sent")
			return nil
		}
		if attempt == d.maxAttempts {
			break
		}
		metrics.IncNotification(string(n.Kind), "retry")
		log.Debug().Err(lastErr).Int("attempt", attempt).Str("kind", string(n.Kind)).Msg("notification send failed, retrying")

		select {
		case <-ctx.Done():
			lastErr = ctx.Err()
			break attempts
		case <-time.After(d.backoff * time.Duration(attempt)):
		}
	}

	metrics.IncNotification(string(n.Kind), "dead_letter")
	log.Error().Err(lastErr).
		Str("kind", string(n.Kind)).
		Str("user_id", n.UserID).
		Interface("data", n.Data).
		Msg("notification dead-lettered")
	return nil
}
