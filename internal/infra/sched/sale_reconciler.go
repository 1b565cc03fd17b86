package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"course-purchase/internal/domain"
	"course-purchase/internal/infra/logging"
)

const reconcilerLockKey = "lock:sale-reconciler"

// SaleExpirer is the part of the purchase use case the reconciler drives.
type SaleExpirer interface {
	ExpireStale(ctx context.Context, olderThan time.Time, limit int) (int, error)
}

// Locker guards a tick when several replicas run the reconciler.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, error)
	Unlock(ctx context.Context, key, token string) error
}

// SaleReconciler periodically marks pending sales that were never paid as
// failed, so abandoned checkouts do not stay pending forever.
type SaleReconciler struct {
	uc         SaleExpirer
	locker     Locker // optional
	interval   time.Duration
	staleAfter time.Duration
	batchSize  int
	now        func() time.Time
	log        *zerolog.Logger
}

func NewSaleReconciler(uc SaleExpirer, locker Locker, interval, staleAfter time.Duration, batchSize int, logger *zerolog.Logger) *SaleReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 2 * time.Hour
	}
	l := logging.OrNop(logger).With().Str("component", "SaleReconciler").Logger()
	return &SaleReconciler{
		uc:         uc,
		locker:     locker,
		interval:   interval,
		staleAfter: staleAfter,
		batchSize:  batchSize,
		now:        time.Now,
		log:        &l,
	}
}

func (w *SaleReconciler) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting sale reconciler")
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping sale reconciler")
			return ctx.Err()
		case <-t.C:
			w.Tick(ctx)
		}
	}
}

// Tick runs one reconciliation pass and returns the number of expired sales.
func (w *SaleReconciler) Tick(ctx context.Context) int {
	if w.locker != nil {
		token, err := w.locker.TryLock(ctx, reconcilerLockKey, w.interval)
		if err != nil {
			if !errors.Is(err, domain.ErrLockNotAcquired) {
				w.log.Warn().Err(err).Msg("reconciler lock failed")
			}
			return 0
		}
		defer func() {
			if err := w.locker.Unlock(context.WithoutCancel(ctx), reconcilerLockKey, token); err != nil {
				w.log.Warn().Err(err).Msg("reconciler unlock failed")
			}
		}()
	}

	n, err := w.uc.ExpireStale(ctx, w.now().Add(-w.staleAfter), w.batchSize)
	if err != nil {
		w.log.Error().Err(err).Msg("expire stale sales failed")
	}
	if n > 0 {
		w.log.Info().Int("count", n).Msg("stale sales expired")
	}
	return n
}
