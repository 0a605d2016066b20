package orphans

import (
	"context"
	"log/slog"
	"time"

	"github.com/corray333/storefront/order/internal/dal/interfaces/iorderrepo"
	"github.com/spf13/viper"
)

// Worker deletes orders left without items by a checkout that died between
// its order insert and its compensating delete.
type Worker struct {
	orderRepo    iorderrepo.IOrderRepository
	pollInterval time.Duration
	gracePeriod  time.Duration
	batchSize    int
	now          func() time.Time
	stopCh       chan struct{}
}

// NewWorker creates a new orphan order reaper.
func NewWorker(orderRepo iorderrepo.IOrderRepository) *Worker {
	pollIntervalSeconds := viper.GetInt("orders.reaper.poll_interval_seconds")
	if pollIntervalSeconds == 0 {
		pollIntervalSeconds = 60
	}

	gracePeriodSeconds := viper.GetInt("orders.reaper.grace_period_seconds")
	if gracePeriodSeconds == 0 {
		gracePeriodSeconds = 600
	}

	batchSize := viper.GetInt("orders.reaper.batch_size")
	if batchSize == 0 {
		batchSize = 100
	}

	return &Worker{
		orderRepo:    orderRepo,
		pollInterval: time.Duration(pollIntervalSeconds) * time.Second,
		gracePeriod:  time.Duration(gracePeriodSeconds) * time.Second,
		batchSize:    batchSize,
		now:          time.Now,
		stopCh:       make(chan struct{}),
	}
}

// Start reaps orphans on every tick until ctx is done or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	slog.Info("Orphan order reaper started",
		"poll_interval", w.pollInterval,
		"grace_period", w.gracePeriod,
	)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Orphan order reaper shutting down")

			return
		case <-w.stopCh:
			slog.Info("Orphan order reaper stopped")

			return
		case <-ticker.C:
			w.reap(ctx)
		}
	}
}

// Stop stops the worker.
func (w *Worker) Stop() {
	close(w.stopCh)
}

// reap deletes one batch of orphans older than the grace period.
// A young order without items may still be mid-checkout and is left alone.
func (w *Worker) reap(ctx context.Context) int {
	ids, err := w.orderRepo.DeleteOrphans(ctx, w.now().Add(-w.gracePeriod), w.batchSize)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to delete orphan orders", "error", err)

		return 0
	}

	for _, id := range ids {
		slog.WarnContext(ctx, "Deleted orphan order without items", "order_id", id.String())
	}

	return len(ids)
}
