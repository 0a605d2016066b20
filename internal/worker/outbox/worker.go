package outbox

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/corray333/storefront/order/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/storefront/order/internal/service/models/outbox"
	"github.com/spf13/viper"
)

// publisher sends one message to the broker.
type publisher interface {
	Publish(exchange string, routingKey string, contentType string, body []byte) error
}

// Worker publishes order events stored in the outbox table.
type Worker struct {
	outboxRepo    ioutboxrepo.IOutboxRepository
	publisher     publisher
	pollInterval  time.Duration
	batchSize     int
	retryInterval time.Duration
	lease         time.Duration
	now           func() time.Time
	stopCh        chan struct{}
}

// NewWorker creates a new outbox worker.
func NewWorker(
	outboxRepo ioutboxrepo.IOutboxRepository,
	publisher publisher,
) *Worker {
	pollIntervalSeconds := viper.GetInt("rabbitmq.outbox.poll_interval_seconds")
	if pollIntervalSeconds == 0 {
		pollIntervalSeconds = 10
	}

	batchSize := viper.GetInt("rabbitmq.outbox.batch_size")
	if batchSize == 0 {
		batchSize = 100
	}

	retryIntervalSeconds := viper.GetInt("rabbitmq.outbox.retry_interval_seconds")
	if retryIntervalSeconds == 0 {
		retryIntervalSeconds = 30
	}

	leaseSeconds := viper.GetInt("rabbitmq.outbox.lease_seconds")
	if leaseSeconds == 0 {
		leaseSeconds = 60
	}

	return &Worker{
		outboxRepo:    outboxRepo,
		publisher:     publisher,
		pollInterval:  time.Duration(pollIntervalSeconds) * time.Second,
		batchSize:     batchSize,
		retryInterval: time.Duration(retryIntervalSeconds) * time.Second,
		lease:         time.Duration(leaseSeconds) * time.Second,
		now:           time.Now,
		stopCh:        make(chan struct{}),
	}
}

// Start begins processing messages from the outbox.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	slog.Info("Outbox worker started", "poll_interval", w.pollInterval, "batch_size", w.batchSize)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Outbox worker shutting down")

			return
		case <-w.stopCh:
			slog.Info("Outbox worker stopped")

			return
		case <-ticker.C:
			w.processMessages(ctx)
		}
	}
}

// Stop stops the worker.
func (w *Worker) Stop() {
	close(w.stopCh)
}

// backoff returns the delay before attempt retryCount: retryInterval doubled per attempt.
func (w *Worker) backoff(retryCount int) time.Duration {
	return time.Duration(math.Pow(2, float64(retryCount-1)) * float64(w.retryInterval))
}

// processMessages claims a batch of due messages and publishes them.
// A claimed message that is neither deleted nor rescheduled becomes due
// again once its lease expires.
func (w *Worker) processMessages(ctx context.Context) {
	messages, err := w.outboxRepo.Claim(ctx, w.batchSize, w.now().Add(w.lease))
	if err != nil {
		slog.ErrorContext(ctx, "Failed to claim outbox messages", "error", err)

		return
	}

	if len(messages) == 0 {
		return
	}

	slog.InfoContext(ctx, "Processing outbox messages", "count", len(messages))

	for _, msg := range messages {
		w.processMessage(ctx, msg)
	}
}

func (w *Worker) processMessage(ctx context.Context, msg outbox.OutboxMessage) {
	err := w.publisher.Publish(msg.ExchangeName, msg.RoutingKey, msg.ContentType, msg.Payload)
	if err != nil {
		attempt := outbox.Attempt{
			RetryCount: msg.RetryCount + 1,
			LastError:  err.Error(),
		}
		attempt.NextRetryAt = w.now().Add(w.backoff(attempt.RetryCount))

		if attempt.RetryCount >= msg.MaxRetries {
			slog.ErrorContext(ctx, "Outbox message exhausted its retries and stays undelivered",
				"outbox_id", msg.ID,
				"routing_key", msg.RoutingKey,
				"error", err,
			)
		} else {
			slog.WarnContext(ctx, "Failed to publish message from outbox, will retry",
				"outbox_id", msg.ID,
				"retry_count", attempt.RetryCount,
				"next_retry", attempt.NextRetryAt,
				"error", err,
			)
		}

		if err := w.outboxRepo.Reschedule(ctx, msg.ID, attempt); err != nil {
			slog.ErrorContext(ctx, "Failed to reschedule outbox message", "outbox_id", msg.ID, "error", err)
		}

		return
	}

	if err := w.outboxRepo.Delete(ctx, msg.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to delete message from outbox after successful publish",
			"outbox_id", msg.ID,
			"error", err,
		)

		return
	}

	slog.DebugContext(ctx, "Message published and removed from outbox",
		"outbox_id", msg.ID,
		"routing_key", msg.RoutingKey,
	)
}
