package ioutboxrepo

import (
	"context"
	"time"

	"github.com/corray333/storefront/order/internal/service/models/outbox"
)

type IOutboxRepository interface {
	Insert(ctx context.Context, msg outbox.OutboxMessage) error
	// Claim leases up to limit due messages until leaseUntil.
	// Rows leased by another publisher are skipped.
	Claim(ctx context.Context, limit int, leaseUntil time.Time) ([]outbox.OutboxMessage, error)
	Delete(ctx context.Context, id int64) error
	// Reschedule records a failed delivery and when to try again.
	Reschedule(ctx context.Context, id int64, attempt outbox.Attempt) error
}
