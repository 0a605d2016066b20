package postgresrepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/storefront/order/internal/dal/postgres"
	"github.com/corray333/storefront/order/internal/service/models/outbox"
	"github.com/jackc/pgx/v5"
)

var columns = []string{
	"id",
	"queue_name",
	"exchange_name",
	"routing_key",
	"payload",
	"content_type",
	"retry_count",
	"max_retries",
	"last_error",
	"created_at",
	"updated_at",
	"next_retry_at",
}

// OutboxRepository stores order events until the publisher delivers them.
// Bound to a transaction, Insert commits together with the order.
type OutboxRepository struct {
	conn postgres.Conn
	sb   sq.StatementBuilderType
	now  func() time.Time
}

func NewOutboxRepository(conn postgres.Conn) *OutboxRepository {
	return &OutboxRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		now:  time.Now,
	}
}

func (r *OutboxRepository) buildInsertQuery(msg outbox.OutboxMessage) (string, []any, error) {
	return r.sb.Insert("outbox").
		Columns(columns[1:]...).
		Values(
			msg.QueueName,
			msg.ExchangeName,
			msg.RoutingKey,
			msg.Payload,
			msg.ContentType,
			msg.RetryCount,
			msg.MaxRetries,
			msg.LastError,
			msg.CreatedAt,
			msg.UpdatedAt,
			msg.NextRetryAt,
		).
		ToSql()
}

func (r *OutboxRepository) Insert(ctx context.Context, msg outbox.OutboxMessage) error {
	sql, args, err := r.buildInsertQuery(msg)
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to insert outbox message: %w", err)
	}

	return nil
}

// buildClaimQuery pushes next_retry_at of a batch of due rows to leaseUntil
// and returns them. SKIP LOCKED lets several publishers claim disjoint batches.
func (r *OutboxRepository) buildClaimQuery(limit int, leaseUntil time.Time) (string, []any, error) {
	now := r.now()

	due, dueArgs, err := sq.Select("id").
		From("outbox").
		Where(sq.LtOrEq{"next_retry_at": now}).
		Where("retry_count < max_retries").
		OrderBy("next_retry_at").
		Limit(uint64(limit)).
		Suffix("FOR UPDATE SKIP LOCKED").
		ToSql()
	if err != nil {
		return "", nil, err
	}

	return r.sb.Update("outbox").
		Set("next_retry_at", leaseUntil).
		Set("updated_at", now).
		Where(sq.Expr("id IN ("+due+")", dueArgs...)).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()
}

func (r *OutboxRepository) Claim(ctx context.Context, limit int, leaseUntil time.Time) ([]outbox.OutboxMessage, error) {
	sql, args, err := r.buildClaimQuery(limit, leaseUntil)
	if err != nil {
		return nil, fmt.Errorf("failed to build claim query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to claim outbox messages: %w", err)
	}

	return scanMessages(rows)
}

func (r *OutboxRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("outbox").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to delete outbox message: %w", err)
	}

	return nil
}

func (r *OutboxRepository) buildRescheduleQuery(id int64, attempt outbox.Attempt) (string, []any, error) {
	return r.sb.Update("outbox").
		Set("retry_count", attempt.RetryCount).
		Set("last_error", attempt.LastError).
		Set("next_retry_at", attempt.NextRetryAt).
		Set("updated_at", r.now()).
		Where(sq.Eq{"id": id}).
		ToSql()
}

func (r *OutboxRepository) Reschedule(ctx context.Context, id int64, attempt outbox.Attempt) error {
	sql, args, err := r.buildRescheduleQuery(id, attempt)
	if err != nil {
		return fmt.Errorf("failed to build reschedule query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to reschedule outbox message: %w", err)
	}

	return nil
}

func scanMessages(rows pgx.Rows) ([]outbox.OutboxMessage, error) {
	defer rows.Close()

	var messages []outbox.OutboxMessage
	for rows.Next() {
		var msg outbox.OutboxMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.QueueName,
			&msg.ExchangeName,
			&msg.RoutingKey,
			&msg.Payload,
			&msg.ContentType,
			&msg.RetryCount,
			&msg.MaxRetries,
			&msg.LastError,
			&msg.CreatedAt,
			&msg.UpdatedAt,
			&msg.NextRetryAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outbox messages: %w", err)
	}

	return messages, nil
}
