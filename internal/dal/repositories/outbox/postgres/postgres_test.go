package postgresrepo

import (
	"testing"
	"time"

	"github.com/corray333/storefront/order/internal/service/models/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const returningSQL = "RETURNING id, queue_name, exchange_name, routing_key, payload, content_type, " +
	"retry_count, max_retries, last_error, created_at, updated_at, next_retry_at"

func newTestRepository(now time.Time) *OutboxRepository {
	r := NewOutboxRepository(nil)
	r.now = func() time.Time { return now }
	return r
}

func TestBuildInsertQuery(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	msg, err := outbox.NewJSONMessage(outbox.Destination{
		ExchangeName: "orders",
		RoutingKey:   "order.created",
		MaxRetries:   5,
	}, map[string]string{"order_id": "42"}, now)
	require.NoError(t, err)

	sql, args, err := newTestRepository(now).buildInsertQuery(msg)
	require.NoError(t, err)

	assert.Equal(t,
		"INSERT INTO outbox (queue_name,exchange_name,routing_key,payload,content_type,retry_count,max_retries,last_error,created_at,updated_at,next_retry_at) "+
			"VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)",
		sql,
	)
	require.Len(t, args, 11)
	assert.Equal(t, "orders", args[1])
	assert.Equal(t, "order.created", args[2])
	assert.JSONEq(t, `{"order_id":"42"}`, string(args[3].([]byte)))
	assert.Equal(t, "application/json", args[4])
	assert.Equal(t, now, args[10])
}

func TestBuildClaimQuery(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	leaseUntil := now.Add(time.Minute)

	sql, args, err := newTestRepository(now).buildClaimQuery(100, leaseUntil)
	require.NoError(t, err)

	assert.Equal(t,
		"UPDATE outbox SET next_retry_at = $1, updated_at = $2 WHERE id IN ("+
			"SELECT id FROM outbox WHERE next_retry_at <= $3 AND retry_count < max_retries "+
			"ORDER BY next_retry_at LIMIT 100 FOR UPDATE SKIP LOCKED"+
			") "+returningSQL,
		sql,
	)
	assert.Equal(t, []any{leaseUntil, now, now}, args)
}

func TestBuildRescheduleQuery(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	next := now.Add(2 * time.Minute)

	sql, args, err := newTestRepository(now).buildRescheduleQuery(9, outbox.Attempt{
		RetryCount:  3,
		LastError:   "channel closed",
		NextRetryAt: next,
	})
	require.NoError(t, err)

	assert.Equal(t,
		"UPDATE outbox SET retry_count = $1, last_error = $2, next_retry_at = $3, updated_at = $4 WHERE id = $5",
		sql,
	)
	assert.Equal(t, []any{3, "channel closed", next, now, int64(9)}, args)
}
