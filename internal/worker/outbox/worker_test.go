package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/corray333/storefront/order/internal/service/models/outbox"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockOutboxRepository struct {
	mock.Mock
}

func (m *mockOutboxRepository) Insert(ctx context.Context, msg outbox.OutboxMessage) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *mockOutboxRepository) Claim(ctx context.Context, limit int, leaseUntil time.Time) ([]outbox.OutboxMessage, error) {
	args := m.Called(ctx, limit, leaseUntil)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]outbox.OutboxMessage), args.Error(1)
}

func (m *mockOutboxRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockOutboxRepository) Reschedule(ctx context.Context, id int64, attempt outbox.Attempt) error {
	return m.Called(ctx, id, attempt).Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(exchange string, routingKey string, contentType string, body []byte) error {
	return m.Called(exchange, routingKey, contentType, body).Error(0)
}

func newTestWorker(repo *mockOutboxRepository, pub *mockPublisher, now time.Time) *Worker {
	viper.Reset()
	w := NewWorker(repo, pub)
	w.now = func() time.Time { return now }
	return w
}

func TestWorker_ProcessMessages(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	published := outbox.OutboxMessage{ID: 1, RoutingKey: "order.created", ContentType: "application/json", Payload: []byte(`{"a":1}`)}
	failing := outbox.OutboxMessage{ID: 2, RoutingKey: "order.created", ContentType: "application/json", Payload: []byte(`{"b":2}`), RetryCount: 2, MaxRetries: 5}

	repo := &mockOutboxRepository{}
	pub := &mockPublisher{}
	w := newTestWorker(repo, pub, now)

	repo.On("Claim", mock.Anything, 100, now.Add(time.Minute)).Return([]outbox.OutboxMessage{published, failing}, nil)
	pub.On("Publish", "", "order.created", "application/json", published.Payload).Return(nil)
	pub.On("Publish", "", "order.created", "application/json", failing.Payload).Return(errors.New("channel closed"))
	repo.On("Delete", mock.Anything, int64(1)).Return(nil)
	// third attempt waits 30s * 2^2
	repo.On("Reschedule", mock.Anything, int64(2), outbox.Attempt{
		RetryCount:  3,
		LastError:   "channel closed",
		NextRetryAt: now.Add(120 * time.Second),
	}).Return(nil)

	w.processMessages(context.Background())

	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
	repo.AssertNotCalled(t, "Delete", mock.Anything, int64(2))
}

func TestWorker_ProcessMessages_RepositoryError(t *testing.T) {
	repo := &mockOutboxRepository{}
	pub := &mockPublisher{}
	w := newTestWorker(repo, pub, time.Now())

	repo.On("Claim", mock.Anything, 100, mock.Anything).Return(nil, errors.New("db down"))

	w.processMessages(context.Background())

	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWorker_ProcessMessages_LastRetry(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	msg := outbox.OutboxMessage{ID: 7, RoutingKey: "order.created", Payload: []byte(`{}`), RetryCount: 4, MaxRetries: 5}

	repo := &mockOutboxRepository{}
	pub := &mockPublisher{}
	w := newTestWorker(repo, pub, now)

	repo.On("Claim", mock.Anything, 100, mock.Anything).Return([]outbox.OutboxMessage{msg}, nil)
	pub.On("Publish", "", "order.created", "", msg.Payload).Return(errors.New("nack"))
	repo.On("Reschedule", mock.Anything, int64(7), mock.MatchedBy(func(a outbox.Attempt) bool {
		return a.RetryCount == 5 && a.LastError == "nack"
	})).Return(nil)

	w.processMessages(context.Background())

	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestWorker_Backoff(t *testing.T) {
	w := newTestWorker(&mockOutboxRepository{}, &mockPublisher{}, time.Now())

	assert.Equal(t, 30*time.Second, w.backoff(1))
	assert.Equal(t, 60*time.Second, w.backoff(2))
	assert.Equal(t, 240*time.Second, w.backoff(4))
}

func TestWorker_StartStops(t *testing.T) {
	w := newTestWorker(&mockOutboxRepository{}, &mockPublisher{}, time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancellation")
	}
}
