package outbox

import (
	"encoding/json"
	"fmt"
	"time"
)

// OutboxMessage represents a message waiting to be published to RabbitMQ.
type OutboxMessage struct {
	ID           int64
	QueueName    string
	ExchangeName string
	RoutingKey   string
	Payload      []byte
	ContentType  string
	RetryCount   int
	MaxRetries   int
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	NextRetryAt  time.Time
}

// Attempt is the outcome of a failed publish.
type Attempt struct {
	RetryCount  int
	LastError   string
	NextRetryAt time.Time
}

// Destination says where an outbox message is published.
type Destination struct {
	ExchangeName string
	RoutingKey   string
	MaxRetries   int
}

// NewJSONMessage marshals payload and schedules it for immediate delivery.
func NewJSONMessage(dst Destination, payload any, now time.Time) (OutboxMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return OutboxMessage{}, fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	return OutboxMessage{
		QueueName:    dst.RoutingKey,
		ExchangeName: dst.ExchangeName,
		RoutingKey:   dst.RoutingKey,
		Payload:      body,
		ContentType:  "application/json",
		MaxRetries:   dst.MaxRetries,
		CreatedAt:    now,
		UpdatedAt:    now,
		NextRetryAt:  now,
	}, nil
}
