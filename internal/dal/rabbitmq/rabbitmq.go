package rabbitmq

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/spf13/viper"
	"github.com/streadway/amqp"
)

// ErrNotConfirmed is returned when the broker nacks a message or does not
// confirm it within the confirm timeout.
var ErrNotConfirmed = errors.New("rabbitmq: publish not confirmed")

// Client is a RabbitMQ connection with one channel in confirm mode.
type Client struct {
	conn           *amqp.Connection
	channel        *amqp.Channel
	confirms       chan amqp.Confirmation
	confirmTimeout time.Duration

	// deliveryTag of the last publish; the broker numbers publishes from 1.
	deliveryTag uint64
	mu          sync.Mutex
}

// Publish sends one persistent message and waits for the broker to confirm it.
func (r *Client) Publish(exchange string, routingKey string, contentType string, body []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.channel.Publish(
		exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  contentType,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return err
	}
	r.deliveryTag++

	return waitConfirm(r.confirms, r.deliveryTag, r.confirmTimeout)
}

// waitConfirm waits for the confirmation of tag. Late confirmations of
// earlier publishes that already timed out are skipped.
func waitConfirm(confirms <-chan amqp.Confirmation, tag uint64, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case c, ok := <-confirms:
			if !ok {
				return fmt.Errorf("%w: channel closed", ErrNotConfirmed)
			}
			if c.DeliveryTag < tag {
				continue
			}
			if !c.Ack {
				return fmt.Errorf("%w: delivery tag %d nacked", ErrNotConfirmed, c.DeliveryTag)
			}

			return nil
		case <-timer.C:
			return fmt.Errorf("%w: no confirm for delivery tag %d after %s", ErrNotConfirmed, tag, timeout)
		}
	}
}

// Close closes the channel and connection for graceful shutdown.
func (r *Client) Close() error {
	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			return err
		}
	}
	if r.conn != nil {
		return r.conn.Close()
	}

	return nil
}

func connString() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(os.Getenv("RABBITMQ_DEFAULT_USER"), os.Getenv("RABBITMQ_DEFAULT_PASS")),
		Host:   net.JoinHostPort(viper.GetString("rabbitmq.host"), viper.GetString("rabbitmq.port")),
		Path:   "/" + viper.GetString("rabbitmq.vhost"),
	}
	return u.String()
}

// MustNewClient creates a new RabbitMQ client.
func MustNewClient() *Client {
	conn, err := amqp.Dial(connString())
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to RabbitMQ: %v", err))
	}

	channel, err := conn.Channel()
	if err != nil {
		err := conn.Close()
		if err != nil {
			panic(fmt.Sprintf("Failed to close a connection: %v", err))
		}
		panic(fmt.Sprintf("Failed to open a channel: %v", err))
	}

	if err := channel.Confirm(false); err != nil {
		panic(fmt.Sprintf("Failed to put channel into confirm mode: %v", err))
	}

	confirmTimeout := time.Duration(viper.GetInt("rabbitmq.confirm_timeout_seconds")) * time.Second
	if confirmTimeout <= 0 {
		confirmTimeout = 5 * time.Second
	}

	slog.Info("RabbitMQ connected", "host", viper.GetString("rabbitmq.host"))

	return &Client{
		conn:           conn,
		channel:        channel,
		confirms:       channel.NotifyPublish(make(chan amqp.Confirmation, 1)),
		confirmTimeout: confirmTimeout,
	}
}

type DeclareQueueConfig struct {
	Name       string
	Durable    bool
	AutoDelete bool
	Exclusive  bool
	NoWait     bool
	Args       amqp.Table
}

// DeclareQueue declares a queue with the given configuration.
func (r *Client) DeclareQueue(cfg DeclareQueueConfig) (amqp.Queue, error) {
	return r.channel.QueueDeclare(
		cfg.Name,
		cfg.Durable,
		cfg.AutoDelete,
		cfg.Exclusive,
		cfg.NoWait,
		cfg.Args,
	)
}

// DeclareTopology declares a durable topic exchange and a durable queue bound
// to it by routingKey. An empty exchange uses the default exchange, where the
// queue is reachable by its name.
func (r *Client) DeclareTopology(exchange string, queue string, routingKey string) error {
	if _, err := r.DeclareQueue(DeclareQueueConfig{Name: queue, Durable: true}); err != nil {
		return fmt.Errorf("failed to declare queue %q: %w", queue, err)
	}

	if exchange == "" {
		return nil
	}

	if err := r.channel.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %q: %w", exchange, err)
	}

	if err := r.channel.QueueBind(queue, routingKey, exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %q to %q: %w", queue, exchange, err)
	}

	return nil
}
