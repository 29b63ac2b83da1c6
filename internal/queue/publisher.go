package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends events to a durable RabbitMQ queue.  Each publish opens its
// own connection; reset requests are rare enough that pooling is not worth
// the reconnect handling.
type Publisher struct {
	URL   string
	Queue string
	Log   *slog.Logger
}

// NewPublisher returns a Publisher for the given broker URL and queue.
func NewPublisher(url, queue string, log *slog.Logger) *Publisher {
	return &Publisher{URL: url, Queue: queue, Log: log}
}

// PublishPasswordReset publishes ev as a persistent JSON message.  Errors are
// logged and returned so the caller decides whether they matter.
func (p *Publisher) PublishPasswordReset(ctx context.Context, ev PasswordResetEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Log.Error("rabbitmq: dial failed", "err", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Log.Error("rabbitmq: channel open failed", "err", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		p.Log.Error("rabbitmq: queue declare failed", "queue", p.Queue, "err", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	// default exchange, routing key = queue name
	if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, pub); err != nil {
		p.Log.Error("rabbitmq: publish failed", "queue", p.Queue, "err", err)
		return err
	}
	return nil
}
