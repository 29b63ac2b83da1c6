package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ResetHandler delivers one password reset event, typically by SMTP.
type ResetHandler func(ctx context.Context, ev PasswordResetEvent) error

// Consumer reads password reset events from RabbitMQ and hands them to a
// ResetHandler.
type Consumer struct {
	URL     string
	Queue   string
	Handle  ResetHandler
	Log     *slog.Logger
	backoff time.Duration
}

// NewConsumer returns a Consumer for the given broker URL and queue.
func NewConsumer(url, queue string, h ResetHandler, log *slog.Logger) *Consumer {
	return &Consumer{URL: url, Queue: queue, Handle: h, Log: log}
}

// Run connects to the broker and consumes until ctx is cancelled, redialling
// with exponential backoff (capped at 30s) whenever the connection drops.
func (c *Consumer) Run(ctx context.Context) error {
	c.backoff = time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn("reset-consumer: failed to dial broker", "err", err, "retry_in", c.backoff)
			if !c.sleep(ctx, c.backoff) {
				return ctx.Err()
			}
			if c.backoff < 30*time.Second {
				c.backoff *= 2
			}
			continue
		}
		c.backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.Warn("reset-consumer: consume loop ended, reconnecting", "err", err)
		if !c.sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		c.Log.Warn("reset-consumer: set QoS failed", "err", err)
	}
	if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := c.handleMessage(ctx, d.Body); err != nil {
			c.Log.Error("reset-consumer: handle message failed", "err", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func (c *Consumer) handleMessage(ctx context.Context, body []byte) error {
	var ev PasswordResetEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Email == "" || ev.Link == "" {
		return errors.New("event is missing email or link")
	}
	return c.Handle(ctx, ev)
}
