// Package mail delivers password reset links.  The transport is chosen at
// startup: direct SMTP, a RabbitMQ hand-off drained by queue.Consumer, or a
// log-only sink for local development.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/iliyamo/hospital-portal/internal/config"
	"github.com/iliyamo/hospital-portal/internal/queue"
)

// Mailer sends a password reset link to an address.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, link string) error
}

const resetSubject = "Password Reset Request"

func resetBody(link string) string {
	return fmt.Sprintf("To reset your password, visit the following link:\n\n%s\n\n"+
		"If you did not request a password reset, ignore this email.\n", link)
}

// New picks the transport named in cfg.
func New(cfg config.MailConfig, log *slog.Logger) (Mailer, error) {
	switch cfg.Transport {
	case "smtp":
		return NewSMTP(cfg), nil
	case "queue":
		return &QueueMailer{Publisher: queue.NewPublisher(cfg.AMQPURL, cfg.Queue, log)}, nil
	case "log":
		return &LogMailer{Log: log}, nil
	}
	return nil, fmt.Errorf("unknown mail transport %q", cfg.Transport)
}

// resetPublisher is satisfied by *queue.Publisher.
type resetPublisher interface {
	PublishPasswordReset(ctx context.Context, ev queue.PasswordResetEvent) error
}

// QueueMailer hands reset mails to the broker instead of talking SMTP on the
// request path.
type QueueMailer struct {
	Publisher resetPublisher
}

func (m *QueueMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	return m.Publisher.PublishPasswordReset(ctx, queue.PasswordResetEvent{
		Email:       to,
		Link:        link,
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

// LogMailer only logs the link.
type LogMailer struct {
	Log *slog.Logger
}

func (m *LogMailer) SendPasswordReset(_ context.Context, to, link string) error {
	m.Log.Info("password reset mail", "to", to, "link", link)
	return nil
}
