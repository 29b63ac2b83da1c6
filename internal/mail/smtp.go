package mail

import (
	"context"
	"crypto/tls"

	"gopkg.in/gomail.v2"

	"github.com/iliyamo/hospital-portal/internal/config"
	"github.com/iliyamo/hospital-portal/internal/queue"
)

// sender abstracts gomail.Dialer so tests can capture messages.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends mail through an SMTP relay with STARTTLS.
type SMTPMailer struct {
	From   string
	dialer sender
}

// NewSMTP builds an SMTPMailer from the mail configuration.
func NewSMTP(cfg config.MailConfig) *SMTPMailer {
	d := gomail.NewDialer(cfg.Server, cfg.Port, cfg.Username, cfg.Password)
	if cfg.UseTLS {
		d.TLSConfig = &tls.Config{ServerName: cfg.Server, MinVersion: tls.VersionTLS12}
	}
	return &SMTPMailer{From: cfg.From, dialer: d}
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", resetSubject)
	msg.SetBody("text/plain", resetBody(link))
	return m.dialer.DialAndSend(msg)
}

// HandleResetEvent adapts the mailer to queue.ResetHandler for the consumer.
func (m *SMTPMailer) HandleResetEvent(ctx context.Context, ev queue.PasswordResetEvent) error {
	return m.SendPasswordReset(ctx, ev.Email, ev.Link)
}
