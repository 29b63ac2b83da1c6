package mail

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/iliyamo/hospital-portal/internal/config"
	"github.com/iliyamo/hospital-portal/internal/logging"
	"github.com/iliyamo/hospital-portal/internal/queue"
)

type captureSender struct{ msgs []*gomail.Message }

func (c *captureSender) DialAndSend(m ...*gomail.Message) error {
	c.msgs = append(c.msgs, m...)
	return nil
}

type capturePublisher struct{ events []queue.PasswordResetEvent }

func (c *capturePublisher) PublishPasswordReset(_ context.Context, ev queue.PasswordResetEvent) error {
	c.events = append(c.events, ev)
	return nil
}

func TestSMTPMailer_SendPasswordReset(t *testing.T) {
	cs := &captureSender{}
	m := &SMTPMailer{From: "portal@x.com", dialer: cs}

	require.NoError(t, m.SendPasswordReset(context.Background(), "john@x.com", "http://fe/resetpassword/tok"))
	require.Len(t, cs.msgs, 1)

	msg := cs.msgs[0]
	assert.Equal(t, []string{"john@x.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{resetSubject}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "http://fe/resetpassword/tok")
}

func TestSMTPMailer_HandleResetEvent(t *testing.T) {
	cs := &captureSender{}
	m := &SMTPMailer{From: "portal@x.com", dialer: cs}
	require.NoError(t, m.HandleResetEvent(context.Background(), queue.PasswordResetEvent{Email: "a@b.c", Link: "l"}))
	assert.Len(t, cs.msgs, 1)
}

func TestQueueMailer(t *testing.T) {
	cp := &capturePublisher{}
	m := &QueueMailer{Publisher: cp}
	require.NoError(t, m.SendPasswordReset(context.Background(), "john@x.com", "link"))
	require.Len(t, cp.events, 1)
	assert.Equal(t, "john@x.com", cp.events[0].Email)
	assert.NotEmpty(t, cp.events[0].RequestedAt)
}

func TestNew(t *testing.T) {
	log := logging.Discard()
	for transport, want := range map[string]interface{}{
		"smtp":  &SMTPMailer{},
		"queue": &QueueMailer{},
		"log":   &LogMailer{},
	} {
		m, err := New(config.MailConfig{Transport: transport, Server: "smtp.x.com", Port: 587}, log)
		require.NoError(t, err)
		assert.IsType(t, want, m)
	}
	_, err := New(config.MailConfig{Transport: "pigeon"}, log)
	assert.Error(t, err)
}
