// Package queue defines message payloads exchanged over the message broker.
package queue

// PasswordResetEvent is published when a user asks for a password reset.  It
// carries everything the mail consumer needs, so the consumer never touches
// the database.
type PasswordResetEvent struct {
	Email       string `json:"email"`
	Link        string `json:"link"`
	RequestedAt string `json:"requested_at"`
}
