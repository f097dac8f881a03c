// Package queue defines message payloads exchanged over the message broker.
package queue

// Notification kinds published to the account.notifications queue.
const (
	KindEmailVerify   = "email_verify"
	KindPasswordReset = "password_reset"
)

// NotificationEvent is published whenever an account-related link must
// reach a user out-of-band. The consumer appends the link to
// logs/notifications.log; no mail is actually sent.
type NotificationEvent struct {
	Kind     string `json:"kind"`
	Handle   string `json:"handle"`
	Email    string `json:"email"`
	Link     string `json:"link"`
	IssuedAt string `json:"issued_at"`
}
