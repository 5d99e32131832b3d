// Package email provides email sending functionality with pluggable providers.
package email

import "context"

// Sender is the interface that all email providers must implement.
// Each provider owns its sender identity ("From"); some providers only accept
// a verified sending domain, so callers never choose it.
type Sender interface {
	// Name identifies the provider in logs and health output.
	Name() string
	// Send sends one email.
	Send(ctx context.Context, msg Message) error
}

// Message represents an email message to be sent.
type Message struct {
	To       string // recipient email address
	ReplyTo  string // where replies go; empty means the sender
	Subject  string // email subject
	TextBody string // plain-text body
	HTMLBody string // HTML body
}
