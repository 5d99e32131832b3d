package email

import (
	"context"
	"fmt"

	mailgun "github.com/mailgun/mailgun-go/v5"
)

// MailgunSender sends emails using the Mailgun API.
type MailgunSender struct {
	mg     mailgun.Mailgun
	domain string
	from   string
}

// NewMailgunSender creates a Mailgun sender for a verified sending domain.
func NewMailgunSender(apiKey, domain, from string) *MailgunSender {
	return &MailgunSender{
		mg:     mailgun.NewMailgun(apiKey),
		domain: domain,
		from:   from,
	}
}

// Name returns the provider name.
func (s *MailgunSender) Name() string {
	return "mailgun"
}

// Send sends an email using the Mailgun API.
func (s *MailgunSender) Send(ctx context.Context, msg Message) error {
	message := mailgun.NewMessage(s.domain, s.from, msg.Subject, msg.TextBody)
	if err := message.AddRecipient(msg.To); err != nil {
		return fmt.Errorf("mailgun: add recipient: %w", err)
	}
	if msg.HTMLBody != "" {
		message.SetHTML(msg.HTMLBody)
	}
	if msg.ReplyTo != "" {
		message.SetReplyTo(msg.ReplyTo)
	}

	if _, err := s.mg.Send(ctx, message); err != nil {
		return fmt.Errorf("mailgun: failed to send email: %w", err)
	}

	return nil
}
