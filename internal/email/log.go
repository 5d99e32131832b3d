package email

import (
	"context"

	"github.com/contactrelay/contactrelay/internal/logger"
)

// LogSender logs emails instead of sending them.
// Useful for development and testing.
type LogSender struct {
	log *logger.Logger
}

// NewLogSender creates a new log-based email sender.
func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log.WithComponent("email_log")}
}

// Name returns the provider name.
func (s *LogSender) Name() string {
	return "log"
}

// Send logs the email details.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.log.Info().
		Str("to", msg.To).
		Str("reply_to", msg.ReplyTo).
		Str("subject", msg.Subject).
		Str("text", msg.TextBody).
		Msg("email (dev mode, not actually sent)")
	return nil
}
