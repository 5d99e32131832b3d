package email

import (
	"context"
	"fmt"

	"github.com/contactrelay/contactrelay/internal/config"
	"github.com/contactrelay/contactrelay/internal/logger"
)

// Candidate describes one provider in selection order.
type Candidate struct {
	Name       string
	Configured bool
}

// Candidates lists the providers in the order Select tries them.
func Candidates(cfg config.EmailConfig) []Candidate {
	return []Candidate{
		{Name: "resend", Configured: cfg.Resend.Configured()},
		{Name: "gmail", Configured: cfg.Gmail.Configured()},
		{Name: "smtp", Configured: cfg.SMTP.Configured()},
		{Name: "mailgun", Configured: cfg.Mailgun.Configured()},
		{Name: "log", Configured: cfg.DevMode},
	}
}

// Select builds the first configured provider. It returns a nil Sender and a
// nil error when nothing is configured; callers decide how to report that.
// An error means a provider was configured but could not be built.
func Select(ctx context.Context, cfg config.EmailConfig, log *logger.Logger) (Sender, error) {
	for _, c := range Candidates(cfg) {
		if !c.Configured {
			continue
		}
		sender, err := build(ctx, c.Name, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize %s provider: %w", c.Name, err)
		}
		return sender, nil
	}
	return nil, nil
}

func build(ctx context.Context, name string, cfg config.EmailConfig, log *logger.Logger) (Sender, error) {
	switch name {
	case "resend":
		return NewResendSender(cfg.Resend.APIKey, cfg.From), nil
	case "gmail":
		g := cfg.Gmail
		if g.UsesAppPassword() {
			return NewGmailSMTPSender(g.User, g.AppPassword, g.SenderName)
		}
		return NewGmailAPISender(ctx, GmailAPIConfig{
			CredentialsJSON: g.CredentialsJSON,
			ClientID:        g.ClientID,
			ClientSecret:    g.ClientSecret,
			RefreshToken:    g.RefreshToken,
			SenderAddress:   g.User,
			SenderName:      g.SenderName,
		})
	case "smtp":
		return NewSMTPSender(SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Secure:   cfg.SMTP.Secure,
			Username: cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.User,
		})
	case "mailgun":
		return NewMailgunSender(cfg.Mailgun.APIKey, cfg.Mailgun.Domain, cfg.From), nil
	case "log":
		return NewLogSender(log), nil
	}
	return nil, fmt.Errorf("unknown provider %q", name)
}
