package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"
)

var (
	// ErrSMTPHostPortRequired is returned when Host/Port are missing.
	ErrSMTPHostPortRequired = errors.New("smtp host and port are required")
	// ErrSMTPNoSender is returned when no From address is configured.
	ErrSMTPNoSender = errors.New("smtp sender address is required")
)

const (
	gmailSMTPHost = "smtp.gmail.com"
	gmailSMTPPort = 587
)

// SMTPConfig configures an SMTPSender.
type SMTPConfig struct {
	// Host is the SMTP server hostname.
	Host string
	// Port is the SMTP server port.
	Port int
	// Secure dials with implicit TLS. Otherwise STARTTLS is used when the
	// server offers it.
	Secure bool
	// Username and Password authenticate with AUTH PLAIN when the server
	// advertises AUTH.
	Username string
	Password string
	// From is the envelope and header sender.
	From string
	// SenderName is an optional display name for From.
	SenderName string
}

// SMTPSender implements Sender over an authenticated SMTP submission.
type SMTPSender struct {
	name      string
	cfg       SMTPConfig
	tlsConfig *tls.Config
	now       func() time.Time
}

// NewSMTPSender creates a sender for a generic SMTP relay.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	return newSMTPSender("smtp", cfg)
}

// NewGmailSMTPSender creates a sender for a Gmail mailbox authenticated with
// an app password. The mailbox address is the sender.
func NewGmailSMTPSender(user, appPassword, senderName string) (*SMTPSender, error) {
	return newSMTPSender("gmail", SMTPConfig{
		Host:       gmailSMTPHost,
		Port:       gmailSMTPPort,
		Username:   user,
		Password:   appPassword,
		From:       user,
		SenderName: senderName,
	})
}

func newSMTPSender(name string, cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, ErrSMTPHostPortRequired
	}
	if cfg.From == "" {
		return nil, ErrSMTPNoSender
	}

	return &SMTPSender{
		name:      name,
		cfg:       cfg,
		tlsConfig: &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12},
		now:       time.Now,
	}, nil
}

// Name returns the provider name.
func (s *SMTPSender) Name() string {
	return s.name
}

// Send delivers a message over SMTP.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	raw, err := buildMIME(formatAddress(s.cfg.SenderName, s.cfg.From), msg, s.now())
	if err != nil {
		return fmt.Errorf("%s: failed to build message: %w", s.name, err)
	}

	conn, err := s.dial(ctx)
	if err != nil {
		return fmt.Errorf("%s: failed to connect to SMTP server: %w", s.name, err)
	}
	defer conn.Close()

	// net/smtp has no context support; closing the connection unblocks
	// whatever command is in flight.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := s.session(conn, msg.To, raw); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", s.name, ctxErr)
		}
		return fmt.Errorf("%s: %w", s.name, err)
	}

	return nil
}

func (s *SMTPSender) dial(ctx context.Context) (net.Conn, error) {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	if s.cfg.Secure {
		d := &tls.Dialer{Config: s.tlsConfig}
		return d.DialContext(ctx, "tcp", addr)
	}
	var d net.Dialer
	return d.DialContext(ctx, "tcp", addr)
}

func (s *SMTPSender) session(conn net.Conn, to string, raw []byte) error {
	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer c.Close()

	if !s.cfg.Secure {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(s.tlsConfig); err != nil {
				return fmt.Errorf("failed to start TLS: %w", err)
			}
		}
	}

	if s.cfg.Username != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
			if err := c.Auth(auth); err != nil {
				return fmt.Errorf("SMTP authentication failed: %w", err)
			}
		}
	}

	if err := c.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("failed to send email data: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("failed to write email message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close email writer: %w", err)
	}

	return c.Quit()
}
