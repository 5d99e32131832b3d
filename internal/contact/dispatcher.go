package contact

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/contactrelay/contactrelay/internal/email"
)

// DefaultTimeout bounds a provider call when DispatcherConfig.Timeout is unset.
const DefaultTimeout = 10 * time.Second

var (
	// ErrNoProvider is returned when no email provider was configured at startup.
	ErrNoProvider = errors.New("no email provider configured")
	// ErrDelivery matches every *DeliveryError.
	ErrDelivery = errors.New("email delivery failed")
)

// DeliveryError reports a failed provider call. Err carries the provider
// detail and must not be shown to visitors.
type DeliveryError struct {
	Provider string
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s via %s: %v", ErrDelivery, e.Provider, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

func (e *DeliveryError) Is(target error) bool {
	return target == ErrDelivery
}

// DispatcherConfig holds the fixed envelope of every relayed email.
type DispatcherConfig struct {
	Recipient string
	Subject   string
	Timeout   time.Duration
}

// Dispatcher sends rendered submissions through the provider chosen at
// startup. It is immutable and safe for concurrent use.
type Dispatcher struct {
	sender email.Sender
	cfg    DispatcherConfig
}

// NewDispatcher creates a Dispatcher. A nil sender means no provider is
// configured and every Dispatch fails with ErrNoProvider.
func NewDispatcher(sender email.Sender, cfg DispatcherConfig) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Dispatcher{sender: sender, cfg: cfg}
}

// Provider returns the active provider name, or "none".
func (d *Dispatcher) Provider() string {
	if d.sender == nil {
		return "none"
	}
	return d.sender.Name()
}

// Configured reports whether a provider is available.
func (d *Dispatcher) Configured() bool {
	return d.sender != nil
}

// Dispatch sends one email for s. Replies go to the submitter. The provider
// call is abandoned once the timeout or ctx expires.
func (d *Dispatcher) Dispatch(ctx context.Context, s Submission, body Body) error {
	if d.sender == nil {
		return ErrNoProvider
	}

	msg := email.Message{
		To:       d.cfg.Recipient,
		ReplyTo:  s.Email,
		Subject:  d.cfg.Subject,
		TextBody: body.Text,
		HTMLBody: body.HTML,
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- fmt.Errorf("provider panicked: %v", p)
			}
		}()
		done <- d.sender.Send(ctx, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return &DeliveryError{Provider: d.sender.Name(), Err: err}
		}
		return nil
	case <-ctx.Done():
		return &DeliveryError{Provider: d.sender.Name(), Err: ctx.Err()}
	}
}
