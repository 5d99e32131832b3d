package contact

import (
	"context"
	"errors"

	"github.com/contactrelay/contactrelay/internal/logger"
)

// Relay runs one submission through normalization, validation, rendering
// and dispatch.
type Relay struct {
	validator  *Validator
	dispatcher *Dispatcher
	log        *logger.Logger
}

// NewRelay creates a new Relay
func NewRelay(validator *Validator, dispatcher *Dispatcher, log *logger.Logger) *Relay {
	return &Relay{
		validator:  validator,
		dispatcher: dispatcher,
		log:        log,
	}
}

// Provider returns the name of the active email provider, or "none".
func (r *Relay) Provider() string {
	return r.dispatcher.Provider()
}

// Configured reports whether submissions can be delivered at all.
func (r *Relay) Configured() bool {
	return r.dispatcher.Configured()
}

// Submit handles one raw submission. It returns nil on delivery, an error
// matching ErrValidation for bad input, ErrNoProvider when nothing can send,
// or a *DeliveryError when the provider failed.
func (r *Relay) Submit(ctx context.Context, raw map[string]any) error {
	log := logger.FromContext(ctx, r.log).WithComponent("contact")

	s := Normalize(raw)
	if err := r.validator.Validate(s); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			log.Debug().Strs("fields", verr.Fields).Msg("submission rejected")
		}
		return err
	}

	err := r.dispatcher.Dispatch(ctx, s, Render(s))
	switch {
	case err == nil:
		log.WithProvider(r.dispatcher.Provider()).Info().Msg("submission relayed")
	case errors.Is(err, ErrNoProvider):
		log.Warn().Msg("no email provider configured; set RESEND_API_KEY, GMAIL_* or SMTP_*")
	default:
		log.WithProvider(r.dispatcher.Provider()).Error().Err(err).Msg("email delivery failed")
	}
	return err
}
