package email

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailAPIConfig holds the configuration for the Gmail API sender.
type GmailAPIConfig struct {
	// CredentialsJSON is a service account credentials JSON with domain-wide
	// delegation. Leave empty to use ClientID/ClientSecret/RefreshToken.
	CredentialsJSON string
	// ClientID, ClientSecret and RefreshToken authorize a personal mailbox.
	ClientID     string
	ClientSecret string
	RefreshToken string
	// SenderAddress is the mailbox emails are sent from.
	SenderAddress string
	// SenderName is the display name for the sender.
	SenderName string
}

// GmailAPISender implements Sender using the Gmail REST API.
type GmailAPISender struct {
	service       *gmail.Service
	senderAddress string
	senderName    string
	now           func() time.Time
}

// NewGmailAPISender creates a GmailAPISender. Service account credentials win
// over the OAuth2 refresh token when both are present. No request is made
// until the first Send.
func NewGmailAPISender(ctx context.Context, cfg GmailAPIConfig) (*GmailAPISender, error) {
	if cfg.SenderAddress == "" {
		return nil, fmt.Errorf("gmail: sender address is required")
	}

	var opt option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		jwtConfig, err := google.JWTConfigFromJSON([]byte(cfg.CredentialsJSON), gmail.GmailSendScope)
		if err != nil {
			return nil, fmt.Errorf("gmail: failed to parse credentials: %w", err)
		}
		// Impersonate the sender mailbox via domain-wide delegation
		jwtConfig.Subject = cfg.SenderAddress
		opt = option.WithHTTPClient(jwtConfig.Client(ctx))
	case cfg.ClientID != "" && cfg.RefreshToken != "":
		oauthCfg := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{gmail.GmailSendScope},
		}
		opt = option.WithHTTPClient(oauthCfg.Client(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken}))
	default:
		return nil, fmt.Errorf("gmail: credentials JSON or OAuth2 refresh token is required")
	}

	svc, err := gmail.NewService(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("gmail: failed to create service: %w", err)
	}

	return &GmailAPISender{
		service:       svc,
		senderAddress: cfg.SenderAddress,
		senderName:    cfg.SenderName,
		now:           time.Now,
	}, nil
}

// Name returns the provider name.
func (g *GmailAPISender) Name() string {
	return "gmail"
}

// Send sends an email via the Gmail API.
func (g *GmailAPISender) Send(ctx context.Context, msg Message) error {
	raw, err := buildMIME(formatAddress(g.senderName, g.senderAddress), msg, g.now())
	if err != nil {
		return fmt.Errorf("gmail: failed to build message: %w", err)
	}

	gmailMsg := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}

	if _, err := g.service.Users.Messages.Send("me", gmailMsg).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gmail: failed to send email: %w", err)
	}

	return nil
}
