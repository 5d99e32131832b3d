package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Contact ContactConfig `mapstructure:"contact"`
	Email   EmailConfig   `mapstructure:"email"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// StaticDir is served under "/" when set (the site hosting the form)
	StaticDir string `mapstructure:"static_dir"`
	// CORSOrigins lists the origins allowed to post the form
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// Addr returns the listen address
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

const (
	minWriteTimeout   = 15 * time.Second
	writeTimeoutSlack = 5 * time.Second
)

// WriteTimeout is the HTTP server write timeout. It always outlasts a
// provider call so a delivery failure can still be answered.
func (c *Config) WriteTimeout() time.Duration {
	return max(minWriteTimeout, c.Email.SendTimeout+writeTimeoutSlack)
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ContactConfig holds the contact form settings
type ContactConfig struct {
	// Recipient receives every submission
	Recipient string `mapstructure:"recipient"`
	// Subject is the fixed subject line of the relayed email
	Subject string `mapstructure:"subject"`
	// SuccessMessage and ErrorMessage are shown to the visitor
	SuccessMessage string `mapstructure:"success_message"`
	ErrorMessage   string `mapstructure:"error_message"`
	// RedirectURL, when set, turns classic form posts into a 303 redirect
	// to RedirectURL?envoi=ok|erreur#contact
	RedirectURL string `mapstructure:"redirect_url"`
}

// EmailConfig holds outbound email configuration. Providers are tried in the
// order Resend, Gmail, SMTP, Mailgun; the first configured one is used.
type EmailConfig struct {
	// From is the sender identity for API providers (Resend, Mailgun).
	// Mailbox providers send as their authenticated user.
	From string `mapstructure:"from"`
	// SendTimeout bounds a single provider call
	SendTimeout time.Duration `mapstructure:"send_timeout"`
	// DevMode logs messages instead of failing when no provider is configured
	DevMode bool `mapstructure:"dev_mode"`

	Resend  ResendConfig  `mapstructure:"resend"`
	Gmail   GmailConfig   `mapstructure:"gmail"`
	SMTP    SMTPConfig    `mapstructure:"smtp"`
	Mailgun MailgunConfig `mapstructure:"mailgun"`
}

// ResendConfig holds Resend API configuration
type ResendConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// Configured reports whether Resend credentials are present
func (c ResendConfig) Configured() bool {
	return c.APIKey != ""
}

// GmailConfig holds Gmail configuration. An app password selects SMTP
// submission; OAuth2 or service account credentials select the Gmail API.
type GmailConfig struct {
	// User is the mailbox address, also used as the "From" address
	User string `mapstructure:"user"`
	// AppPassword is a Google account app password
	AppPassword string `mapstructure:"app_password"`
	// ClientID for OAuth2 token-based auth (alternative to app password)
	ClientID string `mapstructure:"client_id"`
	// ClientSecret for OAuth2 token-based auth
	ClientSecret string `mapstructure:"client_secret"`
	// RefreshToken for OAuth2 token-based auth
	RefreshToken string `mapstructure:"refresh_token"`
	// CredentialsJSON is the service account credentials JSON content
	CredentialsJSON string `mapstructure:"credentials_json"`
	// SenderName is the display name for the sender
	SenderName string `mapstructure:"sender_name"`
}

// UsesAppPassword reports whether the mailbox is reached over SMTP
func (c GmailConfig) UsesAppPassword() bool {
	return c.User != "" && c.AppPassword != ""
}

// UsesOAuth reports whether OAuth2 refresh token credentials are present
func (c GmailConfig) UsesOAuth() bool {
	return c.User != "" && c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// UsesServiceAccount reports whether service account credentials are present
func (c GmailConfig) UsesServiceAccount() bool {
	return c.User != "" && c.CredentialsJSON != ""
}

// Configured reports whether any Gmail credential set is complete
func (c GmailConfig) Configured() bool {
	return c.UsesAppPassword() || c.UsesOAuth() || c.UsesServiceAccount()
}

// SMTPConfig holds generic SMTP relay configuration
type SMTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// Secure selects implicit TLS (usually port 465) instead of STARTTLS
	Secure   bool   `mapstructure:"secure"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// Configured reports whether SMTP credentials are present
func (c SMTPConfig) Configured() bool {
	return c.User != "" && c.Password != ""
}

// MailgunConfig holds Mailgun API configuration
type MailgunConfig struct {
	APIKey string `mapstructure:"api_key"`
	Domain string `mapstructure:"domain"`
}

// Configured reports whether Mailgun credentials are present
func (c MailgunConfig) Configured() bool {
	return c.APIKey != "" && c.Domain != ""
}

// legacyEnv maps config keys to the flat variable names used by existing
// deployments' .env files.
var legacyEnv = map[string]string{
	"server.port":              "PORT",
	"contact.recipient":        "CONTACT_EMAIL",
	"email.from":               "FROM_EMAIL",
	"email.resend.api_key":     "RESEND_API_KEY",
	"email.gmail.user":         "GMAIL_USER",
	"email.gmail.app_password": "GMAIL_APP_PASSWORD",
	"email.smtp.host":          "SMTP_HOST",
	"email.smtp.port":          "SMTP_PORT",
	"email.smtp.secure":        "SMTP_SECURE",
	"email.smtp.user":          "SMTP_USER",
	"email.smtp.password":      "SMTP_PASSWORD",
}

const envPrefix = "CONTACTRELAY"

// Load reads configuration from .env, config file and environment variables
func Load() (*Config, error) {
	// A missing .env file is fine; variables may come from the environment
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/contactrelay")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", legacy, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.trim()
	if cfg.Email.SendTimeout <= 0 {
		cfg.Email.SendTimeout = defaultSendTimeout
	}

	return &cfg, nil
}

// trim strips stray whitespace that tends to sneak into pasted credentials
func (c *Config) trim() {
	e := &c.Email
	for _, s := range []*string{
		&c.Contact.Recipient,
		&e.From,
		&e.Resend.APIKey,
		&e.Gmail.User, &e.Gmail.AppPassword, &e.Gmail.ClientID, &e.Gmail.ClientSecret, &e.Gmail.RefreshToken,
		&e.SMTP.Host, &e.SMTP.User, &e.SMTP.Password,
		&e.Mailgun.APIKey, &e.Mailgun.Domain,
	} {
		*s = strings.TrimSpace(*s)
	}
	if e.SMTP.Host == "" {
		e.SMTP.Host = defaultSMTPHost
	}
}

const (
	defaultSendTimeout = 10 * time.Second
	defaultSMTPHost    = "smtp.orange.fr"
)

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.static_dir", "")
	v.SetDefault("server.cors_origins", []string{"*"})

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Contact form defaults
	v.SetDefault("contact.recipient", "tonmail@example.com")
	v.SetDefault("contact.subject", "Nouveau message depuis le formulaire")
	v.SetDefault("contact.success_message", "Message envoyé avec succès !")
	v.SetDefault("contact.error_message", "Erreur lors de l'envoi.")
	v.SetDefault("contact.redirect_url", "")

	// Email defaults
	v.SetDefault("email.from", "onboarding@resend.dev")
	v.SetDefault("email.send_timeout", defaultSendTimeout.String())
	v.SetDefault("email.dev_mode", false)

	v.SetDefault("email.resend.api_key", "")

	v.SetDefault("email.gmail.user", "")
	v.SetDefault("email.gmail.app_password", "")
	v.SetDefault("email.gmail.client_id", "")
	v.SetDefault("email.gmail.client_secret", "")
	v.SetDefault("email.gmail.refresh_token", "")
	v.SetDefault("email.gmail.credentials_json", "")
	v.SetDefault("email.gmail.sender_name", "")

	v.SetDefault("email.smtp.host", defaultSMTPHost)
	v.SetDefault("email.smtp.port", 587)
	v.SetDefault("email.smtp.secure", false)
	v.SetDefault("email.smtp.user", "")
	v.SetDefault("email.smtp.password", "")

	v.SetDefault("email.mailgun.api_key", "")
	v.SetDefault("email.mailgun.domain", "")
}
