package contactrelay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config holds the configuration for the contact relay client.
type Config struct {
	// BaseURL is the root URL of the relay server, e.g. "https://contact.example.com".
	BaseURL string

	// HTTPClient is an optional custom HTTP client.
	// If nil, a default client with 15s timeout is used.
	HTTPClient *http.Client
}

func (c *Config) defaults() {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")
}

// Client calls the contact relay HTTP API.
type Client struct {
	cfg Config
}

// NewClient creates a new client with the given configuration.
func NewClient(cfg Config) *Client {
	cfg.defaults()
	return &Client{cfg: cfg}
}

// Submit posts a contact form submission. It returns the server's success
// message, or an *APIError when the relay refused or failed to send it.
func (c *Client) Submit(ctx context.Context, s Submission) (string, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("contactrelay: failed to encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/contact", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("contactrelay: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	body, status, err := c.do(req)
	if err != nil {
		return "", err
	}

	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		return "", parseAPIError(status, body)
	}
	if status != http.StatusOK || !result.Success {
		return "", &APIError{StatusCode: status, Message: result.Message}
	}

	return result.Message, nil
}

// Health returns the relay's health report. A degraded relay (no provider)
// is reported without error.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("contactrelay: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, status, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var h Health
	if err := json.Unmarshal(body, &h); err != nil {
		return nil, parseAPIError(status, body)
	}
	return &h, nil
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("contactrelay: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("contactrelay: failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}
