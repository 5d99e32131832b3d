package contactrelay

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError represents a failed submission. Message is the generic text the
// relay shows to visitors.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("contactrelay: API error %d: %s", e.StatusCode, e.Message)
}

// Invalid reports whether the relay rejected the submission's fields.
func (e *APIError) Invalid() bool {
	return e.StatusCode == http.StatusBadRequest
}

// Unavailable reports whether the relay has no email provider configured.
func (e *APIError) Unavailable() bool {
	return e.StatusCode == http.StatusServiceUnavailable
}

func parseAPIError(statusCode int, body []byte) error {
	return &APIError{
		StatusCode: statusCode,
		Message:    string(body),
	}
}

// IsAPIError checks whether err is an APIError and returns it.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
