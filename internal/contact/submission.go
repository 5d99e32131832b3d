package contact

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxNameLength caps the submitter name, in characters
	MaxNameLength = 200
	// MaxMessageLength caps the message body, in characters
	MaxMessageLength = 5000
	// MaxEmailLength is the longest address accepted by validation
	MaxEmailLength = 254
)

// Submission is one name/email/message triple posted by a visitor.
type Submission struct {
	Name    string `validate:"required"`
	Email   string `validate:"required,max=254,contact_email"`
	Message string `validate:"required"`
}

// Normalize turns untrusted form values into a Submission. Non-string values
// become empty strings, every field is trimmed and name and message are
// capped. The email is trimmed only; over-long addresses fail validation.
// "nom" is accepted in place of "name".
func Normalize(raw map[string]any) Submission {
	name, ok := raw["name"]
	if !ok {
		name = raw["nom"]
	}

	return Submission{
		Name:    truncate(asString(name), MaxNameLength),
		Email:   asString(raw["email"]),
		Message: truncate(asString(raw["message"]), MaxMessageLength),
	}
}

func asString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimFunc(s, isSpace)
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
