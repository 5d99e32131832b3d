package contact

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrValidation is returned when a submission is missing a field or carries
// a malformed email address.
var ErrValidation = errors.New("invalid submission")

// emailPattern is a shape check only: something@something.something with no
// whitespace and a single "@" on each side. Whitespace covers \v, the Unicode
// separators (NBSP, U+2028, U+3000, ...) and U+FEFF, not only RE2's \s.
var emailPattern = regexp.MustCompile(`^[^\s\v\p{Z}\x{FEFF}@]+@[^\s\v\p{Z}\x{FEFF}@]+\.[^\s\v\p{Z}\x{FEFF}@]+$`)

// ValidationError lists the fields that failed. Its message never names
// them; Fields is for operator logs.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error()
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Validator checks submissions using go-playground/validator.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator with the contact_email rule registered.
func NewValidator() (*Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	err := validate.RegisterValidation("contact_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	if err != nil {
		return nil, err
	}

	return &Validator{validate: validate}, nil
}

// Validate returns nil when s may be rendered and dispatched, or a
// *ValidationError matching ErrValidation.
func (v *Validator) Validate(s Submission) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{}
	}

	verr := &ValidationError{Fields: make([]string, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		verr.Fields = append(verr.Fields, strings.ToLower(fe.Field())+":"+fe.Tag())
	}
	return verr
}
