package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is the single not-found signal. A record owned by someone else
// and a soft-deleted record both produce it.
var ErrNotFound = errors.New("not found")

var (
	ErrUserNotFound                 = fmt.Errorf("user %w", ErrNotFound)
	ErrNewsletterNotFound           = fmt.Errorf("newsletter %w", ErrNotFound)
	ErrIssueNotFound                = fmt.Errorf("issue %w", ErrNotFound)
	ErrSponsorshipNotFound          = fmt.Errorf("sponsorship %w", ErrNotFound)
	ErrConfirmedSponsorshipNotFound = fmt.Errorf("confirmed sponsorship %w", ErrNotFound)
)

var (
	// ErrAlreadyConfirmed is returned when an issue already has a confirmed sponsorship
	ErrAlreadyConfirmed = errors.New("issue already has a confirmed sponsorship")
	// ErrWindowClosed is returned when an issue is outside its sponsor window
	ErrWindowClosed = errors.New("issue is not open for sponsorship")
	// ErrInvalidTransition is returned for a sponsorship state change that is not allowed
	ErrInvalidTransition = errors.New("invalid sponsorship state transition")
	// ErrSlugTaken is returned by storage when (user_id, slug) already exists
	ErrSlugTaken = errors.New("slug already taken")
	// ErrUserAlreadyExists is returned by storage when a user slug or email is reused
	ErrUserAlreadyExists = errors.New("user already exists")
)

// Validation messages
const (
	MsgRequired     = "can't be blank"
	MsgTaken        = "has already been taken"
	MsgInvalidSlug  = "must contain only lowercase letters, numbers and hyphens"
	MsgPositive     = "must be greater than 0"
	MsgNonNegative  = "must be greater than or equal to 0"
	MsgEmptyWindow  = "must be greater than sponsor_before_days"
	MsgDoesNotExist = "does not exist"
	MsgTooLong      = "is too long"
	MsgInvalidEmail = "is not a valid email address"
	MsgInvalid      = "is invalid"
)

// ValidationError carries field level messages for create and update calls.
// It is returned as a value so callers can redisplay the form.
type ValidationError struct {
	Fields map[string][]string `json:"fields"`
}

// NewValidationError returns an empty ValidationError
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add appends a message for field
func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = append(e.Fields[field], msg)
}

// Has reports whether field has at least one message
func (e *ValidationError) Has(field string) bool {
	return len(e.Fields[field]) > 0
}

// Empty reports whether no field has a message
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// OrNil returns e when it carries messages, nil otherwise
func (e *ValidationError) OrNil() error {
	if e == nil || e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+" "+strings.Join(e.Fields[field], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidationError unwraps err into a ValidationError
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
