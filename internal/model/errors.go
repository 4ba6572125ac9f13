package model

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when a user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when another live user already holds the email.
	ErrDuplicateEmail = errors.New("email already exists")
)

// ValidationError describes rejected input, keyed by field name.
type ValidationError struct {
	Fields map[string]string
	Err    error
}

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// NewDuplicateEmailError reports an email collision as a validation failure.
func NewDuplicateEmailError() *ValidationError {
	return &ValidationError{
		Fields: map[string]string{"email": "Email already exists"},
		Err:    ErrDuplicateEmail,
	}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
