package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports input rejected before any network call
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidation creates a validation error for the given field
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// PermissionError reports that microphone access was denied
type PermissionError struct {
	Message string
	Err     error
}

func (e *PermissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *PermissionError) Unwrap() error {
	return e.Err
}

// UnsupportedPlatformError reports that no speech recognition engine is available
type UnsupportedPlatformError struct {
	Message string
}

func (e *UnsupportedPlatformError) Error() string {
	return e.Message
}

// InvalidResponseError reports a successful status whose body lacks the expected field
type InvalidResponseError struct {
	Service string
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("Invalid response from %s service", strings.ToLower(e.Service))
}

// ProcessingError reports a failed image extraction with a message safe to show
type ProcessingError struct {
	Message string
	Err     error
}

func (e *ProcessingError) Error() string {
	return e.Message
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a validation-class failure. A 400
// from a remote service counts, since the service only answers 400 for
// rejected input.
func IsValidation(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return true
	}
	var se *ServiceError
	return errors.As(err, &se) && se.StatusCode == 400
}
