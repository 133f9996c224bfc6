package models

import (
	"errors"
	"fmt"
)

// Sentinels for the error taxonomy. The typed errors below wrap one of these,
// so callers can match with errors.Is without caring about the message.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")

	// ErrCodeSpaceExhausted is returned when no free short code was found
	// within the configured number of attempts.
	ErrCodeSpaceExhausted = errors.New("no free short code within attempt limit")
)

// Messages carried by the typed errors.
const (
	MsgMissingURL      = "missing url"
	MsgInvalidURL      = "invalid url"
	MsgBadCustomCode   = "bad custom code format"
	MsgCodeTaken       = "code taken"
	MsgShortCodeAbsent = "short code not found"
)

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// ConflictError reports that a requested short code is unavailable.
// Code carries the rejected short code for callers; it is not part of the message.
type ConflictError struct {
	Message string
	Code    string
}

func (e *ConflictError) Error() string { return e.Message }

// Unwrap lets errors.Is match ErrConflict.
func (e *ConflictError) Unwrap() error { return ErrConflict }

// NotFoundError reports an unknown short code.
type NotFoundError struct {
	Code string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", MsgShortCodeAbsent, e.Code)
}

// Unwrap lets errors.Is match ErrNotFound.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewValidationError creates a ValidationError with the given message.
func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

// NewConflictError creates a ConflictError for code.
func NewConflictError(code string) error {
	return &ConflictError{Message: MsgCodeTaken, Code: code}
}

// NewNotFoundError creates a NotFoundError for code.
func NewNotFoundError(code string) error {
	return &NotFoundError{Code: code}
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsConflict reports whether err is a short code conflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsNotFound reports whether err is an unknown short code.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
