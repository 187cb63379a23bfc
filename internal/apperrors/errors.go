// Package apperrors provides typed errors for the trading console.
//
// The taxonomy mirrors how failures surface in the UI: transport failures
// (backend unreachable), application failures (backend answered but refused),
// and validation failures (bad input, no request issued).
package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure categories.
var (
	// ErrTransport indicates the backend could not be reached.
	ErrTransport = errors.New("backend unreachable")

	// ErrApplication indicates the backend answered with a failure.
	ErrApplication = errors.New("backend request failed")

	// ErrValidation indicates invalid input; no request was issued.
	ErrValidation = errors.New("validation error")

	// ErrUnauthorized indicates the user is not authenticated.
	ErrUnauthorized = errors.New("unauthorized")
)

// AppError is a structured application error.
type AppError struct {
	// Type is the error category (sentinel error).
	Type error
	// Message is the user-facing error message.
	Message string
	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error type.
func (e *AppError) Unwrap() error {
	return e.Type
}

// Is checks if this error matches the target.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Type, target)
}

// Transport creates a transport failure error.
func Transport(message string, cause error) *AppError {
	return &AppError{
		Type:    ErrTransport,
		Message: message,
		Cause:   cause,
	}
}

// Application creates an application failure error.
func Application(message string) *AppError {
	return &AppError{
		Type:    ErrApplication,
		Message: message,
	}
}

// Validation creates a validation error.
func Validation(message string) *AppError {
	return &AppError{
		Type:    ErrValidation,
		Message: message,
	}
}

// IsTransport checks if an error is a transport failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsApplication checks if an error is an application failure.
func IsApplication(err error) bool {
	return errors.Is(err, ErrApplication)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// UserMessage returns the user-facing message for an error, or the fallback
// if the error carries none.
func UserMessage(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}

// HTTPStatus returns the appropriate HTTP status code for an error.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return 400
	case errors.Is(err, ErrUnauthorized):
		return 401
	case errors.Is(err, ErrTransport):
		return 502
	case errors.Is(err, ErrApplication):
		return 502
	default:
		return 500
	}
}
