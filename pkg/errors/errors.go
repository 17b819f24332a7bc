package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeConfiguration indicates a required setting or credential is missing
	ErrorTypeConfiguration ErrorType = "CONFIGURATION"

	// ErrorTypeValidation indicates a validation error
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeExternal indicates an error from external service
	ErrorTypeExternal ErrorType = "EXTERNAL"

	// ErrorTypeParse indicates an external service answered with an unusable shape
	ErrorTypeParse ErrorType = "PARSE"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"
)

// AppError represents an application error.
// Details carries data meant for the caller (upstream body, raw model text,
// field errors) and is rendered as-is in error responses.
type AppError struct {
	Type    ErrorType
	Message string
	Details interface{}
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConfiguration,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details interface{}) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
		Details: details,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, details interface{}, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
		Details: details,
		Err:     err,
	}
}

// NewParseError creates a new parse error carrying the raw upstream text
func NewParseError(message string, raw string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeParse,
		Message: message,
		Details: raw,
		Err:     err,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err carries an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == t
}
