package program

import (
	"errors"
	"fmt"
)

// ConfigurationError reports a program that cannot be run at all.
// It is raised while building a Program, never during execution.
type ConfigurationError struct {
	// Code identifies the error category.
	Code string

	// Message is a human-readable description.
	Message string

	// Count is the number of functions involved, when relevant.
	Count int

	// Index is the function index involved, when relevant.
	Index int
}

const (
	// ErrCodeTooManyFunctions indicates more functions than call letters.
	ErrCodeTooManyFunctions = "TOO_MANY_FUNCTIONS"

	// ErrCodeInvalidFunction indicates an impossible function index.
	ErrCodeInvalidFunction = "INVALID_FUNCTION"
)

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewTooManyFunctionsError creates a ConfigurationError for a program
// declaring count functions.
func NewTooManyFunctionsError(count int) *ConfigurationError {
	return &ConfigurationError{
		Code:    ErrCodeTooManyFunctions,
		Message: fmt.Sprintf("too many functions declared: %d vs. max %d", count, MaxFunctions),
		Count:   count,
	}
}

// IsConfigurationError returns true if err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
