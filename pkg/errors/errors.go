package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeGraph represents graph database errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeLink represents auto-link/link-fix errors
	ErrorTypeLink ErrorType = "link"
	// ErrorTypeConfidence represents confidence scoring errors
	ErrorTypeConfidence ErrorType = "confidence"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeContext represents context cancellation/timeout errors
	ErrorTypeContext ErrorType = "context"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// NewGraphError wraps a graph store failure
func NewGraphError(message string, err error) *BaseError {
	return NewBaseError(ErrorTypeGraph, message, err)
}

// NewLinkError wraps an auto-link/link-fix pass failure
func NewLinkError(message string, err error) *BaseError {
	return NewBaseError(ErrorTypeLink, message, err)
}

// NewConfidenceError wraps a decision loading/scoring failure
func NewConfidenceError(message string, err error) *BaseError {
	return NewBaseError(ErrorTypeConfidence, message, err)
}

// NewConfigError wraps a configuration failure
func NewConfigError(message string, err error) *BaseError {
	return NewBaseError(ErrorTypeConfig, message, err)
}
