// Package domain provides the itinerary types and the canonical error taxonomy.
package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind represents the category of a generation failure.
type ErrorKind string

const (
	// KindConfiguration indicates a missing or invalid service credential.
	KindConfiguration ErrorKind = "configuration"

	// KindValidation indicates malformed caller input.
	KindValidation ErrorKind = "validation"

	// KindServiceUnavailable indicates the AI backend is unreachable or erroring.
	KindServiceUnavailable ErrorKind = "service_unavailable"

	// KindContentBlocked indicates the AI backend declined to produce output.
	KindContentBlocked ErrorKind = "content_blocked"

	// KindMalformedResponse indicates output that is not parseable structured data.
	KindMalformedResponse ErrorKind = "malformed_response"

	// KindSchemaViolation indicates parsed output missing required structure.
	KindSchemaViolation ErrorKind = "schema_violation"

	// KindTimeout indicates the generation ceiling elapsed.
	KindTimeout ErrorKind = "timeout"
)

// GenerationError is the only error kind the planner surfaces to callers.
// Message is safe to show to end users; Err is kept for logs only.
type GenerationError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`

	// StatusCode overrides the default HTTP status for Kind.
	StatusCode int `json:"-"`

	Err error `json:"-"`
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Retryable reports whether re-invoking with the same input may succeed.
func (e *GenerationError) Retryable() bool {
	switch e.Kind {
	case KindServiceUnavailable, KindContentBlocked, KindMalformedResponse, KindSchemaViolation, KindTimeout:
		return true
	default:
		return false
	}
}

// HTTPStatusCode returns the appropriate HTTP status code for this error.
func (e *GenerationError) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}

	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	case KindContentBlocked:
		return http.StatusUnprocessableEntity
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindConfiguration, KindMalformedResponse, KindSchemaViolation:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Title is the short label used in the {error, message} wire envelope.
func (e *GenerationError) Title() string {
	switch e.Kind {
	case KindConfiguration:
		return "Server Config Error"
	case KindValidation:
		return "Invalid Request"
	case KindServiceUnavailable:
		return "Service Unavailable"
	case KindContentBlocked:
		return "Content Blocked"
	case KindTimeout:
		return "Generation Timeout"
	default:
		return "Generation Failed"
	}
}

// NewGenerationError creates a new generation error.
func NewGenerationError(kind ErrorKind, message string) *GenerationError {
	return &GenerationError{
		Kind:    kind,
		Message: message,
	}
}

// WithCause attaches the underlying error.
func (e *GenerationError) WithCause(err error) *GenerationError {
	e.Err = err
	return e
}

// WithStatusCode sets a specific HTTP status code.
func (e *GenerationError) WithStatusCode(code int) *GenerationError {
	e.StatusCode = code
	return e
}

// AsGenerationError extracts a GenerationError from err's chain.
func AsGenerationError(err error) (*GenerationError, bool) {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr, true
	}
	return nil, false
}

// IsKind returns true if err carries a GenerationError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	genErr, ok := AsGenerationError(err)
	return ok && genErr.Kind == kind
}

// Convenience constructors for common errors

// ErrConfiguration creates a configuration error.
func ErrConfiguration(message string) *GenerationError {
	return NewGenerationError(KindConfiguration, message)
}

// ErrValidation creates a validation error.
func ErrValidation(message string) *GenerationError {
	return NewGenerationError(KindValidation, message)
}

// ErrServiceUnavailable creates a service unavailable error.
func ErrServiceUnavailable(message string) *GenerationError {
	return NewGenerationError(KindServiceUnavailable, message)
}

// ErrContentBlocked creates a content blocked error.
func ErrContentBlocked(message string) *GenerationError {
	return NewGenerationError(KindContentBlocked, message)
}

// ErrMalformedResponse creates a malformed response error.
func ErrMalformedResponse(message string) *GenerationError {
	return NewGenerationError(KindMalformedResponse, message)
}

// ErrSchemaViolation creates a schema violation error.
func ErrSchemaViolation(message string) *GenerationError {
	return NewGenerationError(KindSchemaViolation, message)
}

// ErrTimeout creates a generation timeout error.
func ErrTimeout(message string) *GenerationError {
	return NewGenerationError(KindTimeout, message)
}
