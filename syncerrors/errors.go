package syncerrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
// These allow quick checks without type assertions.
var (
	// ErrUpstreamUnreachable indicates a network failure or timeout talking
	// to an upstream service.
	ErrUpstreamUnreachable = errors.New("upstream unreachable")

	// ErrMalformedResponse indicates an upstream body that could not be
	// parsed or had an unexpected shape.
	ErrMalformedResponse = errors.New("malformed upstream response")

	// ErrConfigMissing indicates a required configuration value is absent.
	ErrConfigMissing = errors.New("configuration missing")

	// ErrValidation indicates rejected boundary input.
	ErrValidation = errors.New("validation error")

	// ErrModuleNotFound indicates a moduleId with no registry entry.
	ErrModuleNotFound = errors.New("module not found")
)

// maxBodyPreview bounds how much of a raw upstream body is carried in error
// messages and log records.
const maxBodyPreview = 300

// FetchError represents a failure to reach or read from an upstream service.
type FetchError struct {
	// URL is the request URL that failed
	URL string
	// StatusCode is the HTTP status, 0 when the request never completed
	StatusCode int
	// Message provides additional context about the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *FetchError) Error() string {
	msg := "fetch failed"
	if e.URL != "" {
		msg += " for " + e.URL
	}
	if e.StatusCode > 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *FetchError) Is(target error) bool {
	return target == ErrUpstreamUnreachable
}

// MalformedResponseError represents an upstream body that failed to parse or
// did not have the expected shape. BodyPreview carries a bounded prefix of
// the raw body for diagnostics.
type MalformedResponseError struct {
	// URL is the request URL whose response was malformed
	URL string
	// Expected describes the shape that was expected (e.g. "JSON array")
	Expected string
	// BodyPreview is a bounded prefix of the raw response body
	BodyPreview string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *MalformedResponseError) Error() string {
	msg := "malformed response"
	if e.URL != "" {
		msg += " from " + e.URL
	}
	if e.Expected != "" {
		msg += ": expected " + e.Expected
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if e.BodyPreview != "" {
		msg += fmt.Sprintf(": body %q", e.BodyPreview)
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *MalformedResponseError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}

// NewMalformedResponse builds a MalformedResponseError with the body preview
// truncated to a bounded length.
func NewMalformedResponse(url, expected string, body []byte, cause error) *MalformedResponseError {
	preview := string(body)
	if len(preview) > maxBodyPreview {
		preview = preview[:maxBodyPreview] + "..."
	}
	return &MalformedResponseError{URL: url, Expected: expected, BodyPreview: preview, Cause: cause}
}

// ConfigError represents missing or invalid configuration.
type ConfigError struct {
	// Key is the configuration key involved
	Key string
	// Message describes the problem
	Message string
}

// Error returns a human-readable error message.
func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Key != "" {
		msg += " for " + e.Key
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is reports whether target matches this error type.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfigMissing
}

// ValidationError represents rejected boundary input.
type ValidationError struct {
	// Field is the parameter or body field with the issue
	Field string
	// Message describes the validation failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ValidationError) Error() string {
	msg := "validation error"
	if e.Field != "" {
		msg += " for " + e.Field
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
