package pausable

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for protocol failures. Typed errors below match them with errors.Is.
var (
	// ErrConfiguration marks a missing or invalid startup setting.
	ErrConfiguration = errors.New("configuration error")
	// ErrCorrelation marks a resume that cannot be matched to a suspended invocation.
	ErrCorrelation = errors.New("correlation error")
	// ErrPolicyViolation marks a confirmation state the approval policy never produced.
	ErrPolicyViolation = errors.New("policy violation")
)

// ErrorCategory classifies errors by how they should be handled.
type ErrorCategory string

const (
	// ErrorTransient indicates the error is temporary and the operation can be retried.
	// Examples: rate limits, temporary network issues, server overload.
	ErrorTransient ErrorCategory = "transient"

	// ErrorPermanent indicates the error is not recoverable through retry.
	// Examples: invalid API key, insufficient permissions, model not found.
	ErrorPermanent ErrorCategory = "permanent"

	// ErrorUserInput indicates the caller provided invalid input that must be corrected.
	ErrorUserInput ErrorCategory = "user_input"
)

// CategorizedError is an error that provides information about how it should be handled.
type CategorizedError interface {
	error
	Category() ErrorCategory
	Retryable() bool
	StatusCode() int
	RetryAfter() time.Duration
}

// Error is a categorized error with metadata for error handling decisions.
type Error struct {
	Msg        string
	Cat        ErrorCategory
	Code       int           // HTTP status code, 0 if not applicable
	RetryDelay time.Duration // from Retry-After header, 0 if not available
	Cause      error
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Cause }

// Category returns the error category.
func (e *Error) Category() ErrorCategory { return e.Cat }

// Retryable returns true if the error is transient.
func (e *Error) Retryable() bool { return e.Cat == ErrorTransient }

// StatusCode returns the HTTP status code, or 0 if not applicable.
func (e *Error) StatusCode() int { return e.Code }

// RetryAfter returns the suggested retry delay, or 0 if not available.
func (e *Error) RetryAfter() time.Duration { return e.RetryDelay }

// NewTransientError creates a transient error that can be retried.
func NewTransientError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorTransient, Code: statusCode, Cause: cause}
}

// NewTransientErrorWithRetry creates a transient error with a suggested retry delay.
func NewTransientErrorWithRetry(msg string, statusCode int, retryAfter time.Duration, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorTransient, Code: statusCode, RetryDelay: retryAfter, Cause: cause}
}

// NewPermanentError creates a permanent error that should not be retried.
func NewPermanentError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorPermanent, Code: statusCode, Cause: cause}
}

// NewUserInputError creates an error indicating invalid input.
func NewUserInputError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorUserInput, Code: statusCode, Cause: cause}
}

// IsTransient returns true if err or any wrapped error is categorized as transient.
func IsTransient(err error) bool {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == ErrorTransient
	}
	return false
}

// IsPermanent returns true if err or any wrapped error is categorized as permanent.
func IsPermanent(err error) bool {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == ErrorPermanent
	}
	return false
}

// IsUserInput returns true if err or any wrapped error is categorized as user input.
func IsUserInput(err error) bool {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == ErrorUserInput
	}
	return false
}

// StatusCodeOf returns the HTTP status code from a categorized error, or 0.
func StatusCodeOf(err error) int {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.StatusCode()
	}
	return 0
}

// RetryAfterOf returns the retry delay from a categorized error, or 0.
func RetryAfterOf(err error) time.Duration {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.RetryAfter()
	}
	return 0
}

// ConfigurationError reports a required setting that is missing or invalid at startup.
type ConfigurationError struct {
	Key string // environment key or config field
	Msg string
}

func (e *ConfigurationError) Error() string {
	if e.Key == "" {
		return "configuration: " + e.Msg
	}
	return fmt.Sprintf("configuration: %s: %s", e.Key, e.Msg)
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// NewConfigurationError creates a ConfigurationError for key.
func NewConfigurationError(key, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Key: key, Msg: fmt.Sprintf(format, args...)}
}

// CorrelationError reports a resume or decision that does not match any
// suspended invocation.
type CorrelationError struct {
	InvocationID string
	ApprovalID   string
	Reason       string
}

func (e *CorrelationError) Error() string {
	msg := "correlation: " + e.Reason
	if e.InvocationID != "" {
		msg += fmt.Sprintf(" (invocation %q", e.InvocationID)
		if e.ApprovalID != "" {
			msg += fmt.Sprintf(", approval %q", e.ApprovalID)
		}
		msg += ")"
	} else if e.ApprovalID != "" {
		msg += fmt.Sprintf(" (approval %q)", e.ApprovalID)
	}
	return msg
}

// Is reports whether target is ErrCorrelation.
func (e *CorrelationError) Is(target error) bool { return target == ErrCorrelation }

// PolicyViolation reports a confirmation state that could only come from a
// caller bug, such as a decision for a request that was never suspended.
type PolicyViolation struct {
	Msg string
}

func (e *PolicyViolation) Error() string { return "policy violation: " + e.Msg }

// Is reports whether target is ErrPolicyViolation.
func (e *PolicyViolation) Is(target error) bool { return target == ErrPolicyViolation }

// ImageError represents an error during image processing.
type ImageError struct {
	Op     string // "decode", "extract" or "save"
	Source string // file path or "base64"
	Err    error
}

// Error returns a formatted error message describing the image processing failure.
func (e *ImageError) Error() string {
	return fmt.Sprintf("image %s error for %s: %v", e.Op, e.Source, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *ImageError) Unwrap() error { return e.Err }
