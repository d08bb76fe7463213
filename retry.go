package pausable

import (
	"fmt"
	"slices"
	"time"
)

// DefaultRetryableStatusCodes are the HTTP status codes retried by default:
// rate limiting and the server errors backends return under load.
var DefaultRetryableStatusCodes = []int{429, 500, 503, 504}

// RetryConfig holds retry configuration parameters for model backend calls.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (default: 5).
	// The initial request counts as attempt 1.
	MaxAttempts int

	// InitialDelay is the base delay before the first retry (default: 1s).
	InitialDelay time.Duration

	// MaxDelay is the maximum delay between retries (default: 60s).
	MaxDelay time.Duration

	// Multiplier is the exponential backoff base (default: 7).
	Multiplier float64

	// Jitter adds randomness to prevent thundering herd (default: 0.1 = 10%).
	Jitter float64

	// RetryableStatusCodes restricts retries of errors that carry an HTTP
	// status to these codes. Empty means any transient status is retried.
	RetryableStatusCodes []int
}

// DefaultRetryConfig returns the default retry configuration.
//   - 5 max attempts
//   - 1 second initial delay
//   - 60 second max delay
//   - 7x exponential base
//   - 10% jitter
//   - status codes 429, 500, 503, 504
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:          5,
		InitialDelay:         1 * time.Second,
		MaxDelay:             60 * time.Second,
		Multiplier:           7.0,
		Jitter:               0.1,
		RetryableStatusCodes: slices.Clone(DefaultRetryableStatusCodes),
	}
}

// DisabledRetryConfig returns a configuration that disables retries (single attempt).
func DisabledRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 1}
}

// RetriesStatus reports whether an error carrying the given HTTP status may be retried.
// A zero status (no HTTP response) is always eligible.
func (c RetryConfig) RetriesStatus(code int) bool {
	if code == 0 || len(c.RetryableStatusCodes) == 0 {
		return true
	}
	return slices.Contains(c.RetryableStatusCodes, code)
}

// Validate checks the configuration for values the backoff loop cannot use.
func (c RetryConfig) Validate() error {
	if c.MaxAttempts < 1 {
		return NewConfigurationError("RETRY_ATTEMPTS", "must be at least 1, got %d", c.MaxAttempts)
	}
	if c.MaxAttempts > 1 && c.Multiplier < 1 {
		return NewConfigurationError("RETRY_EXP_BASE", "must be at least 1, got %g", c.Multiplier)
	}
	if c.InitialDelay < 0 {
		return NewConfigurationError("RETRY_INITIAL_DELAY", "must not be negative")
	}
	for _, code := range c.RetryableStatusCodes {
		if code < 100 || code > 599 {
			return NewConfigurationError("RETRY_STATUS_CODES", "invalid HTTP status %d", code)
		}
	}
	return nil
}

// String summarizes the configuration for logs.
func (c RetryConfig) String() string {
	return fmt.Sprintf("attempts=%d initial=%s base=%g codes=%v", c.MaxAttempts, c.InitialDelay, c.Multiplier, c.RetryableStatusCodes)
}
