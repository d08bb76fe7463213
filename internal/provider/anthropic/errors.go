package anthropic

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	ai "github.com/spetersoncode/pausable"
)

// wrapError categorizes an Anthropic SDK error by status code and keeps the
// server's Retry-After hint.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	code := apiErr.StatusCode
	msg := err.Error()
	switch categorizeStatusCode(code) {
	case ai.ErrorTransient:
		if retryAfter := parseRetryAfter(apiErr.Response); retryAfter > 0 {
			return ai.NewTransientErrorWithRetry(msg, code, retryAfter, err)
		}
		return ai.NewTransientError(msg, code, err)
	case ai.ErrorUserInput:
		return ai.NewUserInputError(msg, code, err)
	default:
		return ai.NewPermanentError(msg, code, err)
	}
}

// categorizeStatusCode determines the error category from an HTTP status code.
// 529 is Anthropic's overloaded status.
func categorizeStatusCode(code int) ai.ErrorCategory {
	switch {
	case code == 429, code >= 500 && code < 600:
		return ai.ErrorTransient
	case code == 400, code == 404, code == 413, code == 422:
		return ai.ErrorUserInput
	default:
		return ai.ErrorPermanent
	}
}

// parseRetryAfter extracts the Retry-After duration from an HTTP response.
func parseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if delay := time.Until(t); delay > 0 {
			return delay
		}
	}
	return 0
}
