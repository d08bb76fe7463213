package google

import (
	"errors"

	ai "github.com/spetersoncode/pausable"
	"google.golang.org/genai"
)

// wrapError categorizes a GenAI error by its HTTP status.
// genai.APIError does not expose headers, so Retry-After is never set.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		var apiPtr *genai.APIError
		if !errors.As(err, &apiPtr) || apiPtr == nil {
			return err
		}
		apiErr = *apiPtr
	}

	code := apiErr.Code
	msg := err.Error()
	switch categorizeStatusCode(code) {
	case ai.ErrorTransient:
		return ai.NewTransientError(msg, code, err)
	case ai.ErrorUserInput:
		return ai.NewUserInputError(msg, code, err)
	default:
		return ai.NewPermanentError(msg, code, err)
	}
}

// categorizeStatusCode determines the error category from an HTTP status code.
func categorizeStatusCode(code int) ai.ErrorCategory {
	switch {
	case code == 429, code >= 500 && code < 600:
		return ai.ErrorTransient
	case code == 400, code == 404, code == 422:
		return ai.ErrorUserInput
	default:
		return ai.ErrorPermanent
	}
}
