package runner

import "errors"

var (
	// ErrMaxSteps ends an invocation that kept calling tools past the step limit.
	ErrMaxSteps = errors.New("runner: max steps reached")

	// ErrEmptyMessage is returned when Run receives no content.
	ErrEmptyMessage = errors.New("runner: message has no content")
)
