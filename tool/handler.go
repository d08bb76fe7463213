package tool

import (
	"context"
	"encoding/json"

	ai "github.com/spetersoncode/pausable"
)

// Handler executes a tool call and returns the result content.
// The call carries the tool name, ID, and arguments as a JSON string.
type Handler func(ctx context.Context, call ai.ToolCall) (string, error)

// TypedHandler executes a tool call with arguments decoded into T.
type TypedHandler[T any] func(ctx context.Context, args T) (string, error)

// typed adapts fn to a Handler that unmarshals the call arguments.
func typed[T any](fn TypedHandler[T]) Handler {
	return func(ctx context.Context, call ai.ToolCall) (string, error) {
		var args T
		if call.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
				return "", err
			}
		}
		return fn(ctx, args)
	}
}

// JSON marshals v into a tool result string.
func JSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
