package retry

import (
	"context"
	"time"

	ai "github.com/spetersoncode/pausable"
)

// Do executes fn with retry logic.
// It respects context cancellation during backoff waits.
// Returns the result on success, or the last error if all attempts fail.
func Do[T any](ctx context.Context, cfg ai.RetryConfig, fn func() (T, error)) (T, error) {
	return DoWithEvents(ctx, cfg, nil, fn)
}

// DoStream is like Do but for functions that return a channel.
// It retries establishing the stream, not individual chunks.
func DoStream[T any](ctx context.Context, cfg ai.RetryConfig, events chan<- Event, fn func() (<-chan T, error)) (<-chan T, error) {
	return DoWithEvents(ctx, cfg, events, fn)
}

// DoWithEvents is like Do but emits events for observability.
// Events are sent non-blocking; if the channel is full, events are dropped.
// Pass nil for events to disable event emission.
func DoWithEvents[T any](ctx context.Context, cfg ai.RetryConfig, events chan<- Event, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	attempts := max(cfg.MaxAttempts, 1)
	for attempt := 0; attempt < attempts; attempt++ {
		emit(events, Event{Type: EventAttemptStart, Attempt: attempt + 1, MaxAttempts: attempts})

		result, err := fn()
		if err == nil {
			emit(events, Event{Type: EventSuccess, Attempt: attempt + 1, MaxAttempts: attempts})
			return result, nil
		}

		lastErr = err
		retryable := Retryable(cfg, err)
		emit(events, Event{
			Type:        EventAttemptFailed,
			Attempt:     attempt + 1,
			MaxAttempts: attempts,
			Error:       err,
			Retryable:   retryable,
		})
		if !retryable {
			return zero, err
		}

		// no sleep after the last attempt
		if attempt < attempts-1 {
			delay := effectiveDelay(Delay(cfg, attempt), err)
			emit(events, Event{Type: EventRetrying, Attempt: attempt + 1, MaxAttempts: attempts, Delay: delay})

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}
	}

	emit(events, Event{Type: EventExhausted, Attempt: attempts, MaxAttempts: attempts, Error: lastErr})
	return zero, lastErr
}
