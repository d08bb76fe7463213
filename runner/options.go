package runner

import (
	"log/slog"
	"time"

	"github.com/spetersoncode/pausable/approval"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Runner.
type Option func(*Runner)

// WithMaxSteps limits the model steps of one invocation, resumes included.
// Default is 10.
func WithMaxSteps(n int) Option {
	return func(r *Runner) {
		r.maxSteps = n
	}
}

// WithTimeout bounds each Run or Resume call. A value of 0 means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.timeout = d
	}
}

// WithHandlerTimeout bounds each tool handler. Default is 30 seconds.
func WithHandlerTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.handlerTimeout = d
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithTracker shares an approval tracker between runners.
func WithTracker(t *approval.Tracker) Option {
	return func(r *Runner) {
		if t != nil {
			r.tracker = t
		}
	}
}

// WithTracerProvider sets the OpenTelemetry provider. The global provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Runner) {
		r.tracerProvider = tp
	}
}
