// Package app wires configuration into the logger, model client and
// shipping runner shared by the commands.
package app

import (
	"context"
	"io"
	"log/slog"

	ai "github.com/spetersoncode/pausable"
	"github.com/spetersoncode/pausable/approval"
	"github.com/spetersoncode/pausable/client"
	"github.com/spetersoncode/pausable/internal/config"
	"github.com/spetersoncode/pausable/runner"
	"github.com/spetersoncode/pausable/session"
	"github.com/spetersoncode/pausable/shipping"
	"github.com/spetersoncode/pausable/tool"
)

// NewLogger returns a text logger at the configured level.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

// NewClient creates the model client for the configured provider.
func NewClient(cfg *config.Config, events chan<- client.Event) (*client.Client, error) {
	retry := cfg.RetryConfig()
	return client.New(client.Config{
		Provider: cfg.Provider,
		APIKey:   cfg.APIKey(),
		Model:    cfg.Model,
		Retry:    &retry,
		Events:   events,
	})
}

// LogClientEvents logs client events until ctx is done or events closes.
func LogClientEvents(ctx context.Context, logger *slog.Logger, events <-chan client.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Type {
			case client.EventRetry:
				if ev.RetryEvent != nil {
					logger.Warn("model call retry",
						"retry_event", ev.RetryEvent.Type,
						"attempt", ev.RetryEvent.Attempt,
						"max_attempts", ev.RetryEvent.MaxAttempts,
						"delay", ev.RetryEvent.Delay,
						"error", ev.RetryEvent.Error,
					)
				}
			case client.EventRequestError:
				logger.Error("model call failed", "operation", ev.Operation, "model", ev.Model, "error", ev.Error)
			case client.EventRequestComplete:
				logger.Debug("model call", "operation", ev.Operation, "model", ev.Model, "duration", ev.Duration)
			}
		}
	}
}

// NewShippingRunner builds the resumable shipping app over chat.
func NewShippingRunner(cfg *config.Config, chat ai.ChatProvider, sessions session.Service, opts ...runner.Option) (*runner.Runner, error) {
	registry := tool.NewRegistry()
	svc := shipping.NewService(approval.NewController(cfg.ApprovalThreshold))
	if err := shipping.Register(registry, svc); err != nil {
		return nil, err
	}
	app := shipping.NewApp(shipping.NewAgent(cfg.Model, registry))
	return runner.New(app, chat, sessions, opts...), nil
}
