// Command serve exposes the shipping coordinator as an AG-UI endpoint over
// Server-Sent Events.
//
// A run request whose last message is user text starts a new invocation in
// the thread's session. When an order needs approval the stream ends with a
// request_confirmation tool call; the client answers it with a tool message
// carrying {"confirmed": true|false} (or POSTs to /api/approval) and the
// paused invocation resumes on a new stream.
//
// Configuration comes from .env, PAUSABLE_CONFIG and the environment
// (LLM_PROVIDER, MODEL, the provider API key, PORT, LOG_LEVEL). Set
// OTEL_STDOUT=true to print OpenTelemetry spans to stdout.
//
// Usage:
//
//	go run ./cmd/serve
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spetersoncode/pausable/client"
	"github.com/spetersoncode/pausable/internal/app"
	"github.com/spetersoncode/pausable/internal/config"
	"github.com/spetersoncode/pausable/internal/tracing"
	"github.com/spetersoncode/pausable/runner"
	"github.com/spetersoncode/pausable/session"
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString("error: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := app.NewLogger(cfg, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []runner.Option{runner.WithLogger(logger)}
	if cfg.OTelStdout {
		tp, err := tracing.NewStdoutProvider(ctx, "pausable-serve", os.Stdout)
		if err != nil {
			return err
		}
		defer tp.Shutdown(context.Background())
		opts = append(opts, runner.WithTracerProvider(tp))
	}

	events := make(chan client.Event, 100)
	go app.LogClientEvents(ctx, logger, events)
	chat, err := app.NewClient(cfg, events)
	if err != nil {
		return err
	}
	r, err := app.NewShippingRunner(cfg, chat, session.NewInMemoryService(), opts...)
	if err != nil {
		return err
	}

	handler := NewHandler(r, logger)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // SSE needs no write timeout
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	logger.Info("AG-UI server starting",
		"port", cfg.Port,
		"provider", cfg.Provider,
		"model", cfg.Model,
		"approval_threshold", cfg.ApprovalThreshold,
	)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("server stopped")
	return nil
}
