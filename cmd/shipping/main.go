// Command shipping runs the shipping coordinator against a live model:
// a small order that is auto-approved, a large order that is approved, and a
// large order that is rejected.
//
// Configuration comes from .env, PAUSABLE_CONFIG and the environment:
//
//	LLM_PROVIDER       - google (default), anthropic or openai
//	MODEL              - model override (default: provider default)
//	GOOGLE_API_KEY     - key for the selected provider
//	APPROVAL_THRESHOLD - largest order approved without review (default: 5)
//
// Usage:
//
//	go run ./cmd/shipping
//	go run ./cmd/shipping -interactive
//	go run ./cmd/shipping -query "Ship 12 containers to Oslo"
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spetersoncode/pausable/client"
	"github.com/spetersoncode/pausable/internal/app"
	"github.com/spetersoncode/pausable/internal/config"
	"github.com/spetersoncode/pausable/session"
	"github.com/spetersoncode/pausable/shipping"
)

type scenario struct {
	query  string
	decide shipping.Decider
}

func main() {
	interactive := flag.Bool("interactive", false, "ask for approval decisions on stdin")
	query := flag.String("query", "", "run a single request instead of the demo scenarios")
	flag.Parse()

	if err := run(*query, *interactive); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(query string, interactive bool) error {
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

	events := make(chan client.Event, 100)
	go app.LogClientEvents(ctx, logger, events)

	chat, err := app.NewClient(cfg, events)
	if err != nil {
		return err
	}
	r, err := app.NewShippingRunner(cfg, chat, session.NewInMemoryService())
	if err != nil {
		return err
	}

	w := shipping.NewWorkflow(r)
	w.Printer = newConsolePrinter()

	scenarios := []scenario{
		{"Ship 3 containers to Singapore", shipping.AlwaysApprove},
		{"Ship 10 containers to Rotterdam", shipping.AlwaysApprove},
		{"Ship 8 containers to Los Angeles", shipping.AlwaysReject},
	}
	if query != "" {
		scenarios = []scenario{{query, shipping.AlwaysApprove}}
	}

	for _, sc := range scenarios {
		decide := sc.decide
		if interactive {
			decide = askOnStdin
		}
		report, err := w.Run(ctx, sc.query, decide)
		if err != nil {
			return fmt.Errorf("%q: %w", sc.query, err)
		}
		logger.Info("workflow finished",
			"session_id", report.SessionID,
			"invocation_id", report.InvocationID,
			"paused", report.Paused,
		)
	}
	return nil
}

var stdin = bufio.NewReader(os.Stdin)

func askOnStdin(ctx context.Context, info shipping.ApprovalInfo) (bool, error) {
	fmt.Printf("Approve? %s [y/N]: ", info.Hint)
	answer, err := stdin.ReadString('\n')
	if err != nil && answer == "" {
		return false, err
	}
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes", nil
}
