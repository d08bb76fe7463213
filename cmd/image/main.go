// Command image asks an agent for a tiny image from an MCP server and saves it.
//
// By default it starts the MCP "everything" server with npx and only exposes
// its getTinyImage tool. Point MCP_COMMAND and MCP_ARGS at another server,
// such as this module's cmd/mcp, to run without npx:
//
//	MCP_COMMAND=go MCP_ARGS="run ./cmd/mcp" go run ./cmd/image
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/spetersoncode/pausable/client"
	"github.com/spetersoncode/pausable/event"
	"github.com/spetersoncode/pausable/imaging"
	"github.com/spetersoncode/pausable/internal/app"
	"github.com/spetersoncode/pausable/internal/config"
	"github.com/spetersoncode/pausable/mcp"
	"github.com/spetersoncode/pausable/runner"
	"github.com/spetersoncode/pausable/session"
	"github.com/spetersoncode/pausable/tool"
)

const (
	agentName   = "image_agent"
	instruction = "Use the MCP Tool to generate images for user queries"
	prompt      = "Provide a sample tiny image"
	userID      = "test_user"
)

func main() {
	if err := run(); err != nil {
		color.Red("error: %v", err)
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

	remote, err := mcp.NewRemoteRegistry(ctx, cfg.MCP.Command, cfg.MCP.Args,
		mcp.WithToolFilter(cfg.MCP.ToolFilter...),
		mcp.WithTimeout(cfg.MCP.Timeout),
		mcp.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("connect to MCP server %s: %w", cfg.MCP.Command, err)
	}
	defer remote.Close()

	registry := tool.NewRegistry()
	if err := remote.Bind(registry); err != nil {
		return err
	}
	logger.Info("MCP tools bound", "tools", registry.Names())

	events := make(chan client.Event, 100)
	go app.LogClientEvents(ctx, logger, events)
	chat, err := app.NewClient(cfg, events)
	if err != nil {
		return err
	}

	sessions := session.NewInMemoryService()
	r := runner.New(runner.App{
		Name: "image_app",
		Agent: runner.Agent{
			Name:        agentName,
			Model:       cfg.Model,
			Instruction: instruction,
			Tools:       registry,
		},
	}, chat, sessions, runner.WithLogger(logger))

	sess, err := sessions.Create(ctx, "image_app", userID, "")
	if err != nil {
		return err
	}

	color.Cyan("User > %s", prompt)
	stream, err := r.Run(ctx, userID, sess.ID, event.NewUserMessage(prompt))
	if err != nil {
		return err
	}
	all, err := runner.Collect(stream)
	if err != nil {
		return err
	}
	for _, ev := range all {
		if ev.Author == agentName && ev.HasText() {
			fmt.Printf("Agent > %s\n", ev.Text())
		}
	}

	img, err := imaging.First(all)
	if err != nil {
		return err
	}
	info, err := imaging.Save(img, cfg.ImageOutput)
	if err != nil {
		return err
	}
	color.Green("Saved %s (%s)", cfg.ImageOutput, info)
	return nil
}
