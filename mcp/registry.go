package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	ai "github.com/spetersoncode/pausable"
	"github.com/spetersoncode/pausable/tool"
)

// DefaultTimeout bounds each call to the remote server.
const DefaultTimeout = 30 * time.Second

// Option configures a RemoteRegistry.
type Option func(*remoteConfig)

type remoteConfig struct {
	env        []string
	filter     []string
	timeout    time.Duration
	clientName string
	version    string
	logger     *slog.Logger
}

// WithEnv sets extra environment variables for a stdio server process.
func WithEnv(env ...string) Option {
	return func(c *remoteConfig) {
		c.env = append(c.env, env...)
	}
}

// WithToolFilter keeps only the named tools. No names keeps all tools.
func WithToolFilter(names ...string) Option {
	return func(c *remoteConfig) {
		c.filter = append(c.filter, names...)
	}
}

// WithTimeout bounds initialization, listing and every tool call.
// Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *remoteConfig) {
		c.timeout = d
	}
}

// WithClientInfo sets the client name and version reported to the server.
func WithClientInfo(name, version string) Option {
	return func(c *remoteConfig) {
		c.clientName = name
		c.version = version
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *remoteConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

func newRemoteConfig(opts []Option) *remoteConfig {
	cfg := &remoteConfig{
		timeout:    DefaultTimeout,
		clientName: "pausable-mcp-client",
		version:    "1.0.0",
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// RemoteRegistry provides access to the tools of an MCP server and proxies
// calls to it.
//
// RemoteRegistry is safe for concurrent use. The tool list is cached
// locally and can be refreshed with [RemoteRegistry.Refresh].
type RemoteRegistry struct {
	client *client.Client
	cfg    *remoteConfig
	mu     sync.RWMutex
	tools  map[string]ai.Tool
}

// NewRemoteRegistry starts command as an MCP server subprocess and connects
// to it over stdio.
func NewRemoteRegistry(ctx context.Context, command string, args []string, opts ...Option) (*RemoteRegistry, error) {
	cfg := newRemoteConfig(opts)
	c, err := client.NewStdioMCPClient(command, cfg.env, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP client: %w", err)
	}
	return connect(ctx, c, cfg)
}

// NewRemoteRegistrySSE connects to an MCP server via SSE.
func NewRemoteRegistrySSE(ctx context.Context, baseURL string, opts ...Option) (*RemoteRegistry, error) {
	c, err := client.NewSSEMCPClient(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSE MCP client: %w", err)
	}
	return connect(ctx, c, newRemoteConfig(opts))
}

// NewRemoteRegistryFromClient creates a RemoteRegistry from an existing MCP
// client. The client is started, initialized and asked for its tools.
func NewRemoteRegistryFromClient(ctx context.Context, c *client.Client, opts ...Option) (*RemoteRegistry, error) {
	return connect(ctx, c, newRemoteConfig(opts))
}

func connect(ctx context.Context, c *client.Client, cfg *remoteConfig) (*RemoteRegistry, error) {
	// The SSE transport keeps its stream on the Start context, so only the
	// handshake is bounded.
	if err := c.Start(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to start MCP client: %w", err)
	}

	initCtx, cancel := cfg.bound(ctx)
	defer cancel()
	_, err := c.Initialize(initCtx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    cfg.clientName,
				Version: cfg.version,
			},
		},
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize MCP session: %w", err)
	}

	r := &RemoteRegistry{
		client: c,
		cfg:    cfg,
		tools:  make(map[string]ai.Tool),
	}
	if err := r.Refresh(initCtx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}
	return r, nil
}

func (c *remoteConfig) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// Close closes the connection to the MCP server.
func (r *RemoteRegistry) Close() error {
	return r.client.Close()
}

// Refresh fetches the tool list from the server, applying the tool filter.
func (r *RemoteRegistry) Refresh(ctx context.Context) error {
	ctx, cancel := r.cfg.bound(ctx)
	defer cancel()

	result, err := r.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return err
	}

	tools := make(map[string]ai.Tool, len(result.Tools))
	for _, t := range result.Tools {
		if !matches(t.Name, r.cfg.filter) {
			continue
		}
		tools[t.Name] = FromMCPTool(t)
	}
	if len(r.cfg.filter) > 0 && len(tools) == 0 {
		r.cfg.logger.Warn("tool filter matched no remote tools", "filter", r.cfg.filter, "available", len(result.Tools))
	}

	r.mu.Lock()
	r.tools = tools
	r.mu.Unlock()
	return nil
}

// Tools returns the available tools sorted by name.
func (r *RemoteRegistry) Tools() []ai.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]ai.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		tools = append(tools, t)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

// GetTool retrieves a tool definition by name.
func (r *RemoteRegistry) GetTool(name string) (ai.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	return t, ok
}

// Names returns the sorted names of the available tools.
func (r *RemoteRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of available tools.
func (r *RemoteRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Has reports whether the registry has a tool with the given name.
func (r *RemoteRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Execute calls a tool on the remote server. Transport failures and
// filtered-out tools are reported as error results.
func (r *RemoteRegistry) Execute(ctx context.Context, call ai.ToolCall) (ai.ToolResult, error) {
	if !r.Has(call.Name) {
		return ai.ToolResult{}, &tool.ErrToolNotFound{Name: call.Name}
	}

	ctx, cancel := r.cfg.bound(ctx)
	defer cancel()

	start := time.Now()
	result, err := r.client.CallTool(ctx, ToMCPCallToolRequest(call))
	if err != nil {
		r.cfg.logger.Warn("remote tool call failed", "tool", call.Name, "elapsed", time.Since(start), "error", err)
		return ai.ToolResult{
			ToolCallID: call.ID,
			Name:       call.Name,
			Content:    err.Error(),
			IsError:    true,
		}, nil
	}
	r.cfg.logger.Debug("remote tool call", "tool", call.Name, "elapsed", time.Since(start), "is_error", result.IsError)

	return FromMCPCallToolResult(call, result), nil
}

// Bind registers every available tool in registry with a handler that
// forwards to the remote server.
func (r *RemoteRegistry) Bind(registry *tool.Registry) error {
	for _, t := range r.Tools() {
		if err := registry.Register(t, r.handler()); err != nil {
			return err
		}
	}
	return nil
}

func (r *RemoteRegistry) handler() tool.Handler {
	return func(ctx context.Context, call ai.ToolCall) (string, error) {
		res, err := r.Execute(ctx, call)
		if err != nil {
			return "", err
		}
		if res.IsError {
			if env, ok := DecodeEnvelope(res.Content); ok {
				return "", errors.New(env.Text())
			}
			return "", errors.New(res.Content)
		}
		return res.Content, nil
	}
}
