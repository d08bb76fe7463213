package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	ai "github.com/spetersoncode/pausable"
	"github.com/spetersoncode/pausable/internal/provider/anthropic"
	"github.com/spetersoncode/pausable/internal/provider/google"
	"github.com/spetersoncode/pausable/internal/provider/openai"
	"github.com/spetersoncode/pausable/internal/retry"
)

// Config holds configuration for creating a client.
type Config struct {
	// Provider selects the backend. Default is Google.
	Provider ai.Provider

	// APIKey authenticates against the provider.
	APIKey string

	// Model is the default chat model. The provider default is used when empty.
	Model string

	// Retry configures retry behavior for transient errors.
	// If nil, ai.DefaultRetryConfig is used.
	Retry *ai.RetryConfig

	// Events is an optional channel for receiving client operation events.
	Events chan<- Event
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithDefaultTemperature sets the default temperature for chat requests.
// Per-request options override this default.
func WithDefaultTemperature(t float64) ClientOption {
	return func(c *Client) {
		c.defaultChatOpts = append(c.defaultChatOpts, ai.WithTemperature(t))
	}
}

// WithDefaultMaxTokens sets the default max tokens for chat requests.
func WithDefaultMaxTokens(n int) ClientOption {
	return func(c *Client) {
		c.defaultChatOpts = append(c.defaultChatOpts, ai.WithMaxTokens(n))
	}
}

// WithChatProvider replaces the backend. The API key is not required then.
func WithChatProvider(p ai.ChatProvider) ClientOption {
	return func(c *Client) {
		c.backend = p
	}
}

// Client is a ChatProvider with retries and events over one backend.
// The backend is lazily initialized on first use.
type Client struct {
	provider        ai.Provider
	apiKey          string
	model           string
	retryConfig     ai.RetryConfig
	events          chan<- Event
	defaultChatOpts []ai.Option

	mu      sync.Mutex
	backend ai.ChatProvider
	initErr error
}

var _ ai.ChatProvider = (*Client)(nil)

// New creates a client. It fails with a *pausable.ConfigurationError when the
// provider is unknown, the API key is missing, or the retry settings are invalid.
func New(cfg Config, opts ...ClientOption) (*Client, error) {
	if cfg.Provider == "" {
		cfg.Provider = ai.ProviderGoogle
	}
	switch cfg.Provider {
	case ai.ProviderAnthropic, ai.ProviderOpenAI, ai.ProviderGoogle:
	default:
		return nil, ai.NewConfigurationError("LLM_PROVIDER", "unsupported provider %q", cfg.Provider)
	}

	retryConfig := ai.DefaultRetryConfig()
	if cfg.Retry != nil {
		retryConfig = *cfg.Retry
	}
	if err := retryConfig.Validate(); err != nil {
		return nil, err
	}

	model := cfg.Model
	if model == "" {
		model = cfg.Provider.DefaultModel()
	}

	c := &Client{
		provider:    cfg.Provider,
		apiKey:      cfg.APIKey,
		model:       model,
		retryConfig: retryConfig,
		events:      cfg.Events,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.backend == nil && c.apiKey == "" {
		return nil, ai.NewConfigurationError(cfg.Provider.APIKeyEnv(), "no API key configured for %s", cfg.Provider)
	}
	return c, nil
}

// Provider returns the backend provider.
func (c *Client) Provider() ai.Provider { return c.provider }

// Model returns the default chat model.
func (c *Client) Model() string { return c.model }

// getBackend returns the provider backend, initializing it if needed.
func (c *Client) getBackend(ctx context.Context) (ai.ChatProvider, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.backend != nil {
		return c.backend, nil
	}
	if c.initErr != nil {
		return nil, c.initErr
	}

	switch c.provider {
	case ai.ProviderAnthropic:
		c.backend = anthropic.New(c.apiKey, anthropic.WithModel(c.model))
	case ai.ProviderOpenAI:
		c.backend = openai.New(c.apiKey, openai.WithModel(c.model))
	default:
		backend, err := google.New(ctx, c.apiKey, google.WithModel(c.model))
		if err != nil {
			c.initErr = fmt.Errorf("failed to initialize Google client: %w", err)
			return nil, c.initErr
		}
		c.backend = backend
	}
	return c.backend, nil
}

// prepare merges default options and resolves the model of a request.
func (c *Client) prepare(opts []ai.Option) ([]ai.Option, string) {
	merged := make([]ai.Option, 0, len(c.defaultChatOpts)+len(opts)+1)
	merged = append(merged, ai.WithModel(c.model))
	merged = append(merged, c.defaultChatOpts...)
	merged = append(merged, opts...)
	return merged, ai.ApplyOptions(merged...).Model
}

// Chat sends a conversation and returns a complete response.
// Transient errors are retried according to the client's retry configuration.
func (c *Client) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	backend, err := c.getBackend(ctx)
	if err != nil {
		return nil, err
	}
	opts, model := c.prepare(opts)

	start := time.Now()
	emit(c.events, Event{Type: EventRequestStart, Operation: "chat", Provider: c.provider, Model: model})

	retryEvents, done := c.forwardRetryEvents("chat", model)
	resp, err := retry.DoWithEvents(ctx, c.retryConfig, retryEvents, func() (*ai.Response, error) {
		return backend.Chat(ctx, messages, opts...)
	})
	done()

	if err != nil {
		emit(c.events, Event{
			Type:      EventRequestError,
			Operation: "chat",
			Provider:  c.provider,
			Model:     model,
			Duration:  time.Since(start),
			Error:     err,
		})
		return nil, err
	}

	emit(c.events, Event{
		Type:      EventRequestComplete,
		Operation: "chat",
		Provider:  c.provider,
		Model:     model,
		Duration:  time.Since(start),
		Usage:     &resp.Usage,
	})
	return resp, nil
}

// ChatStream sends a conversation and returns a channel of streaming events.
// Establishing the stream is retried; individual chunks are not.
func (c *Client) ChatStream(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan ai.StreamEvent, error) {
	backend, err := c.getBackend(ctx)
	if err != nil {
		return nil, err
	}
	opts, model := c.prepare(opts)

	start := time.Now()
	emit(c.events, Event{Type: EventRequestStart, Operation: "chat_stream", Provider: c.provider, Model: model})

	retryEvents, done := c.forwardRetryEvents("chat_stream", model)
	stream, err := retry.DoStream(ctx, c.retryConfig, retryEvents, func() (<-chan ai.StreamEvent, error) {
		return backend.ChatStream(ctx, messages, opts...)
	})
	done()

	if err != nil {
		emit(c.events, Event{
			Type:      EventRequestError,
			Operation: "chat_stream",
			Provider:  c.provider,
			Model:     model,
			Duration:  time.Since(start),
			Error:     err,
		})
		return nil, err
	}

	if c.events == nil {
		return stream, nil
	}

	// Wrap the stream to report completion with usage.
	out := make(chan ai.StreamEvent)
	go func() {
		defer close(out)
		for ev := range stream {
			if ev.Err != nil {
				emit(c.events, Event{Type: EventRequestError, Operation: "chat_stream", Provider: c.provider, Model: model, Duration: time.Since(start), Error: ev.Err})
			} else if ev.Done && ev.Response != nil {
				emit(c.events, Event{Type: EventRequestComplete, Operation: "chat_stream", Provider: c.provider, Model: model, Duration: time.Since(start), Usage: &ev.Response.Usage})
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// forwardRetryEvents returns a retry event channel relayed to the client
// events, and a function that stops the relay. Both are no-ops without events.
func (c *Client) forwardRetryEvents(operation, model string) (chan<- retry.Event, func()) {
	if c.events == nil {
		return nil, func() {}
	}
	ch := make(chan retry.Event, 10)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range ch {
			emit(c.events, Event{
				Type:       EventRetry,
				Operation:  operation,
				Provider:   c.provider,
				Model:      model,
				RetryEvent: &ev,
			})
		}
	}()
	return ch, func() {
		close(ch)
		wg.Wait()
	}
}
