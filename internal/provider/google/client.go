// Package google adapts the Google GenAI SDK (Gemini) to pausable.ChatProvider.
package google

import (
	"context"
	"fmt"
	"strings"

	ai "github.com/spetersoncode/pausable"
	"google.golang.org/genai"
)

// DefaultModel is used when neither the client nor the request names a model.
const DefaultModel = "gemini-2.5-flash-lite"

// Client wraps the Google GenAI SDK to implement ai.ChatProvider.
type Client struct {
	client *genai.Client
	model  string
}

// ClientOption configures the Google client.
type ClientOption func(*Client)

// WithModel sets the default model for requests.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// New creates a new Gemini API client with the given API key.
func New(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	c := &Client{client: client, model: DefaultModel}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) prepare(messages []ai.Message, opts []ai.Option) (string, []*genai.Content, *genai.GenerateContentConfig) {
	options := ai.ApplyOptions(opts...)
	model := c.model
	if options.Model != "" {
		model = options.Model
	}

	config := &genai.GenerateContentConfig{}
	if options.MaxTokens > 0 {
		config.MaxOutputTokens = int32(options.MaxTokens)
	}
	if options.Temperature != nil {
		temp := float32(*options.Temperature)
		config.Temperature = &temp
	}
	if len(options.Tools) > 0 {
		config.Tools = ConvertTools(options.Tools)
		if options.ToolChoice != "" {
			config.ToolConfig = ConvertToolChoice(options.ToolChoice)
		}
	}

	system, contents := convertMessages(messages)
	if options.System != "" {
		system = strings.TrimSpace(options.System + "\n\n" + system)
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	return model, contents, config
}

// Chat sends a conversation and returns a complete response.
func (c *Client) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	model, contents, config := c.prepare(messages, opts)

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, wrapError(err)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, &BlockedError{Reason: string(resp.PromptFeedback.BlockReason)}
	}

	return convertResponse(resp), nil
}

func convertResponse(resp *genai.GenerateContentResponse) *ai.Response {
	out := &ai.Response{}
	if len(resp.Candidates) > 0 {
		cand := resp.Candidates[0]
		out.FinishReason = string(cand.FinishReason)
		if cand.Content != nil {
			var text strings.Builder
			for _, part := range cand.Content.Parts {
				if part.Text != "" && !part.Thought {
					text.WriteString(part.Text)
				}
			}
			out.Content = text.String()
			out.ToolCalls = ExtractToolCalls(cand.Content.Parts)
		}
	}
	if resp.UsageMetadata != nil {
		out.Usage = ai.Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return out
}

// ChatStream sends a conversation and returns a channel of streaming events.
func (c *Client) ChatStream(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan ai.StreamEvent, error) {
	model, contents, config := c.prepare(messages, opts)

	ch := make(chan ai.StreamEvent)
	go func() {
		defer close(ch)

		var (
			full     strings.Builder
			finish   string
			usage    ai.Usage
			allParts []*genai.Part
			chunks   int
		)
		for resp, err := range c.client.Models.GenerateContentStream(ctx, model, contents, config) {
			chunks++
			if err != nil {
				ch <- ai.StreamEvent{Err: fmt.Errorf("stream chunk %d: %w", chunks, wrapError(err))}
				return
			}
			if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
				ch <- ai.StreamEvent{Err: &BlockedError{Reason: string(resp.PromptFeedback.BlockReason)}}
				return
			}
			if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
				for _, part := range resp.Candidates[0].Content.Parts {
					allParts = append(allParts, part)
					if part.Text != "" && !part.Thought {
						ch <- ai.StreamEvent{Delta: part.Text}
						full.WriteString(part.Text)
					}
				}
				finish = string(resp.Candidates[0].FinishReason)
			}
			if resp.UsageMetadata != nil {
				usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
				usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
			}
		}
		if chunks == 0 {
			ch <- ai.StreamEvent{Err: fmt.Errorf("stream returned no data")}
			return
		}

		ch <- ai.StreamEvent{
			Done: true,
			Response: &ai.Response{
				Content:      full.String(),
				FinishReason: finish,
				Usage:        usage,
				ToolCalls:    ExtractToolCalls(allParts),
			},
		}
	}()

	return ch, nil
}

var _ ai.ChatProvider = (*Client)(nil)
