package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	ai "github.com/spetersoncode/pausable"
	"github.com/spetersoncode/pausable/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pixel = "iVBORw0KGgo="

type empty struct{}

func testRegistry() *tool.Registry {
	return tool.NewRegistry().Add(
		tool.Func("ping", "Ping pong", func(ctx context.Context, args empty) (string, error) {
			return "pong", nil
		}),
		tool.Func("add", "Add numbers", func(ctx context.Context, args struct {
			A int `json:"a"`
			B int `json:"b"`
		}) (string, error) {
			data, err := json.Marshal(args.A + args.B)
			return string(data), err
		}),
		tool.Func("getTinyImage", "Returns a tiny image", func(ctx context.Context, args empty) (string, error) {
			return NewImageEnvelope("A tiny image", pixel, "image/png").String(), nil
		}),
		tool.Func("fail", "Always fails", func(ctx context.Context, args empty) (string, error) {
			return "", assert.AnError
		}),
	)
}

func newInProcessClient(t *testing.T, registry *tool.Registry) *client.Client {
	t.Helper()
	c, err := client.NewInProcessClient(NewServer(registry, WithName("test-server"), WithVersion("1.0.0")))
	require.NoError(t, err)
	return c
}

func newRemote(t *testing.T, opts ...Option) *RemoteRegistry {
	t.Helper()
	remote, err := NewRemoteRegistryFromClient(context.Background(), newInProcessClient(t, testRegistry()), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { remote.Close() })
	return remote
}

func TestToolConversion(t *testing.T) {
	schema := json.RawMessage(`{"type":"object","properties":{"name":{"type":"string"}}}`)
	mcpTool := ToMCPTool(ai.Tool{Name: "greet", Description: "Greet someone", Parameters: schema})
	assert.Equal(t, "greet", mcpTool.Name)
	assert.Equal(t, schema, mcpTool.RawInputSchema)

	back := FromMCPTool(mcpTool)
	assert.Equal(t, "Greet someone", back.Description)
	assert.JSONEq(t, string(schema), string(back.Parameters))

	structured := FromMCPTool(mcp.NewTool("search",
		mcp.WithDescription("Search the web"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
	))
	assert.Equal(t, "search", structured.Name)
	assert.Contains(t, string(structured.Parameters), "query")

	assert.Len(t, ToMCPTools([]ai.Tool{{Name: "a"}, {Name: "b"}}), 2)
	assert.Len(t, FromMCPTools([]mcp.Tool{mcp.NewTool("a"), mcp.NewTool("b")}), 2)
}

func TestToMCPCallToolRequest(t *testing.T) {
	tests := []struct {
		name string
		args string
		want any
	}{
		{"json object", `{"a": 10}`, map[string]any{"a": float64(10)}},
		{"empty", "", nil},
		{"not json", "plain", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := ToMCPCallToolRequest(ai.ToolCall{Name: "calc", Arguments: tt.args})
			assert.Equal(t, "calc", req.Params.Name)
			assert.Equal(t, tt.want, req.Params.Arguments)
		})
	}
}

func TestFromMCPCallToolResult(t *testing.T) {
	call := ai.ToolCall{ID: "call_1", Name: "getTinyImage"}

	t.Run("text", func(t *testing.T) {
		res := FromMCPCallToolResult(call, mcp.NewToolResultText("Hello"))
		assert.Equal(t, "call_1", res.ToolCallID)
		assert.Equal(t, "getTinyImage", res.Name)
		assert.Equal(t, "Hello", res.Content)
		assert.False(t, res.IsError)
	})

	t.Run("error", func(t *testing.T) {
		res := FromMCPCallToolResult(call, mcp.NewToolResultError("boom"))
		assert.Equal(t, "boom", res.Content)
		assert.True(t, res.IsError)
	})

	t.Run("nil", func(t *testing.T) {
		res := FromMCPCallToolResult(call, nil)
		assert.True(t, res.IsError)
		assert.Empty(t, res.Content)
	})

	t.Run("image keeps data", func(t *testing.T) {
		res := FromMCPCallToolResult(call, mcp.NewToolResultImage("tiny", pixel, "image/png"))
		env, ok := DecodeEnvelope(res.Content)
		require.True(t, ok)
		require.Len(t, env.Content, 2)
		assert.Equal(t, ContentItem{Type: TypeText, Text: "tiny"}, env.Content[0])
		assert.Equal(t, ContentItem{Type: TypeImage, Data: pixel, MIMEType: "image/png"}, env.Content[1])
	})
}

func TestToMCPCallToolResult(t *testing.T) {
	text := ToMCPCallToolResult(ai.ToolResult{Content: "Success!"})
	assert.False(t, text.IsError)
	require.Len(t, text.Content, 1)

	failed := ToMCPCallToolResult(ai.ToolResult{Content: "bad", IsError: true})
	assert.True(t, failed.IsError)

	img := ToMCPCallToolResult(ai.ToolResult{Content: NewImageEnvelope("", pixel, "image/png").String()})
	require.Len(t, img.Content, 1)
	image, ok := img.Content[0].(mcp.ImageContent)
	require.True(t, ok)
	assert.Equal(t, pixel, image.Data)
	assert.Equal(t, "image/png", image.MIMEType)
}

func TestDecodeEnvelope(t *testing.T) {
	_, ok := DecodeEnvelope("pong")
	assert.False(t, ok)
	_, ok = DecodeEnvelope(`{"status":"approved"}`)
	assert.False(t, ok)
	_, ok = DecodeEnvelope(`{"content":[{"type":"text","text":"hi"}]}`)
	assert.False(t, ok)

	env, ok := DecodeEnvelope(NewImageEnvelope("cap", pixel, "image/png").String())
	require.True(t, ok)
	assert.Equal(t, "cap", env.Text())
}

func TestServerIntegration(t *testing.T) {
	ctx := context.Background()
	c := newInProcessClient(t, testRegistry())
	require.NoError(t, c.Start(ctx))
	defer c.Close()

	_, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo:      mcp.Implementation{Name: "test-client", Version: "1.0.0"},
		},
	})
	require.NoError(t, err)

	list, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	require.NoError(t, err)
	assert.Len(t, list.Tools, 4)

	t.Run("text result", func(t *testing.T) {
		result, err := c.CallTool(ctx, mcp.CallToolRequest{Params: mcp.CallToolParams{
			Name:      "add",
			Arguments: map[string]any{"a": 2, "b": 3},
		}})
		require.NoError(t, err)
		require.Len(t, result.Content, 1)
		text, ok := result.Content[0].(mcp.TextContent)
		require.True(t, ok)
		assert.Equal(t, "5", text.Text)
	})

	t.Run("image result", func(t *testing.T) {
		result, err := c.CallTool(ctx, mcp.CallToolRequest{Params: mcp.CallToolParams{Name: "getTinyImage"}})
		require.NoError(t, err)
		require.Len(t, result.Content, 2)
		image, ok := result.Content[1].(mcp.ImageContent)
		require.True(t, ok)
		assert.Equal(t, pixel, image.Data)
	})

	t.Run("tool error", func(t *testing.T) {
		result, err := c.CallTool(ctx, mcp.CallToolRequest{Params: mcp.CallToolParams{
			Name:      "fail",
			Arguments: map[string]any{},
		}})
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})
}

func TestRemoteRegistry(t *testing.T) {
	ctx := context.Background()
	remote := newRemote(t)

	assert.Equal(t, 4, remote.Len())
	assert.Equal(t, []string{"add", "fail", "getTinyImage", "ping"}, remote.Names())
	ping, ok := remote.GetTool("ping")
	require.True(t, ok)
	assert.Equal(t, "Ping pong", ping.Description)

	res, err := remote.Execute(ctx, ai.ToolCall{ID: "call_1", Name: "add", Arguments: `{"a": 10, "b": 5}`})
	require.NoError(t, err)
	assert.Equal(t, "15", res.Content)
	assert.Equal(t, "call_1", res.ToolCallID)

	img, err := remote.Execute(ctx, ai.ToolCall{ID: "call_2", Name: "getTinyImage"})
	require.NoError(t, err)
	env, ok := DecodeEnvelope(img.Content)
	require.True(t, ok)
	assert.Equal(t, pixel, env.Content[1].Data)

	_, err = remote.Execute(ctx, ai.ToolCall{Name: "missing"})
	var notFound *tool.ErrToolNotFound
	assert.ErrorAs(t, err, &notFound)

	require.NoError(t, remote.Refresh(ctx))
	assert.Equal(t, 4, remote.Len())
}

func TestRemoteRegistryToolFilter(t *testing.T) {
	remote := newRemote(t, WithToolFilter("getTinyImage"))
	assert.Equal(t, []string{"getTinyImage"}, remote.Names())
	assert.False(t, remote.Has("ping"))

	_, err := remote.Execute(context.Background(), ai.ToolCall{Name: "ping"})
	assert.Error(t, err)
}

func TestRemoteRegistryBind(t *testing.T) {
	remote := newRemote(t, WithToolFilter("ping", "fail"))
	registry := tool.NewRegistry()
	require.NoError(t, remote.Bind(registry))
	assert.Equal(t, []string{"fail", "ping"}, registry.Names())

	res, err := registry.Execute(context.Background(), ai.ToolCall{ID: "c1", Name: "ping"})
	require.NoError(t, err)
	assert.Equal(t, "pong", res.Content)

	res, err = registry.Execute(context.Background(), ai.ToolCall{ID: "c2", Name: "fail"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content, assert.AnError.Error())

	assert.Error(t, remote.Bind(registry), "binding twice collides")
}
