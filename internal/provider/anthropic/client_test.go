package anthropic

import (
	"net/http"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	ai "github.com/spetersoncode/pausable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertMessages(t *testing.T) {
	msgs, system := convertMessages([]ai.Message{
		{Role: ai.RoleSystem, Content: "You coordinate shipping."},
		{Role: ai.RoleSystem, Content: ""},
		{Role: ai.RoleUser, Content: "Ship 3 containers to Singapore"},
		{Role: ai.RoleAssistant, ToolCalls: []ai.ToolCall{{ID: "toolu_1", Name: "place_shipping_order", Arguments: `{"num_containers":3}`}}},
		ai.NewToolResultMessage(ai.ToolResult{ToolCallID: "toolu_1", Content: `{"status":"approved"}`}),
		{Role: ai.RoleAssistant},
	})

	require.Len(t, system, 1)
	assert.Equal(t, "You coordinate shipping.", system[0].Text)
	require.Len(t, msgs, 3)
	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[0].Role)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, msgs[1].Role)
	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[2].Role)
}

func TestParamsAppliesOptions(t *testing.T) {
	c := New("test-key", WithModel("claude-sonnet-4-5"))
	params := c.params(
		[]ai.Message{{Role: ai.RoleUser, Content: "hi"}},
		[]ai.Option{ai.WithSystem("be brief"), ai.WithMaxTokens(100), ai.WithTools(ai.Tool{Name: "ping", Parameters: []byte(`{"type":"object","properties":{},"required":["x"]}`)})},
	)

	assert.Equal(t, anthropic.Model("claude-sonnet-4-5"), params.Model)
	assert.Equal(t, int64(100), params.MaxTokens)
	require.Len(t, params.System, 1)
	assert.Equal(t, "be brief", params.System[0].Text)
	require.Len(t, params.Tools, 1)
	assert.Equal(t, []string{"x"}, params.Tools[0].OfTool.InputSchema.Required)
}

func TestCategorizeStatusCode(t *testing.T) {
	assert.Equal(t, ai.ErrorTransient, categorizeStatusCode(429))
	assert.Equal(t, ai.ErrorTransient, categorizeStatusCode(529))
	assert.Equal(t, ai.ErrorUserInput, categorizeStatusCode(400))
	assert.Equal(t, ai.ErrorPermanent, categorizeStatusCode(401))
}

func TestParseRetryAfter(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	assert.Zero(t, parseRetryAfter(nil))
	assert.Zero(t, parseRetryAfter(resp))

	resp.Header.Set("Retry-After", "3")
	assert.Equal(t, 3*time.Second, parseRetryAfter(resp))
}
