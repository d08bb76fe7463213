package openai

import (
	"testing"

	ai "github.com/spetersoncode/pausable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertMessages(t *testing.T) {
	msgs := convertMessages([]ai.Message{
		{Role: ai.RoleSystem, Content: "You coordinate shipping."},
		{Role: ai.RoleUser, Content: "Ship 8 containers to Los Angeles"},
		{Role: ai.RoleAssistant, ToolCalls: []ai.ToolCall{{ID: "call_abc", Name: "place_shipping_order", Arguments: `{}`}}},
		ai.NewToolResultMessage(
			ai.ToolResult{ToolCallID: "call_abc", Content: `{"status":"rejected"}`},
			ai.ToolResult{ToolCallID: "call_def", Content: "ok"},
		),
		{Role: ai.RoleAssistant},
	})

	require.Len(t, msgs, 5)
	assert.NotNil(t, msgs[0].OfSystem)
	assert.NotNil(t, msgs[1].OfUser)
	require.NotNil(t, msgs[2].OfAssistant)
	assert.Equal(t, "call_abc", msgs[2].OfAssistant.ToolCalls[0].ID)
	require.NotNil(t, msgs[3].OfTool)
	assert.Equal(t, "call_abc", msgs[3].OfTool.ToolCallID)
	assert.Equal(t, "call_def", msgs[4].OfTool.ToolCallID)
}

func TestParamsAppliesOptions(t *testing.T) {
	c := New("test-key")
	params := c.params(
		[]ai.Message{{Role: ai.RoleUser, Content: "hi"}},
		[]ai.Option{ai.WithSystem("be brief"), ai.WithTools(ai.Tool{Name: "ping"}), ai.WithToolChoice(ai.ToolChoiceRequired)},
	)

	assert.Equal(t, DefaultModel, params.Model)
	require.Len(t, params.Messages, 2)
	assert.NotNil(t, params.Messages[0].OfSystem)
	require.Len(t, params.Tools, 1)
	assert.Equal(t, "ping", params.Tools[0].Function.Name)
	assert.Equal(t, "required", params.ToolChoice.OfAuto.Value)
}

func TestCategorizeStatusCode(t *testing.T) {
	assert.Equal(t, ai.ErrorTransient, categorizeStatusCode(429))
	assert.Equal(t, ai.ErrorTransient, categorizeStatusCode(503))
	assert.Equal(t, ai.ErrorUserInput, categorizeStatusCode(422))
	assert.Equal(t, ai.ErrorPermanent, categorizeStatusCode(401))
}
