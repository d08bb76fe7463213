package google

import (
	"encoding/json"
	"fmt"
	"strings"

	ai "github.com/spetersoncode/pausable"
	"google.golang.org/genai"
)

// convertMessages splits system messages out into a single instruction and
// converts the rest into Gemini contents. Tool results become user turns with
// FunctionResponse parts matched to their call by function name.
func convertMessages(messages []ai.Message) (string, []*genai.Content) {
	var system []string
	var contents []*genai.Content

	for _, msg := range messages {
		role := "user"
		switch msg.Role {
		case ai.RoleSystem:
			if msg.Content != "" {
				system = append(system, msg.Content)
			}
			continue
		case ai.RoleAssistant:
			role = "model"
		}

		var parts []*genai.Part
		if msg.Content != "" {
			parts = append(parts, &genai.Part{Text: msg.Content})
		}
		for _, tc := range msg.ToolCalls {
			args, err := tc.ArgumentsMap()
			if err != nil {
				args = map[string]any{}
			}
			parts = append(parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{Name: tc.Name, Args: args},
			})
		}
		for _, tr := range msg.ToolResults {
			parts = append(parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					Name:     resultName(tr),
					Response: responseMap(tr),
				},
			})
		}

		if len(parts) > 0 {
			contents = append(contents, &genai.Content{Role: role, Parts: parts})
		}
	}

	return strings.Join(system, "\n\n"), contents
}

// resultName recovers the function name for results that only carry the
// generated call id ("call_<n>_<name>").
func resultName(tr ai.ToolResult) string {
	if tr.Name != "" {
		return tr.Name
	}
	if rest, ok := strings.CutPrefix(tr.ToolCallID, "call_"); ok {
		if _, name, ok := strings.Cut(rest, "_"); ok {
			return name
		}
	}
	return tr.ToolCallID
}

// responseMap parses JSON object results and wraps anything else under "result".
// Error results are reported under "error" so the model sees the failure.
func responseMap(tr ai.ToolResult) map[string]any {
	if tr.IsError {
		return map[string]any{"error": tr.Content}
	}
	var result map[string]any
	if err := json.Unmarshal([]byte(tr.Content), &result); err != nil || result == nil {
		return map[string]any{"result": tr.Content}
	}
	return result
}

// BlockedError indicates the request was blocked by content filtering.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("request blocked: %s", e.Reason)
}
