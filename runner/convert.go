package runner

import (
	"encoding/json"
	"strings"

	ai "github.com/spetersoncode/pausable"
	"github.com/spetersoncode/pausable/event"
	"github.com/spetersoncode/pausable/session"
)

func functionCall(call ai.ToolCall) event.FunctionCall {
	args, err := call.ArgumentsMap()
	if err != nil {
		args = map[string]any{"arguments": call.Arguments}
	}
	return event.FunctionCall{ID: call.ID, Name: call.Name, Args: args}
}

func responseContent(resp *ai.Response) *event.Content {
	c := &event.Content{Role: ai.RoleAssistant}
	if resp.Content != "" {
		c.Parts = append(c.Parts, event.Part{Text: resp.Content})
	}
	for _, call := range resp.ToolCalls {
		fc := functionCall(call)
		c.Parts = append(c.Parts, event.Part{FunctionCall: &fc})
	}
	return c
}

func resultsContent(results []ai.ToolResult) *event.Content {
	c := &event.Content{Role: ai.RoleTool}
	for _, res := range results {
		c.Parts = append(c.Parts, event.Part{FunctionResponse: &event.FunctionResponse{
			ID:       res.ToolCallID,
			Name:     res.Name,
			Response: responseMap(res),
		}})
	}
	return c
}

// responseMap exposes a JSON object result as is; anything else is wrapped.
func responseMap(res ai.ToolResult) map[string]any {
	if res.IsError {
		return map[string]any{"error": res.Content}
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(res.Content), &m); err == nil && m != nil {
		return m
	}
	return map[string]any{"result": res.Content}
}

func contentText(c *event.Content) string {
	var sb strings.Builder
	for _, p := range c.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String())
}

// priorHistory rebuilds the conversation of earlier invocations from the
// text exchanged in the session.
func priorHistory(sess *session.Session) []ai.Message {
	var msgs []ai.Message
	for _, ev := range sess.Events {
		if !ev.HasText() || ev.HasFunctionCall() || ev.HasFunctionResponse() {
			continue
		}
		role := ai.RoleAssistant
		if ev.Author == UserAuthor {
			role = ai.RoleUser
		}
		msgs = append(msgs, ai.Message{Role: role, Content: ev.Text()})
	}
	return msgs
}

// findInvocation returns the invocation that emitted the confirmation request
// with the given approval id.
func findInvocation(sess *session.Session, approvalID string) (string, bool) {
	for i := len(sess.Events) - 1; i >= 0; i-- {
		for _, req := range sess.Events[i].ConfirmationRequests() {
			if req.ApprovalID == approvalID {
				return req.InvocationID, true
			}
		}
	}
	return "", false
}
