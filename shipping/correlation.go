package shipping

import (
	"encoding/json"

	ai "github.com/spetersoncode/pausable"
	"github.com/spetersoncode/pausable/event"
	"github.com/spetersoncode/pausable/runner"
)

// ApprovalInfo identifies a paused order: the approval to answer and the
// invocation to resume.
type ApprovalInfo struct {
	ApprovalID   string
	InvocationID string
	Hint         string
	Payload      map[string]any
}

// CheckForApproval returns the first confirmation request in events.
// A request that names no approval or no invocation cannot be answered and
// fails with a *pausable.CorrelationError.
func CheckForApproval(events []event.Event) (*ApprovalInfo, bool, error) {
	pending, err := PendingApprovals(events)
	if err != nil || len(pending) == 0 {
		return nil, false, err
	}
	return &pending[0], true, nil
}

// PendingApprovals returns every confirmation request in events, in order.
func PendingApprovals(events []event.Event) ([]ApprovalInfo, error) {
	var out []ApprovalInfo
	for _, ev := range events {
		for _, req := range ev.ConfirmationRequests() {
			if req.ApprovalID == "" {
				return nil, &ai.CorrelationError{InvocationID: req.InvocationID, Reason: "confirmation request without approval id"}
			}
			if req.InvocationID == "" {
				return nil, &ai.CorrelationError{ApprovalID: req.ApprovalID, Reason: "confirmation request without invocation id"}
			}
			out = append(out, ApprovalInfo{
				ApprovalID:   req.ApprovalID,
				InvocationID: req.InvocationID,
				Hint:         req.Hint,
				Payload:      req.Payload,
			})
		}
	}
	return out, nil
}

// NewApprovalResponse builds the decision message for info.
func NewApprovalResponse(info *ApprovalInfo, approved bool) *event.Content {
	return event.NewConfirmationResponse(info.ApprovalID, approved)
}

// AgentTexts returns the text the agent produced, in order.
func AgentTexts(events []event.Event) []string {
	var texts []string
	for _, ev := range events {
		if ev.Author == "" || ev.Author == runner.UserAuthor {
			continue
		}
		if ev.HasText() {
			texts = append(texts, ev.Text())
		}
	}
	return texts
}

// Results decodes every place_shipping_order response in events, in order.
func Results(events []event.Event) []Result {
	var out []Result
	for _, ev := range events {
		for _, resp := range ev.FunctionResponses() {
			if resp.Name != ToolName || resp.Response == nil {
				continue
			}
			raw, err := json.Marshal(resp.Response)
			if err != nil {
				continue
			}
			var res Result
			if err := json.Unmarshal(raw, &res); err != nil || res.Status == "" {
				continue
			}
			out = append(out, res)
		}
	}
	return out
}

// LastResult returns the last place_shipping_order response in events.
func LastResult(events []event.Event) (*Result, bool) {
	results := Results(events)
	if len(results) == 0 {
		return nil, false
	}
	return &results[len(results)-1], true
}
