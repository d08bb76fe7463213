package event

import (
	ai "github.com/spetersoncode/pausable"
)

// RequestConfirmation is the function name of the call an invocation emits when
// a tool asks for human confirmation, and of the response that answers it.
const RequestConfirmation = "request_confirmation"

// Argument and response keys of the confirmation exchange.
const (
	keyOriginalCall = "originalFunctionCall"
	keyConfirmation = "toolConfirmation"
	keyHint         = "hint"
	keyPayload      = "payload"
	keyConfirmed    = "confirmed"
)

// ConfirmationRequest is the decoded form of a confirmation function call.
type ConfirmationRequest struct {
	// ApprovalID is the function call ID; decisions must echo it.
	ApprovalID   string
	InvocationID string
	OriginalCall FunctionCall
	Hint         string
	Payload      map[string]any
}

// NewConfirmationCall builds the function call that asks for confirmation of original.
func NewConfirmationCall(approvalID string, original FunctionCall, hint string, payload map[string]any) FunctionCall {
	return FunctionCall{
		ID:   approvalID,
		Name: RequestConfirmation,
		Args: map[string]any{
			keyOriginalCall: map[string]any{
				"id":   original.ID,
				"name": original.Name,
				"args": original.Args,
			},
			keyConfirmation: map[string]any{
				keyHint:      hint,
				keyPayload:   payload,
				keyConfirmed: false,
			},
		},
	}
}

// ConfirmationRequests decodes the confirmation calls carried by the event.
func (e Event) ConfirmationRequests() []ConfirmationRequest {
	var reqs []ConfirmationRequest
	for _, call := range e.FunctionCalls() {
		if call.Name != RequestConfirmation {
			continue
		}
		req := ConfirmationRequest{ApprovalID: call.ID, InvocationID: e.InvocationID}
		if orig, ok := call.Args[keyOriginalCall].(map[string]any); ok {
			req.OriginalCall.ID, _ = orig["id"].(string)
			req.OriginalCall.Name, _ = orig["name"].(string)
			req.OriginalCall.Args, _ = orig["args"].(map[string]any)
		}
		if conf, ok := call.Args[keyConfirmation].(map[string]any); ok {
			req.Hint, _ = conf[keyHint].(string)
			req.Payload, _ = conf[keyPayload].(map[string]any)
		}
		reqs = append(reqs, req)
	}
	return reqs
}

// Decision is a human answer to one confirmation request.
type Decision struct {
	ApprovalID string
	Confirmed  bool
}

// NewConfirmationResponse builds the user message that answers the
// confirmation request with the given approval ID.
func NewConfirmationResponse(approvalID string, confirmed bool) *Content {
	return &Content{
		Role: ai.RoleUser,
		Parts: []Part{{
			FunctionResponse: &FunctionResponse{
				ID:       approvalID,
				Name:     RequestConfirmation,
				Response: map[string]any{keyConfirmed: confirmed},
			},
		}},
	}
}

// Decisions extracts the confirmation decisions from a message. Responses
// without an ID or without a boolean "confirmed" field are ignored.
func (c *Content) Decisions() []Decision {
	if c == nil {
		return nil
	}
	var decisions []Decision
	for _, p := range c.Parts {
		resp := p.FunctionResponse
		if resp == nil || resp.Name != RequestConfirmation || resp.ID == "" {
			continue
		}
		confirmed, ok := resp.Response[keyConfirmed].(bool)
		if !ok {
			continue
		}
		decisions = append(decisions, Decision{ApprovalID: resp.ID, Confirmed: confirmed})
	}
	return decisions
}
