// Package session stores conversations and the suspended invocations that
// belong to them.
//
// A Session is the append-only event log of one conversation. When an
// invocation pauses for human confirmation, the runner saves an Invocation
// snapshot (model history plus the tool calls awaiting a decision) next to
// the session so a later resume can continue exactly where it stopped.
package session

import (
	"time"

	ai "github.com/spetersoncode/pausable"
	"github.com/spetersoncode/pausable/event"
)

// Session is one conversation of a user with an app.
type Session struct {
	ID        string         `json:"id"`
	AppName   string         `json:"appName"`
	UserID    string         `json:"userId"`
	Events    []event.Event  `json:"events"`
	State     map[string]any `json:"state,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// LastEvent returns the most recent event, if any.
func (s *Session) LastEvent() (event.Event, bool) {
	if len(s.Events) == 0 {
		return event.Event{}, false
	}
	return s.Events[len(s.Events)-1], true
}

// PendingCall is a tool call waiting for a human decision.
type PendingCall struct {
	ApprovalID string         `json:"approvalId"`
	Call       ai.ToolCall    `json:"call"`
	Hint       string         `json:"hint"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// Invocation is the snapshot of a suspended invocation.
type Invocation struct {
	ID        string        `json:"id"`
	SessionID string        `json:"sessionId"`
	Agent     string        `json:"agent"`
	History   []ai.Message  `json:"history"`
	Pending   []PendingCall `json:"pending"`
	// Completed holds results of calls from the suspended step that did
	// not need a decision.
	Completed []ai.ToolResult `json:"completed,omitempty"`
	Steps     int             `json:"steps"`
	Usage     ai.Usage        `json:"usage"`
	CreatedAt time.Time       `json:"createdAt"`
}

// PendingCall returns the pending call with the given approval id.
func (inv *Invocation) PendingCall(approvalID string) (PendingCall, bool) {
	for _, p := range inv.Pending {
		if p.ApprovalID == approvalID {
			return p, true
		}
	}
	return PendingCall{}, false
}
