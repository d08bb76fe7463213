// Package event defines the events an invocation streams to its caller.
//
// An Event is polymorphic by content rather than by type: any event may carry
// text, function calls (the model asking for a tool) and function responses
// (tool results). Callers ask an event what it has instead of switching on a
// concrete type:
//
//	for ev := range events {
//	    if ev.Err != nil {
//	        return ev.Err
//	    }
//	    if ev.HasText() {
//	        fmt.Println(ev.Text())
//	    }
//	    for _, req := range ev.ConfirmationRequests() {
//	        // the invocation paused waiting for req.ApprovalID
//	    }
//	}
package event

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	ai "github.com/spetersoncode/pausable"
)

// FunctionCall is a request to run a named function with arguments.
type FunctionCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// FunctionResponse is the result of a function call, matched by ID.
type FunctionResponse struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Response map[string]any `json:"response,omitempty"`
}

// Part is one piece of content. Exactly one field is set.
type Part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

// Content is a message made of parts, attributed to a role.
type Content struct {
	Role  ai.Role `json:"role"`
	Parts []Part  `json:"parts"`
}

// NewTextContent creates single-part text content.
func NewTextContent(role ai.Role, text string) *Content {
	return &Content{Role: role, Parts: []Part{{Text: text}}}
}

// NewUserMessage creates a user text message.
func NewUserMessage(text string) *Content {
	return NewTextContent(ai.RoleUser, text)
}

// Event is one observable step of an invocation.
type Event struct {
	ID           string   `json:"id"`
	InvocationID string   `json:"invocationId"`
	Author       string   `json:"author"`
	Content      *Content `json:"content,omitempty"`
	// LongRunningToolIDs lists function call IDs that stay open after the
	// event, such as pending confirmation requests.
	LongRunningToolIDs []string  `json:"longRunningToolIds,omitempty"`
	Usage              *ai.Usage `json:"usage,omitempty"`
	// Err is set on the final event of a stream that failed.
	Err       error     `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

// New creates an event with a fresh ID and the current time.
func New(invocationID, author string, content *Content) Event {
	return Event{
		ID:           "ev-" + uuid.NewString(),
		InvocationID: invocationID,
		Author:       author,
		Content:      content,
		Timestamp:    time.Now(),
	}
}

// NewError creates the terminal error event of a stream.
func NewError(invocationID, author string, err error) Event {
	e := New(invocationID, author, nil)
	e.Err = err
	return e
}

func (e Event) parts() []Part {
	if e.Content == nil {
		return nil
	}
	return e.Content.Parts
}

// HasText reports whether any part carries non-empty text.
func (e Event) HasText() bool {
	for _, p := range e.parts() {
		if p.Text != "" {
			return true
		}
	}
	return false
}

// Text returns the concatenated text parts.
func (e Event) Text() string {
	var sb strings.Builder
	for _, p := range e.parts() {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// FunctionCalls returns the function calls carried by the event.
func (e Event) FunctionCalls() []FunctionCall {
	var calls []FunctionCall
	for _, p := range e.parts() {
		if p.FunctionCall != nil {
			calls = append(calls, *p.FunctionCall)
		}
	}
	return calls
}

// FunctionResponses returns the function responses carried by the event.
func (e Event) FunctionResponses() []FunctionResponse {
	var responses []FunctionResponse
	for _, p := range e.parts() {
		if p.FunctionResponse != nil {
			responses = append(responses, *p.FunctionResponse)
		}
	}
	return responses
}

// HasFunctionCall reports whether the event carries at least one function call.
func (e Event) HasFunctionCall() bool { return len(e.FunctionCalls()) > 0 }

// HasFunctionResponse reports whether the event carries at least one function response.
func (e Event) HasFunctionResponse() bool { return len(e.FunctionResponses()) > 0 }

// IsFinalResponse reports whether the event is a model answer that ends a turn:
// text without function traffic or open long-running calls.
func (e Event) IsFinalResponse() bool {
	return e.Err == nil && e.HasText() && !e.HasFunctionCall() && !e.HasFunctionResponse() && len(e.LongRunningToolIDs) == 0
}

// Send delivers e on ch, blocking until it is received or ctx is done.
// It reports whether the event was delivered.
func Send(ctx context.Context, ch chan<- Event, e Event) bool {
	select {
	case ch <- e:
		return true
	case <-ctx.Done():
		return false
	}
}

// NewChannel creates a buffered event channel with standard capacity.
func NewChannel() chan Event {
	return make(chan Event, 100)
}
