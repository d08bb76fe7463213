package agui

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"github.com/spetersoncode/pausable/event"
)

// RunAgentInput is the AG-UI request to run an agent.
type RunAgentInput struct {
	ThreadID       string           `json:"thread_id"`
	RunID          string           `json:"run_id"`
	Messages       []events.Message `json:"messages"`
	State          any              `json:"state,omitempty"`
	ForwardedProps any              `json:"forwarded_props,omitempty"`
}

// PreparedInput is the last message of a run request in runner form.
type PreparedInput struct {
	ThreadID string
	RunID    string
	Content  *event.Content
	// Decisions is non-empty when the message answers a confirmation request.
	Decisions []event.Decision
}

var (
	// ErrNoMessages is returned when the input contains no messages.
	ErrNoMessages = errors.New("no messages provided")
	// ErrUnsupportedMessage is returned when the last message is neither user
	// text nor a confirmation answer.
	ErrUnsupportedMessage = errors.New("last message must be user text or a confirmation result")
)

// Prepare converts the last message of the request. A tool message whose
// content is {"confirmed": bool} becomes a decision; a user message becomes
// a new turn.
func (r *RunAgentInput) Prepare() (*PreparedInput, error) {
	if len(r.Messages) == 0 {
		return nil, ErrNoMessages
	}
	last := r.Messages[len(r.Messages)-1]

	content, err := toContent(last)
	if err != nil {
		return nil, err
	}
	return &PreparedInput{
		ThreadID:  r.ThreadID,
		RunID:     r.RunID,
		Content:   content,
		Decisions: content.Decisions(),
	}, nil
}

func toContent(msg events.Message) (*event.Content, error) {
	text := ""
	if msg.Content != nil {
		text = *msg.Content
	}

	switch msg.Role {
	case "user":
		if text == "" {
			return nil, fmt.Errorf("%w: empty user message", ErrUnsupportedMessage)
		}
		return event.NewUserMessage(text), nil
	case "tool":
		if msg.ToolCallID == nil || *msg.ToolCallID == "" {
			return nil, fmt.Errorf("%w: tool message without tool call id", ErrUnsupportedMessage)
		}
		var answer struct {
			Confirmed *bool `json:"confirmed"`
		}
		if err := json.Unmarshal([]byte(text), &answer); err != nil || answer.Confirmed == nil {
			return nil, fmt.Errorf("%w: tool result must be {\"confirmed\": bool}", ErrUnsupportedMessage)
		}
		return event.NewConfirmationResponse(*msg.ToolCallID, *answer.Confirmed), nil
	}
	return nil, fmt.Errorf("%w: role %q", ErrUnsupportedMessage, msg.Role)
}
