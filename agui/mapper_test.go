package agui

import (
	"errors"
	"testing"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	ai "github.com/spetersoncode/pausable"
	"github.com/spetersoncode/pausable/event"
)

func types(evs []events.Event) []events.EventType {
	out := make([]events.EventType, len(evs))
	for i, ev := range evs {
		out[i] = ev.Type()
	}
	return out
}

func assertTypes(t *testing.T, got []events.EventType, want ...events.EventType) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d events %v, got %d: %v", len(want), want, len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestNewMapper(t *testing.T) {
	m := NewMapper("thread-123", "run-456")
	if m.ThreadID() != "thread-123" || m.RunID() != "run-456" {
		t.Errorf("unexpected ids %q %q", m.ThreadID(), m.RunID())
	}

	generated := NewMapper("", "")
	if generated.ThreadID() == "" || generated.RunID() == "" {
		t.Error("expected generated ids")
	}
}

func TestMapEvent(t *testing.T) {
	m := NewMapper("thread-1", "run-1")
	confirm := event.NewConfirmationCall("appr-1", event.FunctionCall{ID: "call_1", Name: "place_shipping_order"}, "approve?", nil)

	tests := []struct {
		name string
		ev   event.Event
		want []events.EventType
	}{
		{
			name: "user echo",
			ev:   event.New("e-1", "user", event.NewUserMessage("hi")),
		},
		{
			name: "agent text",
			ev:   event.New("e-1", "shipping_agent", event.NewTextContent(ai.RoleAssistant, "Done")),
			want: []events.EventType{events.EventTypeTextMessageStart, events.EventTypeTextMessageContent, events.EventTypeTextMessageEnd},
		},
		{
			name: "confirmation request",
			ev: event.New("e-1", "shipping_agent", &event.Content{
				Role:  ai.RoleAssistant,
				Parts: []event.Part{{FunctionCall: &confirm}},
			}),
			want: []events.EventType{events.EventTypeToolCallStart, events.EventTypeToolCallArgs, events.EventTypeToolCallEnd},
		},
		{
			name: "function response",
			ev: event.New("e-1", "shipping_agent", &event.Content{
				Role: ai.RoleTool,
				Parts: []event.Part{{FunctionResponse: &event.FunctionResponse{
					ID: "call_1", Name: "place_shipping_order", Response: map[string]any{"status": "approved"},
				}}},
			}),
			want: []events.EventType{events.EventTypeToolCallResult},
		},
		{
			name: "error",
			ev:   event.NewError("e-1", "shipping_agent", errors.New("boom")),
			want: []events.EventType{events.EventTypeRunError},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertTypes(t, types(m.MapEvent(tt.ev)), tt.want...)
		})
	}
}

func TestMapStream(t *testing.T) {
	m := NewMapper("thread-1", "run-1")

	t.Run("wraps run lifecycle", func(t *testing.T) {
		input := make(chan event.Event, 3)
		input <- event.New("e-1", "user", event.NewUserMessage("hi"))
		input <- event.New("e-1", "agent", event.NewTextContent(ai.RoleAssistant, "Hello"))
		close(input)

		var got []events.EventType
		for ev := range m.MapStream(input) {
			got = append(got, ev.Type())
		}
		assertTypes(t, got,
			events.EventTypeRunStarted,
			events.EventTypeTextMessageStart,
			events.EventTypeTextMessageContent,
			events.EventTypeTextMessageEnd,
			events.EventTypeRunFinished,
		)
	})

	t.Run("error replaces run finished", func(t *testing.T) {
		input := make(chan event.Event, 1)
		input <- event.NewError("e-1", "agent", errors.New("boom"))
		close(input)

		var got []events.EventType
		for ev := range m.MapStream(input) {
			got = append(got, ev.Type())
		}
		assertTypes(t, got, events.EventTypeRunStarted, events.EventTypeRunError)
	})
}
