package agui

import (
	"encoding/json"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"github.com/spetersoncode/pausable/event"
	"github.com/spetersoncode/pausable/runner"
)

// RoleAssistant is the AG-UI role of agent messages.
const RoleAssistant = "assistant"

// Mapper converts runner events to AG-UI events.
type Mapper struct {
	threadID string
	runID    string
}

// NewMapper creates a Mapper for a single run, generating missing IDs.
func NewMapper(threadID, runID string) *Mapper {
	if threadID == "" {
		threadID = events.GenerateThreadID()
	}
	if runID == "" {
		runID = events.GenerateRunID()
	}
	return &Mapper{
		threadID: threadID,
		runID:    runID,
	}
}

// ThreadID returns the thread ID for this mapper.
func (m *Mapper) ThreadID() string {
	return m.threadID
}

// RunID returns the run ID for this mapper.
func (m *Mapper) RunID() string {
	return m.runID
}

// RunStarted returns a RUN_STARTED event.
func (m *Mapper) RunStarted() events.Event {
	return events.NewRunStartedEvent(m.threadID, m.runID)
}

// RunFinished returns a RUN_FINISHED event.
func (m *Mapper) RunFinished() events.Event {
	return events.NewRunFinishedEvent(m.threadID, m.runID)
}

// RunError returns a RUN_ERROR event.
func (m *Mapper) RunError(err error) events.Event {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return events.NewRunErrorEvent(msg)
}

// MapEvent converts one runner event. User events are input echoes and map
// to nothing.
func (m *Mapper) MapEvent(e event.Event) []events.Event {
	if e.Err != nil {
		return []events.Event{m.RunError(e.Err)}
	}
	if e.Author == runner.UserAuthor || e.Content == nil {
		return nil
	}

	var out []events.Event
	if e.HasText() {
		out = append(out,
			events.NewTextMessageStartEvent(e.ID, events.WithRole(RoleAssistant)),
			events.NewTextMessageContentEvent(e.ID, e.Text()),
			events.NewTextMessageEndEvent(e.ID),
		)
	}
	for _, call := range e.FunctionCalls() {
		out = append(out,
			events.NewToolCallStartEvent(call.ID, call.Name),
			events.NewToolCallArgsEvent(call.ID, marshal(call.Args)),
			events.NewToolCallEndEvent(call.ID),
		)
	}
	for _, resp := range e.FunctionResponses() {
		out = append(out, events.NewToolCallResultEvent(events.GenerateMessageID(), resp.ID, marshal(resp.Response)))
	}
	return out
}

// MapStream wraps a runner event stream in RUN_STARTED and RUN_FINISHED, or
// RUN_ERROR if the stream failed. The output closes when input closes.
func (m *Mapper) MapStream(input <-chan event.Event) <-chan events.Event {
	output := make(chan events.Event, 100)
	go func() {
		defer close(output)
		output <- m.RunStarted()
		failed := false
		for e := range input {
			failed = failed || e.Err != nil
			for _, ev := range m.MapEvent(e) {
				output <- ev
			}
		}
		if !failed {
			output <- m.RunFinished()
		}
	}()
	return output
}

func marshal(v map[string]any) string {
	if v == nil {
		return "{}"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
