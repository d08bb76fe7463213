// Package agui maps runner events to the AG-UI protocol.
//
// AG-UI (Agent-User Interface) is an event-based protocol that connects agents
// to user-facing applications. This package converts the event stream of a
// runner invocation into AG-UI events and parses AG-UI run input, including
// approval decisions, back into runner messages.
//
// # Usage
//
// Create a Mapper for each run and stream the mapped events:
//
//	mapper := agui.NewMapper(threadID, runID)
//	for ev := range mapper.MapStream(runnerEvents) {
//	    writeSSE(w, ev)
//	}
//
// # Event Mapping
//
//   - agent text → TEXT_MESSAGE_START, TEXT_MESSAGE_CONTENT, TEXT_MESSAGE_END
//   - function call → TOOL_CALL_START, TOOL_CALL_ARGS, TOOL_CALL_END
//   - function response → TOOL_CALL_RESULT
//   - event with Err → RUN_ERROR
//
// A confirmation request is an ordinary tool call named request_confirmation
// whose id is the approval id. The frontend answers it with a tool message
// carrying {"confirmed": true|false}, which [RunAgentInput.Prepare] turns
// into the decision message the runner resumes with.
//
// The Mapper is not safe for concurrent use.
package agui
