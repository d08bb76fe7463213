// Package runner drives agent invocations that can pause for human
// confirmation and resume later.
//
// An invocation alternates model steps and tool calls until the model answers
// without calling tools. When a tool asks for confirmation through its
// tool.Context, the runner suspends the invocation: it stores a snapshot in
// the session, registers the pending approval with its approval.Tracker, emits
// a request_confirmation function call carrying the approval id, and closes
// the event stream. Resume feeds the human decision back, re-runs the
// original tool call with the decided confirmation and continues the loop
// under the same invocation id.
//
//	events, err := r.Run(ctx, "test_user", sessionID, event.NewUserMessage("Ship 10 containers to Rotterdam"))
//	...
//	for ev := range events {
//	    for _, req := range ev.ConfirmationRequests() {
//	        resp := event.NewConfirmationResponse(req.ApprovalID, true)
//	        events, err = r.Resume(ctx, "test_user", sessionID, req.InvocationID, resp)
//	    }
//	}
package runner
