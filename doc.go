// Package pausable provides the shared types for agent invocations that can
// pause for human approval and later resume where they stopped.
//
// The root package holds the value types every other package speaks: chat
// [Message] and [Response], [Tool] definitions and [ToolCall] requests,
// functional [Option] values for chat requests, the [ChatProvider] interface
// implemented by the model backends, and the categorized error model.
//
// # Packages
//
//   - [github.com/spetersoncode/pausable/approval]: the approval-gated
//     operation controller and the confirmation state machine
//   - [github.com/spetersoncode/pausable/runner]: starts invocations, pauses
//     them on confirmation requests and resumes them by invocation id
//   - [github.com/spetersoncode/pausable/shipping]: the shipping order tool and
//     the start/approve/resume workflow built on the runner
//   - [github.com/spetersoncode/pausable/client]: provider-selecting chat client
//     with retry and backoff
//   - [github.com/spetersoncode/pausable/mcp]: bridge to Model Context Protocol
//     tool servers
//
// # Errors
//
// Backend failures are [CategorizedError] values. Transient errors (rate
// limits, overloaded servers) are retried by the client; permanent and user
// input errors are returned immediately:
//
//	resp, err := c.Chat(ctx, messages)
//	if pausable.IsTransient(err) {
//	    // retries were exhausted
//	}
//
// Protocol failures use typed errors that match sentinels with errors.Is:
//
//	events, err := r.Resume(ctx, user, session, invocationID, decision)
//	if errors.Is(err, pausable.ErrCorrelation) {
//	    // no suspended invocation matches the decision
//	}
//
// [ConfigurationError] is returned at startup for missing credentials and
// [PolicyViolation] for confirmation states the approval policy never issues.
//
// # Tool Schemas
//
// [SchemaFor] derives a tool's JSON Schema from a parameters struct:
//
//	type OrderArgs struct {
//	    NumContainers int    `json:"num_containers" desc:"Number of containers" required:"true"`
//	    Destination   string `json:"destination" desc:"Destination port" required:"true"`
//	}
//
//	schema := pausable.SchemaFor[OrderArgs]()
package pausable
