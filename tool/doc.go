// Package tool provides the tool registry an agent exposes to the model.
//
// Tools are registered with a handler. Typed handlers get their JSON schema
// generated from struct tags:
//
//	type OrderArgs struct {
//	    NumContainers int    `json:"num_containers" desc:"Number of containers" required:"true"`
//	    Destination   string `json:"destination" desc:"Destination port" required:"true"`
//	}
//
//	registry := tool.NewRegistry().Add(
//	    tool.Func("place_order", "Place an order",
//	        func(ctx context.Context, args OrderArgs) (string, error) {
//	            return placeOrder(ctx, args)
//	        }),
//	)
//
// # Confirmation
//
// A handler run by the runner finds a per-call *Context in its context.
// The Context exposes the confirmation state of the call and lets the handler
// ask for human confirmation:
//
//	tc, ok := tool.FromContext(ctx)
//	if ok && tc.Confirmation().IsAbsent() {
//	    return "", tc.RequestConfirmation(descriptor)
//	}
//
// Requesting confirmation does not block. The runner suspends the invocation
// after the handler returns and re-runs the same call, with a decided
// confirmation, when the decision arrives.
package tool
