package tool

import (
	"context"
	"errors"
	"sync"

	"github.com/spetersoncode/pausable/approval"
)

// Context is the per-call state the runner hands a tool handler.
type Context struct {
	InvocationID   string
	FunctionCallID string

	mu           sync.Mutex
	confirmation approval.Confirmation
	requested    *approval.Descriptor
}

type contextKey struct{}

// NewContext creates the call context for one tool call.
func NewContext(invocationID, functionCallID string, conf approval.Confirmation) *Context {
	return &Context{
		InvocationID:   invocationID,
		FunctionCallID: functionCallID,
		confirmation:   conf,
	}
}

// WithContext returns a copy of ctx carrying tc.
func WithContext(ctx context.Context, tc *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, tc)
}

// FromContext returns the call context stored in ctx, if any.
func FromContext(ctx context.Context) (*Context, bool) {
	tc, ok := ctx.Value(contextKey{}).(*Context)
	return tc, ok && tc != nil
}

// Confirmation returns the confirmation state of the call: absent on the
// first run, decided when the call is re-run after a human decision.
func (c *Context) Confirmation() approval.Confirmation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confirmation
}

// RequestConfirmation asks for a human decision on the call. At most one
// request may be made per call, and only while no decision exists.
func (c *Context) RequestConfirmation(d approval.Descriptor) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.confirmation.IsAbsent() {
		return errors.New("tool: confirmation already decided for this call")
	}
	if c.requested != nil {
		return errors.New("tool: confirmation already requested for this call")
	}
	c.requested = &d
	return nil
}

// RequestedConfirmation returns the descriptor passed to RequestConfirmation.
func (c *Context) RequestedConfirmation() (approval.Descriptor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.requested == nil {
		return approval.Descriptor{}, false
	}
	return *c.requested, true
}
