package approval

import (
	"fmt"

	ai "github.com/spetersoncode/pausable"
)

// DefaultThreshold is the largest quantity approved without human review.
const DefaultThreshold = 5

// Controller applies the approval policy. It is safe for concurrent use; its
// configuration is read-only after construction.
type Controller struct {
	threshold int
	ids       OrderIDs
}

// Option configures a Controller.
type Option func(*Controller)

// WithOrderIDs replaces the order identifier strategy.
func WithOrderIDs(ids OrderIDs) Option {
	return func(c *Controller) {
		if ids != nil {
			c.ids = ids
		}
	}
}

// NewController creates a controller that auto-approves quantities up to threshold.
func NewController(threshold int, opts ...Option) *Controller {
	c := &Controller{threshold: threshold, ids: DefaultOrderIDs}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Threshold returns the auto-approval cutoff.
func (c *Controller) Threshold() int { return c.threshold }

// RequiresApproval reports whether req needs a human decision.
func (c *Controller) RequiresApproval(req Request) bool {
	return req.Quantity > c.threshold
}

// Evaluate applies the policy to req given its confirmation state.
//
// Only protocol violations are errors: a confirmation that is still pending,
// or a decision that never went through pending (no approval id), yields a
// *pausable.PolicyViolation. Needing approval is a normal pending outcome.
func (c *Controller) Evaluate(req Request, conf Confirmation) (Outcome, error) {
	if err := req.Validate(); err != nil {
		return Outcome{}, err
	}

	if !c.RequiresApproval(req) {
		return Outcome{
			Status:  StatusApproved,
			OrderID: c.ids.OrderID(req, PathAuto),
			Message: fmt.Sprintf("Order auto-approved: %d containers to %s", req.Quantity, req.Destination),
		}, nil
	}

	switch conf.State() {
	case StateUnstarted:
		return Outcome{
			Status:  StatusPending,
			Message: fmt.Sprintf("Order for %d containers requires approval", req.Quantity),
			Descriptor: &Descriptor{
				Hint:    fmt.Sprintf("Large order: %d containers to %s. Do you want to approve?", req.Quantity, req.Destination),
				Payload: req.Payload(),
			},
		}, nil
	case StatePending:
		return Outcome{}, &ai.PolicyViolation{Msg: fmt.Sprintf("approval %q is still pending", conf.ApprovalID())}
	}

	if conf.ApprovalID() == "" {
		return Outcome{}, &ai.PolicyViolation{Msg: "decision recorded for a request that was never suspended"}
	}
	if conf.Approved() {
		return Outcome{
			Status:  StatusApproved,
			OrderID: c.ids.OrderID(req, PathHuman),
			Message: fmt.Sprintf("Order approved: %d containers to %s", req.Quantity, req.Destination),
		}, nil
	}
	return Outcome{
		Status:  StatusRejected,
		Message: fmt.Sprintf("Order rejected: %d containers to %s", req.Quantity, req.Destination),
	}, nil
}
