// Package approval decides whether an operation may proceed on its own or
// needs human sign-off, and tracks the sign-off until it is decided.
//
// # Controller
//
// [Controller.Evaluate] is a pure function of an operation [Request] and its
// [Confirmation] state. Requests at or below the threshold are approved
// immediately. Larger requests are evaluated twice under the same invocation:
// first with an absent confirmation, which yields a pending [Outcome] carrying
// a [Descriptor], and again after the decision has been recorded:
//
//	ctrl := approval.NewController(approval.DefaultThreshold)
//
//	out, _ := ctrl.Evaluate(req, approval.Absent())
//	// out.Status == approval.StatusPending, out.Descriptor != nil
//
//	out, _ = ctrl.Evaluate(req, approval.Decided(approvalID, true))
//	// out.Status == approval.StatusApproved, out.OrderID == "ORD-10-HUMAN"
//
// The controller keeps no memory between the two calls. Everything it needs
// is passed back in by the caller.
//
// # Tracker
//
// [Tracker] is the explicit state machine behind the pause: for each
// invocation it records which approvals are pending and moves each one to
// approved or rejected exactly once. Decisions that do not match a pending
// approval of the named invocation fail with a [pausable.CorrelationError].
package approval
