package approval

// State is the lifecycle position of one approval.
type State string

const (
	StateUnstarted State = "unstarted"
	StatePending   State = "pending"
	StateApproved  State = "approved"
	StateRejected  State = "rejected"
)

// Decided reports whether s is a terminal decision.
func (s State) Decided() bool {
	return s == StateApproved || s == StateRejected
}

// Confirmation is the confirmation state attached to one in-flight evaluation:
// absent, pending, or decided. The zero value is absent.
type Confirmation struct {
	state      State
	approvalID string
}

// Absent is the state of a request that has never asked for confirmation.
func Absent() Confirmation {
	return Confirmation{state: StateUnstarted}
}

// Pending is the state of a request waiting on the decision for approvalID.
func Pending(approvalID string) Confirmation {
	return Confirmation{state: StatePending, approvalID: approvalID}
}

// Decided is the state after the decision for approvalID arrived.
func Decided(approvalID string, approved bool) Confirmation {
	state := StateRejected
	if approved {
		state = StateApproved
	}
	return Confirmation{state: state, approvalID: approvalID}
}

// State returns the lifecycle state.
func (c Confirmation) State() State {
	if c.state == "" {
		return StateUnstarted
	}
	return c.state
}

// ApprovalID returns the approval the state belongs to, empty when absent.
func (c Confirmation) ApprovalID() string { return c.approvalID }

// IsAbsent reports whether confirmation was never requested.
func (c Confirmation) IsAbsent() bool { return c.State() == StateUnstarted }

// IsDecided reports whether a decision has been recorded.
func (c Confirmation) IsDecided() bool { return c.State().Decided() }

// Approved reports whether the recorded decision was an approval.
func (c Confirmation) Approved() bool { return c.state == StateApproved }
