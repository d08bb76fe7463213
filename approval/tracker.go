package approval

import (
	"sync"

	"github.com/google/uuid"
	ai "github.com/spetersoncode/pausable"
)

// Token is the resume token of a suspended request: the invocation to resume
// and the approval the decision must name.
type Token struct {
	InvocationID string `json:"invocationId"`
	ApprovalID   string `json:"approvalId"`
}

type entry struct {
	descriptor Descriptor
	state      State
}

// Tracker records the approval state of suspended invocations, keyed by
// invocation id. It is safe for concurrent use; invocations never share state.
type Tracker struct {
	mu          sync.Mutex
	invocations map[string][]*entry
	newID       func() string
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		invocations: make(map[string][]*entry),
		newID:       func() string { return "appr-" + uuid.NewString() },
	}
}

func (t *Tracker) find(invocationID, approvalID string) *entry {
	for _, e := range t.invocations[invocationID] {
		if e.descriptor.ID == approvalID {
			return e
		}
	}
	return nil
}

// Suspend registers d as pending for the invocation and returns its resume
// token. An approval id is generated when d.ID is empty.
func (t *Tracker) Suspend(invocationID string, d Descriptor) (Token, error) {
	if invocationID == "" {
		return Token{}, &ai.CorrelationError{ApprovalID: d.ID, Reason: "cannot suspend without an invocation id"}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if d.ID == "" {
		d.ID = t.newID()
	}
	if t.find(invocationID, d.ID) != nil {
		return Token{}, &ai.CorrelationError{InvocationID: invocationID, ApprovalID: d.ID, Reason: "approval already registered"}
	}
	t.invocations[invocationID] = append(t.invocations[invocationID], &entry{descriptor: d, state: StatePending})
	return Token{InvocationID: invocationID, ApprovalID: d.ID}, nil
}

// Decide records the decision for a pending approval and returns the decided
// confirmation to feed back into the controller. Each approval can be decided
// once.
func (t *Tracker) Decide(invocationID, approvalID string, approved bool) (Confirmation, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.invocations[invocationID]; !ok {
		return Confirmation{}, &ai.CorrelationError{InvocationID: invocationID, ApprovalID: approvalID, Reason: "no suspended invocation"}
	}
	e := t.find(invocationID, approvalID)
	if e == nil {
		return Confirmation{}, &ai.CorrelationError{InvocationID: invocationID, ApprovalID: approvalID, Reason: "approval does not belong to invocation"}
	}
	if e.state != StatePending {
		return Confirmation{}, &ai.CorrelationError{InvocationID: invocationID, ApprovalID: approvalID, Reason: "approval already " + string(e.state)}
	}

	conf := Decided(approvalID, approved)
	e.state = conf.State()
	return conf, nil
}

// State returns the state of one approval. Unknown approvals are unstarted.
func (t *Tracker) State(invocationID, approvalID string) State {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e := t.find(invocationID, approvalID); e != nil {
		return e.state
	}
	return StateUnstarted
}

// Descriptor returns the descriptor registered under approvalID.
func (t *Tracker) Descriptor(invocationID, approvalID string) (Descriptor, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e := t.find(invocationID, approvalID); e != nil {
		return e.descriptor, true
	}
	return Descriptor{}, false
}

// Pending returns the still-pending descriptors of an invocation in the
// order they were suspended.
func (t *Tracker) Pending(invocationID string) []Descriptor {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []Descriptor
	for _, e := range t.invocations[invocationID] {
		if e.state == StatePending {
			out = append(out, e.descriptor)
		}
	}
	return out
}

// Forget discards everything recorded for an invocation once its outcome is terminal.
func (t *Tracker) Forget(invocationID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.invocations, invocationID)
}
