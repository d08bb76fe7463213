package approval

// Status is the result class of an evaluation.
type Status string

const (
	StatusApproved Status = "approved"
	StatusPending  Status = "pending"
	StatusRejected Status = "rejected"
)

// Descriptor is the approval request emitted when an evaluation suspends.
type Descriptor struct {
	// ID is the approval id that routes the decision back. The controller
	// leaves it empty; the Tracker assigns it when the invocation suspends.
	ID      string         `json:"id,omitempty"`
	Hint    string         `json:"hint"`
	Payload map[string]any `json:"payload"`
}

// Outcome is the result of one evaluation.
type Outcome struct {
	Status  Status `json:"status"`
	OrderID string `json:"order_id,omitempty"`
	Message string `json:"message"`
	// Descriptor is set only on pending outcomes.
	Descriptor *Descriptor `json:"-"`
}

// Terminal reports whether the outcome is final (approved or rejected).
func (o Outcome) Terminal() bool {
	return o.Status == StatusApproved || o.Status == StatusRejected
}
