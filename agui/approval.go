package agui

import (
	"encoding/json"
	"errors"

	"github.com/spetersoncode/pausable/event"
)

// ApprovalInput is an approval decision posted by the frontend outside the
// message list.
type ApprovalInput struct {
	ApprovalID string `json:"approvalId"`
	Approved   bool   `json:"approved"`
}

// ErrNoApprovalID is returned for decisions that name no approval.
var ErrNoApprovalID = errors.New("agui: approval id is required")

// ParseApprovalInput parses an approval decision from JSON.
func ParseApprovalInput(data []byte) (*ApprovalInput, error) {
	var input ApprovalInput
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, err
	}
	if input.ApprovalID == "" {
		return nil, ErrNoApprovalID
	}
	return &input, nil
}

// ToContent converts the decision to the message the runner resumes with.
func (a *ApprovalInput) ToContent() *event.Content {
	return event.NewConfirmationResponse(a.ApprovalID, a.Approved)
}
