package approval

import (
	"strings"

	ai "github.com/spetersoncode/pausable"
)

// Request is the caller's intent: a quantity of units bound for a destination.
type Request struct {
	Quantity    int
	Destination string
}

// Validate rejects requests no policy can evaluate.
func (r Request) Validate() error {
	if r.Quantity < 1 {
		return ai.NewUserInputError("approval: quantity must be at least 1", 0, nil)
	}
	if strings.TrimSpace(r.Destination) == "" {
		return ai.NewUserInputError("approval: destination is required", 0, nil)
	}
	return nil
}

// Payload is the machine-readable echo of the request carried by a Descriptor.
func (r Request) Payload() map[string]any {
	return map[string]any{
		"num_containers": r.Quantity,
		"destination":    r.Destination,
	}
}
