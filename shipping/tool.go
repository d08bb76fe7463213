package shipping

import (
	"context"
	"errors"

	"github.com/spetersoncode/pausable/approval"
	"github.com/spetersoncode/pausable/tool"
)

// ToolName is the name the model calls the order tool by.
const ToolName = "place_shipping_order"

// ToolDescription is shown to the model.
const ToolDescription = "Places a shipping order. Requires approval if ordering more than 5 containers."

// OrderArgs are the arguments of place_shipping_order.
type OrderArgs struct {
	NumContainers int    `json:"num_containers" desc:"Number of containers to ship" required:"true"`
	Destination   string `json:"destination" desc:"Shipping destination" required:"true"`
}

// Result is the order record returned to the model.
type Result struct {
	Status        string `json:"status"`
	OrderID       string `json:"order_id,omitempty"`
	NumContainers int    `json:"num_containers,omitempty"`
	Destination   string `json:"destination,omitempty"`
	Message       string `json:"message"`
}

// ErrNoConfirmationHandle is returned when a large order is placed outside an
// invocation that can pause for approval.
var ErrNoConfirmationHandle = errors.New("shipping: order requires approval but the call has no confirmation handle")

// Service places orders through the approval controller.
type Service struct {
	controller *approval.Controller
}

// NewService creates the order service.
func NewService(controller *approval.Controller) *Service {
	return &Service{controller: controller}
}

// PlaceOrder evaluates the order against the confirmation state of the
// current tool call. A large order on its first run requests confirmation
// and reports pending; the re-run after the decision reports the outcome.
func (s *Service) PlaceOrder(ctx context.Context, args OrderArgs) (Result, error) {
	req := approval.Request{Quantity: args.NumContainers, Destination: args.Destination}

	conf := approval.Absent()
	tc, ok := tool.FromContext(ctx)
	if ok {
		conf = tc.Confirmation()
	}

	out, err := s.controller.Evaluate(req, conf)
	if err != nil {
		return Result{}, err
	}
	if out.Descriptor != nil {
		if !ok {
			return Result{}, ErrNoConfirmationHandle
		}
		if err := tc.RequestConfirmation(*out.Descriptor); err != nil {
			return Result{}, err
		}
	}

	res := Result{Status: string(out.Status), OrderID: out.OrderID, Message: out.Message}
	if out.Status == approval.StatusApproved {
		res.NumContainers = args.NumContainers
		res.Destination = args.Destination
	}
	return res, nil
}

// Register adds place_shipping_order to the registry.
func Register(registry *tool.Registry, svc *Service) error {
	return tool.RegisterFunc(registry, ToolName, ToolDescription,
		func(ctx context.Context, args OrderArgs) (string, error) {
			res, err := svc.PlaceOrder(ctx, args)
			if err != nil {
				return "", err
			}
			return tool.JSON(res)
		})
}
