package approval

import (
	"fmt"
	"strings"
)

// Path names how an approved request got its approval.
type Path string

const (
	PathAuto  Path = "auto"
	PathHuman Path = "human"
)

// OrderIDs generates the identifier of an approved request.
// Implementations must be deterministic: the same request and path always
// produce the same identifier.
type OrderIDs interface {
	OrderID(req Request, path Path) string
}

// OrderIDFunc adapts a function to OrderIDs.
type OrderIDFunc func(req Request, path Path) string

// OrderID calls f.
func (f OrderIDFunc) OrderID(req Request, path Path) string { return f(req, path) }

// DefaultOrderIDs yields ORD-<quantity>-AUTO and ORD-<quantity>-HUMAN.
var DefaultOrderIDs OrderIDs = OrderIDFunc(func(req Request, path Path) string {
	return fmt.Sprintf("ORD-%d-%s", req.Quantity, strings.ToUpper(string(path)))
})
