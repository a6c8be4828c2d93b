package orders

import (
	"github.com/brewbar/bubbletea-backend/pkg/enums"
	pkgerrors "github.com/brewbar/bubbletea-backend/pkg/errors"
)

// StatusPolicy decides which status changes an admin may make. The lenient
// policy accepts any known status; the strict one walks the lifecycle one
// step at a time.
type StatusPolicy struct {
	Strict bool
}

var forward = map[enums.OrderStatus]enums.OrderStatus{
	enums.OrderStatusPending:   enums.OrderStatusConfirmed,
	enums.OrderStatusConfirmed: enums.OrderStatusPreparing,
	enums.OrderStatusPreparing: enums.OrderStatusShipping,
	enums.OrderStatusShipping:  enums.OrderStatusDelivered,
}

var cancellable = map[enums.OrderStatus]bool{
	enums.OrderStatusPending:   true,
	enums.OrderStatusConfirmed: true,
	enums.OrderStatusPreparing: true,
}

// Check returns nil when from → to is allowed.
func (p StatusPolicy) Check(from, to enums.OrderStatus) error {
	if !to.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", to)
	}
	if !p.Strict {
		return nil
	}
	if from.IsTerminal() {
		return pkgerrors.Newf(pkgerrors.CodeStateConflict, "order is already %s", from)
	}
	if to == enums.OrderStatusCancelled && cancellable[from] {
		return nil
	}
	if forward[from] == to {
		return nil
	}
	return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot move order from %s to %s", from, to).
		WithDetails(map[string]any{"from": from, "to": to, "allowed": p.Next(from)})
}

// Next lists the statuses reachable from from under the policy.
func (p StatusPolicy) Next(from enums.OrderStatus) []enums.OrderStatus {
	if !p.Strict {
		return enums.OrderStatuses
	}
	var out []enums.OrderStatus
	if next, ok := forward[from]; ok {
		out = append(out, next)
	}
	if cancellable[from] {
		out = append(out, enums.OrderStatusCancelled)
	}
	return out
}
