package orders

import (
	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/enums"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
)

var forwardTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusConfirmed, enums.OrderStatusProcessing, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed:  {enums.OrderStatusProcessing, enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusProcessing: {enums.OrderStatusShipped},
	enums.OrderStatusShipped:    {enums.OrderStatusDelivered},
	enums.OrderStatusDelivered:  {enums.OrderStatusRefunded},
}

// CheckTransition reports whether order may move to the target status.
func CheckTransition(order *models.Order, to enums.OrderStatus) error {
	if !to.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", to)
	}
	from := order.Status
	details := map[string]any{"from": from, "to": to}
	if from.IsTerminal() {
		return pkgerrors.Newf(pkgerrors.CodeStateConflict, "order is %s and can no longer change", from).WithDetails(details)
	}
	if from == to {
		return pkgerrors.Newf(pkgerrors.CodeStateConflict, "order is already %s", from).WithDetails(details)
	}

	switch to {
	case enums.OrderStatusCancelled:
		if !order.CanBeCancelled() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled").WithDetails(details)
		}
	case enums.OrderStatusShipped:
		if !order.CanBeShipped() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not ready to ship").WithDetails(details)
		}
	case enums.OrderStatusRefunded:
		if !order.CanBeRefunded() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only delivered, paid orders can be refunded").WithDetails(details)
		}
	}

	for _, allowed := range forwardTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot move order from %s to %s", from, to).WithDetails(details)
}
