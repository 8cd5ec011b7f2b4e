package orders

import "github.com/harborline/storefront-backend/pkg/enums"

// allowedTransitions is the fulfillment state machine. Cancelled and
// refunded are terminal; refunds are only reachable after delivery.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed:  {enums.OrderStatusProcessing, enums.OrderStatusCancelled},
	enums.OrderStatusProcessing: {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:    {enums.OrderStatusDelivered, enums.OrderStatusCancelled},
	enums.OrderStatusDelivered:  {enums.OrderStatusRefunded},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// CanCancel reports whether the customer may still cancel the order.
func CanCancel(status enums.OrderStatus) bool {
	return CanTransition(status, enums.OrderStatusCancelled)
}
