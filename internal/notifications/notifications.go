package notifications

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harborline/storefront-backend/pkg/db/models"
	"github.com/harborline/storefront-backend/pkg/enums"
)

// TypeOrderStatusUpdate is the wire type consumers switch on.
const TypeOrderStatusUpdate = "order_status_update"

// OrderChannel is the per-customer logical channel carrying order
// updates. Subscribers filter on it via the message attributes.
func OrderChannel(customerID uuid.UUID) string {
	return fmt.Sprintf("user:%s:orders", customerID)
}

var statusMessages = map[enums.OrderStatus]string{
	enums.OrderStatusConfirmed:  "Your order has been confirmed!",
	enums.OrderStatusProcessing: "Your order is being processed.",
	enums.OrderStatusShipped:    "Your order has been shipped!",
	enums.OrderStatusDelivered:  "Your order has been delivered.",
	enums.OrderStatusCancelled:  "Your order has been cancelled.",
	enums.OrderStatusRefunded:   "Your order has been refunded.",
}

// StatusMessage returns the customer-facing copy for a status.
func StatusMessage(status enums.OrderStatus) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return "Your order status has been updated."
}

// StatusUpdate is the order notification payload delivered to clients.
type StatusUpdate struct {
	Type        string    `json:"type"`
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	OldStatus   string    `json:"old_status"`
	NewStatus   string    `json:"new_status"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewStatusUpdate builds the payload for an order transition.
func NewStatusUpdate(order models.Order, oldStatus, newStatus enums.OrderStatus, at time.Time) StatusUpdate {
	return StatusUpdate{
		Type:        TypeOrderStatusUpdate,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		OldStatus:   oldStatus.String(),
		NewStatus:   newStatus.String(),
		Message:     StatusMessage(newStatus),
		Timestamp:   at,
	}
}
