package notifications

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/harborline/storefront-backend/pkg/db/models"
	"github.com/harborline/storefront-backend/pkg/enums"
)

func TestOrderChannel(t *testing.T) {
	id := uuid.MustParse("3e2cbf0a-7cf1-4c7e-bc92-0b55eb4f0a11")
	require.Equal(t, "user:3e2cbf0a-7cf1-4c7e-bc92-0b55eb4f0a11:orders", OrderChannel(id))
}

func TestStatusMessage(t *testing.T) {
	require.Equal(t, "Your order has been confirmed!", StatusMessage(enums.OrderStatusConfirmed))
	require.Equal(t, "Your order has been shipped!", StatusMessage(enums.OrderStatusShipped))
	require.Equal(t, "Your order status has been updated.", StatusMessage(enums.OrderStatusPending))
}

func TestNewStatusUpdate(t *testing.T) {
	now := time.Now()
	order := models.Order{ID: uuid.New(), OrderNumber: "AB12CD34EF"}

	update := NewStatusUpdate(order, enums.OrderStatusPending, enums.OrderStatusConfirmed, now)
	require.Equal(t, TypeOrderStatusUpdate, update.Type)
	require.Equal(t, order.ID, update.OrderID)
	require.Equal(t, "AB12CD34EF", update.OrderNumber)
	require.Equal(t, "pending", update.OldStatus)
	require.Equal(t, "confirmed", update.NewStatus)
	require.Equal(t, "Your order has been confirmed!", update.Message)
	require.Equal(t, now, update.Timestamp)
}
