package orders

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborline/storefront-backend/pkg/db/models"
)

// CreateOrderInput is the checkout payload. CartID targets a specific
// basket (e.g. one built before logging in); when absent the customer's
// own cart is used. SessionKey is injected by the transport layer for
// anonymous-cart ownership checks, never read from the request body.
type CreateOrderInput struct {
	CartID          *uuid.UUID      `json:"cart_id"`
	PaymentMethod   string          `json:"payment_method" validate:"omitempty,oneof=card paypal cash_on_delivery"`
	BillingAddress  json.RawMessage `json:"billing_address" validate:"required"`
	ShippingAddress json.RawMessage `json:"shipping_address" validate:"required"`
	CouponCode      string          `json:"coupon_code"`
	Notes           string          `json:"notes"`
	SessionKey      string          `json:"-"`
}

// UpdateStatusInput is the back-office transition payload.
type UpdateStatusInput struct {
	Status         string `json:"status" validate:"required"`
	TrackingNumber string `json:"tracking_number"`
}

// ItemDTO is a snapshotted order line.
type ItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	VariantID   *uuid.UUID      `json:"variant_id,omitempty"`
	ProductName string          `json:"product_name"`
	ProductSKU  string          `json:"product_sku"`
	VariantName string          `json:"variant_name,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// DTO is the full order response.
type DTO struct {
	ID              uuid.UUID       `json:"id"`
	OrderNumber     string          `json:"order_number"`
	Status          string          `json:"status"`
	PaymentStatus   string          `json:"payment_status"`
	PaymentMethod   string          `json:"payment_method"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	ShippingAmount  decimal.Decimal `json:"shipping_amount"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	CouponCode      string          `json:"coupon_code,omitempty"`
	BillingAddress  json.RawMessage `json:"billing_address"`
	ShippingAddress json.RawMessage `json:"shipping_address"`
	Notes           string          `json:"notes,omitempty"`
	TrackingNumber  string          `json:"tracking_number,omitempty"`
	Items           []ItemDTO       `json:"items"`
	CreatedAt       time.Time       `json:"created_at"`
	ShippedAt       *time.Time      `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
}

// PageDTO is a cursor-paginated order listing.
type PageDTO struct {
	Items      []DTO  `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

func toDTO(order models.Order) DTO {
	dto := DTO{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		Status:          order.Status.String(),
		PaymentStatus:   order.PaymentStatus.String(),
		PaymentMethod:   order.PaymentMethod.String(),
		Subtotal:        order.Subtotal,
		TaxAmount:       order.TaxAmount,
		ShippingAmount:  order.ShippingAmount,
		DiscountAmount:  order.DiscountAmount,
		TotalAmount:     order.TotalAmount,
		CouponCode:      order.CouponCode,
		BillingAddress:  order.BillingAddress,
		ShippingAddress: order.ShippingAddress,
		Notes:           order.Notes,
		TrackingNumber:  order.TrackingNumber,
		Items:           make([]ItemDTO, 0, len(order.Items)),
		CreatedAt:       order.CreatedAt,
		ShippedAt:       order.ShippedAt,
		DeliveredAt:     order.DeliveredAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, ItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			ProductName: item.ProductName,
			ProductSKU:  item.ProductSKU,
			VariantName: item.VariantName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		})
	}
	return dto
}
