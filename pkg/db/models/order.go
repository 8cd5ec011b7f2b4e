package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborline/storefront-backend/pkg/enums"
)

// Order is the placed order header with its priced totals.
type Order struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber    string              `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerID     uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	Customer       *Customer           `gorm:"foreignKey:CustomerID"`
	Status         enums.OrderStatus   `gorm:"column:status;not null;default:pending"`
	PaymentStatus  enums.PaymentStatus `gorm:"column:payment_status;not null;default:pending"`
	PaymentMethod  enums.PaymentMethod `gorm:"column:payment_method;not null"`
	Subtotal       decimal.Decimal     `gorm:"column:subtotal;type:numeric(10,2);not null"`
	TaxAmount      decimal.Decimal     `gorm:"column:tax_amount;type:numeric(10,2);not null;default:0"`
	ShippingAmount decimal.Decimal     `gorm:"column:shipping_amount;type:numeric(10,2);not null;default:0"`
	DiscountAmount decimal.Decimal     `gorm:"column:discount_amount;type:numeric(10,2);not null;default:0"`
	TotalAmount    decimal.Decimal     `gorm:"column:total_amount;type:numeric(10,2);not null"`
	CouponID       *uuid.UUID          `gorm:"column:coupon_id;type:uuid"`
	CouponCode     string              `gorm:"column:coupon_code"`
	BillingAddress json.RawMessage     `gorm:"column:billing_address;type:jsonb;not null"`
	ShippingAddress json.RawMessage    `gorm:"column:shipping_address;type:jsonb;not null"`
	Notes          string              `gorm:"column:notes"`
	TrackingNumber string              `gorm:"column:tracking_number"`
	Items          []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
	ShippedAt      *time.Time          `gorm:"column:shipped_at"`
	DeliveredAt    *time.Time          `gorm:"column:delivered_at"`
}

// OrderItem snapshots a purchased line at placement time.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	VariantID   *uuid.UUID      `gorm:"column:variant_id;type:uuid"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	TotalPrice  decimal.Decimal `gorm:"column:total_price;type:numeric(10,2);not null"`
	ProductName string          `gorm:"column:product_name;not null"`
	ProductSKU  string          `gorm:"column:product_sku;not null"`
	VariantName string          `gorm:"column:variant_name"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}
