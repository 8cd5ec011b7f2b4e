package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart holds the open basket for a customer or anonymous session.
type Cart struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID *uuid.UUID `gorm:"column:customer_id;type:uuid;index"`
	SessionKey string     `gorm:"column:session_key;index"`
	Items      []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// CartItem is one product/variant line in a cart. The unit price is
// captured when the line is added so checkout uses stored prices.
type CartItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CartID    uuid.UUID       `gorm:"column:cart_id;type:uuid;not null;index:idx_cart_product,unique,priority:1"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index:idx_cart_product,unique,priority:2"`
	Product   *Product        `gorm:"foreignKey:ProductID"`
	VariantID *uuid.UUID      `gorm:"column:variant_id;type:uuid;index:idx_cart_product,unique,priority:3"`
	Variant   *ProductVariant `gorm:"foreignKey:VariantID"`
	Quantity  int             `gorm:"column:quantity;not null;default:1"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
