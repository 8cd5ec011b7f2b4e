package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborline/storefront-backend/pkg/enums"
)

// Coupon is a discount code with a validity window and usage budget.
type Coupon struct {
	ID                    uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Code                  string             `gorm:"column:code;not null;uniqueIndex"`
	Name                  string             `gorm:"column:name;not null"`
	Description           string             `gorm:"column:description"`
	DiscountType          enums.DiscountType `gorm:"column:discount_type;not null"`
	DiscountValue         decimal.Decimal    `gorm:"column:discount_value;type:numeric(10,2);not null"`
	MinimumOrderAmount    *decimal.Decimal   `gorm:"column:minimum_order_amount;type:numeric(10,2)"`
	MaximumDiscountAmount *decimal.Decimal   `gorm:"column:maximum_discount_amount;type:numeric(10,2)"`
	UsageLimit            *int               `gorm:"column:usage_limit"`
	UsedCount             int                `gorm:"column:used_count;not null;default:0"`
	IsActive              bool               `gorm:"column:is_active;not null;default:true"`
	ValidFrom             time.Time          `gorm:"column:valid_from;not null"`
	ValidUntil            time.Time          `gorm:"column:valid_until;not null"`
	CreatedAt             time.Time          `gorm:"column:created_at;autoCreateTime"`
}
