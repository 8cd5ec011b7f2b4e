package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is a customer rating on a product, optionally tied to the
// order item that proves the purchase.
type Review struct {
	ID                 uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ProductID          uuid.UUID  `gorm:"column:product_id;type:uuid;not null;index:idx_review_identity,unique,priority:1"`
	CustomerID         uuid.UUID  `gorm:"column:customer_id;type:uuid;not null;index:idx_review_identity,unique,priority:2"`
	OrderItemID        *uuid.UUID `gorm:"column:order_item_id;type:uuid;index:idx_review_identity,unique,priority:3"`
	Rating             int        `gorm:"column:rating;not null"`
	Title              string     `gorm:"column:title"`
	Comment            string     `gorm:"column:comment"`
	IsVerifiedPurchase bool       `gorm:"column:is_verified_purchase;not null;default:false"`
	IsApproved         bool       `gorm:"column:is_approved;not null;default:false"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
