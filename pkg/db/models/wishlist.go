package models

import (
	"time"

	"github.com/google/uuid"
)

// Wishlist is a named collection of saved products.
type Wishlist struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID uuid.UUID      `gorm:"column:customer_id;type:uuid;not null;index"`
	Name       string         `gorm:"column:name;not null;default:'My Wishlist'"`
	IsDefault  bool           `gorm:"column:is_default;not null;default:true"`
	IsPublic   bool           `gorm:"column:is_public;not null;default:false"`
	Items      []WishlistItem `gorm:"foreignKey:WishlistID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
}

// WishlistItem links one product into a wishlist.
type WishlistItem struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	WishlistID uuid.UUID `gorm:"column:wishlist_id;type:uuid;not null;index:idx_wishlist_product,unique,priority:1"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null;index:idx_wishlist_product,unique,priority:2"`
	Product    *Product  `gorm:"foreignKey:ProductID"`
	AddedAt    time.Time `gorm:"column:added_at;autoCreateTime"`
}
