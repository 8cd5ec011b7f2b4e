package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborline/storefront-backend/pkg/enums"
)

// Product is the canonical catalog listing.
type Product struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name             string           `gorm:"column:name;not null"`
	Slug             string           `gorm:"column:slug;not null;uniqueIndex"`
	Description      string           `gorm:"column:description"`
	ShortDescription string           `gorm:"column:short_description"`
	CategoryID       uuid.UUID        `gorm:"column:category_id;type:uuid;not null;index"`
	Category         *Category        `gorm:"foreignKey:CategoryID"`
	BrandID          *uuid.UUID       `gorm:"column:brand_id;type:uuid"`
	Brand            *Brand           `gorm:"foreignKey:BrandID"`
	Price            decimal.Decimal  `gorm:"column:price;type:numeric(10,2);not null"`
	ComparePrice     *decimal.Decimal `gorm:"column:compare_price;type:numeric(10,2)"`
	SKU              string           `gorm:"column:sku;not null;uniqueIndex"`
	StockQuantity    int              `gorm:"column:stock_quantity;not null;default:0"`
	MinStockLevel    int              `gorm:"column:min_stock_level;not null;default:5"`
	StockStatus      enums.StockStatus `gorm:"column:stock_status;not null;default:in_stock"`
	TrackInventory   bool             `gorm:"column:track_inventory;not null;default:true"`
	IsActive         bool             `gorm:"column:is_active;not null;default:true"`
	IsFeatured       bool             `gorm:"column:is_featured;not null;default:false"`
	IsDigital        bool             `gorm:"column:is_digital;not null;default:false"`
	RequiresShipping bool             `gorm:"column:requires_shipping;not null;default:true"`
	AverageRating    decimal.Decimal  `gorm:"column:average_rating;type:numeric(3,2);not null;default:0"`
	TotalReviews     int              `gorm:"column:total_reviews;not null;default:0"`
	Images           []ProductImage   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Variants         []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Attributes       []ProductAttribute `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
	PublishedAt      *time.Time       `gorm:"column:published_at"`
}

// ProductImage holds a gallery entry for a product.
type ProductImage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	URL       string    `gorm:"column:url;not null"`
	AltText   string    `gorm:"column:alt_text"`
	IsPrimary bool      `gorm:"column:is_primary;not null;default:false"`
	SortOrder int       `gorm:"column:sort_order;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// AttributeName is a reusable attribute label such as Color or Size.
type AttributeName struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;not null;uniqueIndex"`
	DisplayName string    `gorm:"column:display_name;not null"`
	IsRequired  bool      `gorm:"column:is_required;not null;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

// AttributeValue is one concrete value of an attribute.
type AttributeValue struct {
	ID              uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	AttributeNameID uuid.UUID      `gorm:"column:attribute_name_id;type:uuid;not null;index:idx_attr_value,unique,priority:1"`
	AttributeName   *AttributeName `gorm:"foreignKey:AttributeNameID"`
	Value           string         `gorm:"column:value;not null;index:idx_attr_value,unique,priority:2"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
}

// ProductAttribute links a product to an attribute value.
type ProductAttribute struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID        uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index:idx_product_attr,unique,priority:1"`
	AttributeValueID uuid.UUID       `gorm:"column:attribute_value_id;type:uuid;not null;index:idx_product_attr,unique,priority:2"`
	AttributeValue   *AttributeValue `gorm:"foreignKey:AttributeValueID"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// ProductVariant is a purchasable variation with its own price and stock.
type ProductVariant struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID     uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	Name          string          `gorm:"column:name;not null"`
	SKU           string          `gorm:"column:sku;not null;uniqueIndex"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	StockQuantity int             `gorm:"column:stock_quantity;not null;default:0"`
	IsActive      bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}
