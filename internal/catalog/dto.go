package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductSummaryDTO is the list/grid projection of a product.
type ProductSummaryDTO struct {
	ID            uuid.UUID        `json:"id"`
	Name          string           `json:"name"`
	Slug          string           `json:"slug"`
	SKU           string           `json:"sku"`
	Price         decimal.Decimal  `json:"price"`
	ComparePrice  *decimal.Decimal `json:"compare_price,omitempty"`
	CategorySlug  string           `json:"category_slug"`
	IsFeatured    bool             `json:"is_featured"`
	InStock       bool             `json:"in_stock"`
	AverageRating decimal.Decimal  `json:"average_rating"`
	TotalReviews  int              `json:"total_reviews"`
	ThumbnailURL  *string          `json:"thumbnail_url,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// ProductVariantDTO is one purchasable variation on the detail page.
type ProductVariantDTO struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	IsActive      bool            `json:"is_active"`
}

// ProductImageDTO is a gallery entry.
type ProductImageDTO struct {
	URL       string `json:"url"`
	AltText   string `json:"alt_text,omitempty"`
	IsPrimary bool   `json:"is_primary"`
	SortOrder int    `json:"sort_order"`
}

// ProductDetailDTO is the full product page projection.
type ProductDetailDTO struct {
	ID               uuid.UUID           `json:"id"`
	Name             string              `json:"name"`
	Slug             string              `json:"slug"`
	Description      string              `json:"description"`
	ShortDescription string              `json:"short_description,omitempty"`
	SKU              string              `json:"sku"`
	Price            decimal.Decimal     `json:"price"`
	ComparePrice     *decimal.Decimal    `json:"compare_price,omitempty"`
	CategorySlug     string              `json:"category_slug"`
	BrandSlug        *string             `json:"brand_slug,omitempty"`
	StockQuantity    int                 `json:"stock_quantity"`
	StockStatus      string              `json:"stock_status"`
	TrackInventory   bool                `json:"track_inventory"`
	IsFeatured       bool                `json:"is_featured"`
	IsDigital        bool                `json:"is_digital"`
	RequiresShipping bool                `json:"requires_shipping"`
	IsOnSale         bool                `json:"is_on_sale"`
	AverageRating    decimal.Decimal     `json:"average_rating"`
	TotalReviews     int                 `json:"total_reviews"`
	Images           []ProductImageDTO   `json:"images"`
	Variants         []ProductVariantDTO `json:"variants"`
	Attributes       []AttributeDTO      `json:"attributes"`
	CreatedAt        time.Time           `json:"created_at"`
}

// AttributeDTO is one attribute assignment on the detail page.
type AttributeDTO struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// BrandDTO is a manufacturer entry.
type BrandDTO struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Slug    string    `json:"slug"`
	Website string    `json:"website,omitempty"`
}

// CategoryDTO is a taxonomy node.
type CategoryDTO struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	Slug     string     `json:"slug"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

// ProductPageDTO is a cursor-paginated product listing.
type ProductPageDTO struct {
	Items      []ProductSummaryDTO `json:"items"`
	NextCursor string              `json:"next_cursor,omitempty"`
	Total      int                 `json:"total"`
}
