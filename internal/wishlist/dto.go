package wishlist

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborline/storefront-backend/pkg/db/models"
)

// ItemDTO is one saved product.
type ItemDTO struct {
	ID          uuid.UUID        `json:"id"`
	ProductID   uuid.UUID        `json:"product_id"`
	ProductName string           `json:"product_name"`
	ProductSlug string           `json:"product_slug"`
	Price       decimal.Decimal  `json:"price"`
	ComparePrice *decimal.Decimal `json:"compare_price,omitempty"`
	InStock     bool             `json:"in_stock"`
	AddedAt     time.Time        `json:"added_at"`
}

// DTO is the customer's wishlist with its items.
type DTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IsDefault bool      `json:"is_default"`
	IsPublic  bool      `json:"is_public"`
	Items     []ItemDTO `json:"items"`
	ItemCount int       `json:"item_count"`
}

func toDTO(w models.Wishlist) DTO {
	dto := DTO{
		ID:        w.ID,
		Name:      w.Name,
		IsDefault: w.IsDefault,
		IsPublic:  w.IsPublic,
		Items:     make([]ItemDTO, 0, len(w.Items)),
	}
	for _, item := range w.Items {
		entry := ItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			AddedAt:   item.AddedAt,
		}
		if item.Product != nil {
			entry.ProductName = item.Product.Name
			entry.ProductSlug = item.Product.Slug
			entry.Price = item.Product.Price
			entry.ComparePrice = item.Product.ComparePrice
			entry.InStock = !item.Product.TrackInventory || item.Product.StockQuantity > 0
		}
		dto.Items = append(dto.Items, entry)
	}
	dto.ItemCount = len(dto.Items)
	return dto
}
