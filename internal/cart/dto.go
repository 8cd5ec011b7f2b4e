package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborline/storefront-backend/pkg/db/models"
)

// ItemDTO is one line in the cart response.
type ItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductSlug string          `json:"product_slug"`
	VariantID   *uuid.UUID      `json:"variant_id,omitempty"`
	VariantName string          `json:"variant_name,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// DTO is the full cart response.
type DTO struct {
	ID        uuid.UUID       `json:"id"`
	Items     []ItemDTO       `json:"items"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

func toDTO(cart models.Cart) DTO {
	dto := DTO{
		ID:       cart.ID,
		Items:    make([]ItemDTO, 0, len(cart.Items)),
		Subtotal: decimal.Zero,
	}
	for _, item := range cart.Items {
		lineTotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		line := ItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: lineTotal,
		}
		if item.Product != nil {
			line.ProductName = item.Product.Name
			line.ProductSlug = item.Product.Slug
		}
		if item.Variant != nil {
			line.VariantName = item.Variant.Name
		}
		dto.Items = append(dto.Items, line)
		dto.ItemCount += item.Quantity
		dto.Subtotal = dto.Subtotal.Add(lineTotal)
	}
	return dto
}
