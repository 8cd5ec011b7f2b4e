package orders

import (
	"github.com/shopspring/decimal"

	"github.com/harborline/storefront-backend/pkg/db/models"
	"github.com/harborline/storefront-backend/pkg/money"
)

// Pricing is the priced breakdown of a basket at placement time.
type Pricing struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// Subtotal sums the stored unit prices of the basket lines. Catalog
// price changes after a line was added do not reprice the basket.
func Subtotal(items []models.CartItem) decimal.Decimal {
	sum := money.Zero
	for _, item := range items {
		sum = sum.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return money.Round2(sum)
}

// ComputePricing derives tax, shipping and the grand total from a
// subtotal and an already-resolved discount. The total never drops
// below zero.
func ComputePricing(subtotal, discount decimal.Decimal) Pricing {
	tax := money.Tax(subtotal)
	shipping := money.Shipping(subtotal)
	total := money.ClampNonNegative(money.Round2(subtotal.Add(tax).Add(shipping).Sub(discount)))
	return Pricing{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Discount: discount,
		Total:    total,
	}
}
