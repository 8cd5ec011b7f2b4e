package orders

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/harborline/storefront-backend/pkg/db/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSubtotalUsesStoredUnitPrices(t *testing.T) {
	items := []models.CartItem{
		{Quantity: 2, UnitPrice: dec("19.99")},
		{Quantity: 1, UnitPrice: dec("5.50")},
	}
	require.True(t, Subtotal(items).Equal(dec("45.48")))
}

func TestComputePricing(t *testing.T) {
	pricing := ComputePricing(dec("39.98"), dec("0"))
	require.True(t, pricing.Tax.Equal(dec("4.00")), "tax %s", pricing.Tax)
	require.True(t, pricing.Shipping.Equal(dec("10.00")))
	require.True(t, pricing.Total.Equal(dec("53.98")), "total %s", pricing.Total)
}

func TestComputePricingFreeShipping(t *testing.T) {
	pricing := ComputePricing(dec("100.00"), dec("0"))
	require.True(t, pricing.Shipping.IsZero())
	require.True(t, pricing.Total.Equal(dec("110.00")))
}

func TestComputePricingDiscountNeverNegative(t *testing.T) {
	// Discounts are capped at the subtotal upstream, but the total is
	// clamped anyway.
	pricing := ComputePricing(dec("10.00"), dec("30.00"))
	require.False(t, pricing.Total.IsNegative())
}
