package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestTaxRoundsHalfUp(t *testing.T) {
	require.True(t, Tax(dec("999.99")).Equal(dec("100.00")), "got %s", Tax(dec("999.99")))
	require.True(t, Tax(dec("10.00")).Equal(dec("1.00")))
	require.True(t, Tax(dec("0.05")).Equal(dec("0.01")))
}

func TestShippingWaivedAtFloor(t *testing.T) {
	require.True(t, Shipping(dec("99.99")).Equal(dec("10.00")))
	require.True(t, Shipping(dec("100.00")).IsZero())
	require.True(t, Shipping(dec("250.00")).IsZero())
}

func TestPercentOf(t *testing.T) {
	require.True(t, PercentOf(dec("50.00"), dec("20")).Equal(dec("10.00")))
	require.True(t, PercentOf(dec("33.33"), dec("15")).Equal(dec("5.00")), "got %s", PercentOf(dec("33.33"), dec("15")))
}

func TestMinAndClamp(t *testing.T) {
	require.True(t, Min(dec("5.00"), dec("10.00")).Equal(dec("5.00")))
	require.True(t, Min(dec("10.00"), dec("5.00")).Equal(dec("5.00")))
	require.True(t, ClampNonNegative(dec("-1.23")).IsZero())
	require.True(t, ClampNonNegative(dec("1.23")).Equal(dec("1.23")))
}
