package coupons

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/harborline/storefront-backend/pkg/db/models"
	"github.com/harborline/storefront-backend/pkg/enums"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func baseCoupon() models.Coupon {
	return models.Coupon{
		Code:          "SAVE20",
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: dec("20"),
		IsActive:      true,
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidUntil:    time.Now().Add(time.Hour),
	}
}

func TestIsValidGates(t *testing.T) {
	now := time.Now()

	coupon := baseCoupon()
	ok, reason := IsValid(coupon, now)
	require.True(t, ok)
	require.Empty(t, reason)

	inactive := baseCoupon()
	inactive.IsActive = false
	ok, reason = IsValid(inactive, now)
	require.False(t, ok)
	require.Equal(t, ReasonInactive, reason)

	early := baseCoupon()
	early.ValidFrom = now.Add(time.Hour)
	early.ValidUntil = now.Add(2 * time.Hour)
	ok, reason = IsValid(early, now)
	require.False(t, ok)
	require.Equal(t, ReasonNotStarted, reason)

	expired := baseCoupon()
	expired.ValidFrom = now.Add(-2 * time.Hour)
	expired.ValidUntil = now.Add(-time.Hour)
	ok, reason = IsValid(expired, now)
	require.False(t, ok)
	require.Equal(t, ReasonExpired, reason)

	limit := 5
	exhausted := baseCoupon()
	exhausted.UsageLimit = &limit
	exhausted.UsedCount = 5
	ok, reason = IsValid(exhausted, now)
	require.False(t, ok)
	require.Equal(t, ReasonUsageExhausted, reason)

	underLimit := baseCoupon()
	underLimit.UsageLimit = &limit
	underLimit.UsedCount = 4
	ok, _ = IsValid(underLimit, now)
	require.True(t, ok)
}

func TestComputeDiscountPercentageWithCap(t *testing.T) {
	max := dec("5.00")
	coupon := baseCoupon()
	coupon.MaximumDiscountAmount = &max

	// 20% of 50.00 is 10.00, capped at 5.00.
	got := ComputeDiscount(coupon, dec("50.00"))
	require.True(t, got.Equal(dec("5.00")), "got %s", got)

	// 20% of 20.00 is 4.00, below the cap.
	got = ComputeDiscount(coupon, dec("20.00"))
	require.True(t, got.Equal(dec("4.00")), "got %s", got)
}

func TestComputeDiscountFixedAmount(t *testing.T) {
	coupon := baseCoupon()
	coupon.DiscountType = enums.DiscountTypeFixedAmount
	coupon.DiscountValue = dec("15.00")

	got := ComputeDiscount(coupon, dec("100.00"))
	require.True(t, got.Equal(dec("15.00")), "got %s", got)

	// The full value applies even past the subtotal; pricing clamps
	// the order total, not the discount.
	got = ComputeDiscount(coupon, dec("9.50"))
	require.True(t, got.Equal(dec("15.00")), "got %s", got)
}

func TestComputeDiscountFixedAmountCappedAtMaximum(t *testing.T) {
	max := dec("20.00")
	coupon := baseCoupon()
	coupon.DiscountType = enums.DiscountTypeFixedAmount
	coupon.DiscountValue = dec("50.00")
	coupon.MaximumDiscountAmount = &max

	got := ComputeDiscount(coupon, dec("100.00"))
	require.True(t, got.Equal(dec("20.00")), "got %s", got)
}

func TestMeetsMinimum(t *testing.T) {
	coupon := baseCoupon()
	require.True(t, MeetsMinimum(coupon, dec("0.01")))

	minimum := dec("50.00")
	coupon.MinimumOrderAmount = &minimum
	require.False(t, MeetsMinimum(coupon, dec("49.99")))
	require.True(t, MeetsMinimum(coupon, dec("50.00")))
}
