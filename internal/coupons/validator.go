package coupons

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/harborline/storefront-backend/pkg/db/models"
	"github.com/harborline/storefront-backend/pkg/enums"
	"github.com/harborline/storefront-backend/pkg/money"
)

// InvalidReason explains why a coupon failed validation.
type InvalidReason string

const (
	ReasonInactive       InvalidReason = "inactive"
	ReasonNotStarted     InvalidReason = "not_started"
	ReasonExpired        InvalidReason = "expired"
	ReasonUsageExhausted InvalidReason = "usage_exhausted"
	ReasonMinimumOrder   InvalidReason = "minimum_order_not_met"
)

// IsValid applies the coupon's own gates: active flag, validity window
// and usage budget. Order-level conditions are checked separately.
func IsValid(coupon models.Coupon, now time.Time) (bool, InvalidReason) {
	if !coupon.IsActive {
		return false, ReasonInactive
	}
	if now.Before(coupon.ValidFrom) {
		return false, ReasonNotStarted
	}
	if now.After(coupon.ValidUntil) {
		return false, ReasonExpired
	}
	if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
		return false, ReasonUsageExhausted
	}
	return true, ""
}

// MeetsMinimum reports whether the subtotal clears the coupon's
// minimum order amount, when one is set.
func MeetsMinimum(coupon models.Coupon, subtotal decimal.Decimal) bool {
	if coupon.MinimumOrderAmount == nil {
		return true
	}
	return subtotal.GreaterThanOrEqual(*coupon.MinimumOrderAmount)
}

// ComputeDiscount returns the discount a valid coupon grants on the
// subtotal. Both kinds are capped at the coupon's maximum discount
// amount when one is set. The result may exceed the subtotal; order
// pricing clamps the total at zero.
func ComputeDiscount(coupon models.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch coupon.DiscountType {
	case enums.DiscountTypePercentage:
		discount = money.PercentOf(subtotal, coupon.DiscountValue)
	case enums.DiscountTypeFixedAmount:
		discount = money.Round2(coupon.DiscountValue)
	default:
		return money.Zero
	}
	if coupon.MaximumDiscountAmount != nil {
		discount = money.Min(discount, *coupon.MaximumDiscountAmount)
	}
	return discount
}
