package money

import "github.com/shopspring/decimal"

// All monetary amounts are carried as decimals and rounded to two
// places at computation boundaries, never inside intermediate math.

var (
	Zero = decimal.Zero

	taxRate           = decimal.RequireFromString("0.10")
	shippingFlat      = decimal.RequireFromString("10.00")
	freeShippingFloor = decimal.RequireFromString("100.00")
	hundred           = decimal.NewFromInt(100)
)

// Round2 rounds half-up to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Tax returns the 10% tax on a subtotal, rounded to cents.
func Tax(subtotal decimal.Decimal) decimal.Decimal {
	return Round2(subtotal.Mul(taxRate))
}

// Shipping returns the flat shipping fee, waived at or above the free
// shipping floor.
func Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(freeShippingFloor) {
		return Zero
	}
	return shippingFlat
}

// PercentOf returns pct% of amount, rounded to cents.
func PercentOf(amount, pct decimal.Decimal) decimal.Decimal {
	return Round2(amount.Mul(pct).Div(hundred))
}

// Min returns the smaller of two amounts.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThanOrEqual(b) {
		return a
	}
	return b
}

// ClampNonNegative floors an amount at zero.
func ClampNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return Zero
	}
	return d
}
