package model

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ApplyCoupon computes the amount to charge for a course price and an
// optional, already validated coupon. The final amount never goes below zero.
func ApplyCoupon(price decimal.Decimal, c *Coupon) (final, discount decimal.Decimal) {
	if c == nil {
		return price, decimal.Zero
	}
	switch c.DiscountType {
	case DiscountPercentage:
		discount = price.Mul(c.Value).Div(hundred).Round(2)
	case DiscountFixed:
		discount = c.Value
	default:
		discount = decimal.Zero
	}
	final = price.Sub(discount)
	if final.IsNegative() {
		final = decimal.Zero
	}
	return final, discount
}

// MinorUnits converts an amount to the smallest currency unit (paise, cents)
// as payment gateways expect it.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}
