package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"course-purchase/internal/domain"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Coupon is a redeemable discount code. The number of redemptions is derived
// from CouponUsage rows; it is never stored on the coupon itself.
type Coupon struct {
	ID                string
	Code              string
	DiscountType      DiscountType
	Value             decimal.Decimal
	ValidFrom         time.Time // calendar day, inclusive
	ValidUntil        time.Time // calendar day, inclusive
	UsageLimit        *int      // nil = unlimited
	CourseIDs         []string  // empty = any course
	FirstPurchaseOnly bool
	CreatedAt         time.Time
}

// CouponUsage is an append-only redemption record, written in the same
// transaction that settles the sale.
type CouponUsage struct {
	ID        string
	CouponID  string
	UserID    string
	SaleID    string
	CreatedAt time.Time
}

// NormalizeCouponCode trims and upper-cases user supplied codes.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ActiveOn reports whether the calendar day of `t` (in loc) lies inside the
// coupon window. Both ends are inclusive.
func (c *Coupon) ActiveOn(t time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	day := calendarDay(t.In(loc))
	from := calendarDay(c.ValidFrom)
	until := calendarDay(c.ValidUntil)
	return !day.Before(from) && !day.After(until)
}

// AppliesTo reports whether the coupon may be redeemed against courseID.
func (c *Coupon) AppliesTo(courseID string) bool {
	if len(c.CourseIDs) == 0 {
		return true
	}
	for _, id := range c.CourseIDs {
		if id == courseID {
			return true
		}
	}
	return false
}

// RedemptionContext carries the facts about the buyer and the coupon's
// history that CheckApplicable needs.
type RedemptionContext struct {
	CourseID      string
	Now           time.Time
	Location      *time.Location
	UsageCount    int
	PaidPurchases int
}

// CheckApplicable enforces the window, usage limit, course restriction and
// first-purchase rules. All returned errors match domain.ErrInvalidCoupon.
func (c *Coupon) CheckApplicable(rc RedemptionContext) error {
	if c == nil {
		return domain.ErrInvalidCoupon
	}
	if !c.ActiveOn(rc.Now, rc.Location) {
		return domain.ErrInvalidCoupon
	}
	if c.UsageLimit != nil && rc.UsageCount >= *c.UsageLimit {
		return domain.ErrCouponExhausted
	}
	if !c.AppliesTo(rc.CourseID) {
		return domain.ErrCouponNotApplicable
	}
	if c.FirstPurchaseOnly && rc.PaidPurchases > 0 {
		return domain.ErrCouponFirstPurchaseOnly
	}
	return nil
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
