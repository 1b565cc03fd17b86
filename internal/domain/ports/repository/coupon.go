package repository

import (
	"context"

	"course-purchase/internal/domain/model"
)

type CouponRepository interface {
	// FindByCode returns the coupon together with its course restriction list.
	FindByCode(ctx context.Context, tx Tx, code string) (*model.Coupon, error)
	// CountUsages counts CouponUsage rows; this is the only source of truth
	// for how often a coupon was redeemed.
	CountUsages(ctx context.Context, tx Tx, couponID string) (int, error)
	SaveUsage(ctx context.Context, tx Tx, u *model.CouponUsage) error
}
