package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"

	"course-purchase/internal/domain/model"
	"course-purchase/internal/domain/ports/repository"
)

// Catalog is a set of rows owned by the catalog service. This service only
// reads them; cmd/seed uses UpsertCatalog to prepare a local database.
type Catalog struct {
	Courses []model.Course
	Lessons []model.Lesson
	Coupons []model.Coupon
}

// UpsertCatalog inserts the catalog in one transaction. Rows that already
// exist are left untouched.
func UpsertCatalog(ctx context.Context, tm *TxManager, c Catalog) error {
	return tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		for _, co := range c.Courses {
			if _, err := execSQL(ctx, tm.pool, tx, `
INSERT INTO courses (id, title, price, access_policy, access_duration_days, certificate_enabled)
VALUES ($1, $2, $3::numeric, $4, $5, $6)
ON CONFLICT (id) DO NOTHING`,
				co.ID, co.Title, co.Price.String(), string(co.AccessPolicy), co.AccessDurationDays, co.CertificateEnabled,
			); err != nil {
				return mapErr(fmt.Sprintf("seed course %s", co.ID), err)
			}
		}
		for _, l := range c.Lessons {
			if _, err := execSQL(ctx, tm.pool, tx, `
INSERT INTO lessons (id, course_id, title, position) VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO NOTHING`,
				l.ID, l.CourseID, l.Title, l.Position,
			); err != nil {
				return mapErr(fmt.Sprintf("seed lesson %s", l.ID), err)
			}
		}
		for _, cp := range c.Coupons {
			if _, err := execSQL(ctx, tm.pool, tx, `
INSERT INTO coupons (id, code, discount_type, value, valid_from, valid_until, usage_limit, first_purchase_only)
VALUES ($1, $2, $3, $4::numeric, $5::date, $6::date, $7, $8)
ON CONFLICT (code) DO NOTHING`,
				cp.ID, model.NormalizeCouponCode(cp.Code), string(cp.DiscountType), cp.Value.String(),
				cp.ValidFrom.Format("2006-01-02"), cp.ValidUntil.Format("2006-01-02"), cp.UsageLimit, cp.FirstPurchaseOnly,
			); err != nil {
				return mapErr(fmt.Sprintf("seed coupon %s", cp.Code), err)
			}
			for _, courseID := range cp.CourseIDs {
				if _, err := execSQL(ctx, tm.pool, tx, `
INSERT INTO coupon_courses (coupon_id, course_id) VALUES ($1, $2)
ON CONFLICT DO NOTHING`, cp.ID, courseID); err != nil {
					return mapErr("seed coupon course", err)
				}
			}
		}
		return nil
	})
}
