package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"course-purchase/internal/domain"
	"course-purchase/internal/domain/model"
	"course-purchase/internal/domain/ports/repository"
)

var _ repository.CouponRepository = (*couponRepo)(nil)

type couponRepo struct{ pool *pgxpool.Pool }

func NewCouponRepo(pool *pgxpool.Pool) *couponRepo {
	return &couponRepo{pool: pool}
}

func (r *couponRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error) {
	const q = `SELECT id, code, discount_type, value::text, valid_from, valid_until, usage_limit, first_purchase_only, created_at FROM coupons WHERE code=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return nil, err
	}

	var (
		c     model.Coupon
		value string
	)
	if err := row.Scan(&c.ID, &c.Code, &c.DiscountType, &value, &c.ValidFrom, &c.ValidUntil, &c.UsageLimit, &c.FirstPurchaseOnly, &c.CreatedAt); err != nil {
		return nil, scanErr(err)
	}
	if c.Value, err = parseMoney(value); err != nil {
		return nil, err
	}

	rows, err := queryRows(ctx, r.pool, tx, `SELECT course_id FROM coupon_courses WHERE coupon_id=$1 ORDER BY course_id;`, c.ID)
	if err != nil {
		return nil, mapErr("coupon courses", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		c.CourseIDs = append(c.CourseIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("coupon courses", err)
	}
	return &c, nil
}

func (r *couponRepo) CountUsages(ctx context.Context, tx repository.Tx, couponID string) (int, error) {
	const q = `SELECT COUNT(*) FROM coupon_usages WHERE coupon_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, couponID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func (r *couponRepo) SaveUsage(ctx context.Context, tx repository.Tx, u *model.CouponUsage) error {
	const q = `INSERT INTO coupon_usages (id, coupon_id, user_id, sale_id, created_at) VALUES ($1,$2,$3,$4,$5);`
	_, err := execSQL(ctx, r.pool, tx, q, u.ID, u.CouponID, u.UserID, u.SaleID, u.CreatedAt)
	return mapErr("save coupon usage", err)
}
