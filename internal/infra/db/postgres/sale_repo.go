package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"course-purchase/internal/domain"
	"course-purchase/internal/domain/model"
	"course-purchase/internal/domain/ports/repository"
)

var _ repository.SaleRepository = (*saleRepo)(nil)

type saleRepo struct{ pool *pgxpool.Pool }

func NewSaleRepo(pool *pgxpool.Pool) *saleRepo {
	return &saleRepo{pool: pool}
}

const saleColumns = `id, user_id, course_id, original_amount::text, discount_amount::text, final_amount::text, currency, status, coupon_id, gateway, gateway_order_id, gateway_payment_id, gateway_signature, failure_reason, created_at, updated_at, paid_at`

func scanSale(row pgx.Row) (*model.Sale, error) {
	var (
		s                         model.Sale
		original, discount, final string
	)
	if err := row.Scan(&s.ID, &s.UserID, &s.CourseID, &original, &discount, &final, &s.Currency, &s.Status, &s.CouponID,
		&s.Gateway, &s.GatewayOrderID, &s.GatewayPaymentID, &s.GatewaySignature, &s.FailureReason,
		&s.CreatedAt, &s.UpdatedAt, &s.PaidAt); err != nil {
		return nil, scanErr(err)
	}
	var err error
	if s.OriginalAmount, err = parseMoney(original); err != nil {
		return nil, err
	}
	if s.DiscountAmount, err = parseMoney(discount); err != nil {
		return nil, err
	}
	if s.FinalAmount, err = parseMoney(final); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *saleRepo) Save(ctx context.Context, tx repository.Tx, s *model.Sale) error {
	const q = `
INSERT INTO sales (
  id, user_id, course_id, original_amount, discount_amount, final_amount, currency, status, coupon_id, gateway, gateway_order_id, created_at, updated_at
) VALUES (
  $1,$2,$3,$4::numeric,$5::numeric,$6::numeric,$7,$8,$9,$10,$11,$12,$13
);`
	_, err := execSQL(ctx, r.pool, tx, q, s.ID, s.UserID, s.CourseID,
		s.OriginalAmount.String(), s.DiscountAmount.String(), s.FinalAmount.String(),
		s.Currency, string(s.Status), s.CouponID, s.Gateway, s.GatewayOrderID, s.CreatedAt, s.UpdatedAt)
	return mapErr("save sale", err)
}

// settleable matches model.Sale.Settleable.
const settleable = `(status='pending' OR (status='failed' AND failure_reason='abandoned'))`

func (r *saleRepo) FindSettleableForUser(ctx context.Context, tx repository.Tx, id, userID string) (*model.Sale, error) {
	q := forUpdate(`SELECT `+saleColumns+` FROM sales WHERE id=$1 AND user_id=$2 AND `+settleable, tx) + ";"
	row, err := pickRow(ctx, r.pool, tx, q, id, userID)
	if err != nil {
		return nil, err
	}
	return scanSale(row)
}

func (r *saleRepo) MarkPaid(ctx context.Context, tx repository.Tx, id, paymentID, signature string, paidAt time.Time) (bool, error) {
	const q = `UPDATE sales SET status='paid', failure_reason=NULL, gateway_payment_id=$2, gateway_signature=$3, paid_at=$4, updated_at=$4 WHERE id=$1 AND ` + settleable + `;`
	tag, err := execSQL(ctx, r.pool, tx, q, id, paymentID, signature, paidAt)
	if err != nil {
		return false, mapErr("mark sale paid", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *saleRepo) MarkFailed(ctx context.Context, tx repository.Tx, id, reason string) (bool, error) {
	const q = `UPDATE sales SET status='failed', failure_reason=$2, updated_at=NOW() WHERE id=$1 AND status='pending';`
	tag, err := execSQL(ctx, r.pool, tx, q, id, reason)
	if err != nil {
		return false, mapErr("mark sale failed", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *saleRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.SaleSummary, error) {
	const q = `
SELECT s.id, s.final_amount::text, s.currency, s.status, s.created_at, s.course_id, c.title
FROM sales s JOIN courses c ON c.id = s.course_id
WHERE s.user_id=$1
ORDER BY s.created_at DESC, s.id;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, mapErr("list sales", err)
	}
	defer rows.Close()

	var out []*model.SaleSummary
	for rows.Next() {
		var (
			s      model.SaleSummary
			amount string
		)
		if err := rows.Scan(&s.ID, &amount, &s.Currency, &s.Status, &s.CreatedAt, &s.CourseID, &s.CourseTitle); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		if s.Amount, err = parseMoney(amount); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list sales", err)
	}
	return out, nil
}

func (r *saleRepo) CountPaidByUser(ctx context.Context, tx repository.Tx, userID string) (int, error) {
	const q = `SELECT COUNT(*) FROM sales WHERE user_id=$1 AND status='paid';`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func (r *saleRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Sale, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + saleColumns + ` FROM sales WHERE status='pending' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		return nil, mapErr("list pending sales", err)
	}
	defer rows.Close()

	var out []*model.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list pending sales", err)
	}
	return out, nil
}
