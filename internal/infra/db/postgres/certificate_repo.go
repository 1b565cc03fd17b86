package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"course-purchase/internal/domain"
	"course-purchase/internal/domain/model"
	"course-purchase/internal/domain/ports/repository"
)

var _ repository.CertificateRepository = (*certificateRepo)(nil)

type certificateRepo struct{ pool *pgxpool.Pool }

func NewCertificateRepo(pool *pgxpool.Pool) *certificateRepo {
	return &certificateRepo{pool: pool}
}

func (r *certificateRepo) Find(ctx context.Context, tx repository.Tx, userID, courseID string) (*model.Certificate, error) {
	const q = `SELECT id, user_id, course_id, code, issued_at FROM certificates WHERE user_id=$1 AND course_id=$2;`
	row, err := pickRow(ctx, r.pool, tx, q, userID, courseID)
	if err != nil {
		return nil, err
	}
	var c model.Certificate
	if err := row.Scan(&c.ID, &c.UserID, &c.CourseID, &c.Code, &c.IssuedAt); err != nil {
		return nil, scanErr(err)
	}
	return &c, nil
}

// Create relies on UNIQUE (user_id, course_id) to reject a second certificate.
func (r *certificateRepo) Create(ctx context.Context, tx repository.Tx, c *model.Certificate) error {
	const q = `INSERT INTO certificates (id, user_id, course_id, code, issued_at) VALUES ($1,$2,$3,$4,$5);`
	_, err := execSQL(ctx, r.pool, tx, q, c.ID, c.UserID, c.CourseID, c.Code, c.IssuedAt)
	return mapErr("create certificate", err)
}

func (r *certificateRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.IssuedCertificate, error) {
	const q = `
SELECT ce.id, ce.user_id, ce.course_id, ce.code, ce.issued_at, c.title
FROM certificates ce JOIN courses c ON c.id = ce.course_id
WHERE ce.user_id=$1
ORDER BY ce.issued_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, mapErr("list certificates", err)
	}
	defer rows.Close()

	var out []*model.IssuedCertificate
	for rows.Next() {
		var ic model.IssuedCertificate
		if err := rows.Scan(&ic.ID, &ic.UserID, &ic.CourseID, &ic.Code, &ic.IssuedAt, &ic.CourseTitle); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &ic)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list certificates", err)
	}
	return out, nil
}
