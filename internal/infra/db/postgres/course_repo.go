package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"course-purchase/internal/domain"
	"course-purchase/internal/domain/model"
	"course-purchase/internal/domain/ports/repository"
)

var _ repository.CourseRepository = (*courseRepo)(nil)

type courseRepo struct{ pool *pgxpool.Pool }

func NewCourseRepo(pool *pgxpool.Pool) *courseRepo {
	return &courseRepo{pool: pool}
}

func (r *courseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Course, error) {
	const q = `SELECT id, title, price::text, access_policy, access_duration_days, certificate_enabled, created_at FROM courses WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}

	var (
		c     model.Course
		price string
	)
	if err := row.Scan(&c.ID, &c.Title, &price, &c.AccessPolicy, &c.AccessDurationDays, &c.CertificateEnabled, &c.CreatedAt); err != nil {
		return nil, scanErr(err)
	}
	if c.Price, err = parseMoney(price); err != nil {
		return nil, err
	}
	return &c, nil
}

var _ repository.LessonRepository = (*lessonRepo)(nil)

type lessonRepo struct{ pool *pgxpool.Pool }

func NewLessonRepo(pool *pgxpool.Pool) *lessonRepo {
	return &lessonRepo{pool: pool}
}

func (r *lessonRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Lesson, error) {
	const q = `SELECT id, course_id, title, position FROM lessons WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var l model.Lesson
	if err := row.Scan(&l.ID, &l.CourseID, &l.Title, &l.Position); err != nil {
		return nil, scanErr(err)
	}
	return &l, nil
}

func (r *lessonRepo) CountByCourse(ctx context.Context, tx repository.Tx, courseID string) (int, error) {
	const q = `SELECT COUNT(*) FROM lessons WHERE course_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, courseID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}
