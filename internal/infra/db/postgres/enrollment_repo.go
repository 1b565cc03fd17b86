package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"course-purchase/internal/domain"
	"course-purchase/internal/domain/model"
	"course-purchase/internal/domain/ports/repository"
)

var _ repository.EnrollmentRepository = (*enrollmentRepo)(nil)

type enrollmentRepo struct{ pool *pgxpool.Pool }

func NewEnrollmentRepo(pool *pgxpool.Pool) *enrollmentRepo {
	return &enrollmentRepo{pool: pool}
}

// Find locks the row when called inside a transaction.
func (r *enrollmentRepo) Find(ctx context.Context, tx repository.Tx, userID, courseID string) (*model.Enrollment, error) {
	q := forUpdate(`SELECT user_id, course_id, enrolled_at, expires_at, completion_percentage FROM enrollments WHERE user_id=$1 AND course_id=$2`, tx) + ";"
	row, err := pickRow(ctx, r.pool, tx, q, userID, courseID)
	if err != nil {
		return nil, err
	}
	var e model.Enrollment
	if err := row.Scan(&e.UserID, &e.CourseID, &e.EnrolledAt, &e.ExpiresAt, &e.CompletionPercentage); err != nil {
		return nil, scanErr(err)
	}
	return &e, nil
}

func (r *enrollmentRepo) Create(ctx context.Context, tx repository.Tx, e *model.Enrollment) error {
	const q = `INSERT INTO enrollments (user_id, course_id, enrolled_at, expires_at, completion_percentage) VALUES ($1,$2,$3,$4,$5);`
	_, err := execSQL(ctx, r.pool, tx, q, e.UserID, e.CourseID, e.EnrolledAt, e.ExpiresAt, e.CompletionPercentage)
	return mapErr("create enrollment", err)
}

func (r *enrollmentRepo) UpdateCompletion(ctx context.Context, tx repository.Tx, userID, courseID string, pct int) error {
	const q = `UPDATE enrollments SET completion_percentage=$3 WHERE user_id=$1 AND course_id=$2;`
	tag, err := execSQL(ctx, r.pool, tx, q, userID, courseID, pct)
	if err != nil {
		return mapErr("update completion", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *enrollmentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.EnrolledCourse, error) {
	const q = `
SELECT e.user_id, e.course_id, e.enrolled_at, e.expires_at, e.completion_percentage, c.title
FROM enrollments e JOIN courses c ON c.id = e.course_id
WHERE e.user_id=$1
ORDER BY e.enrolled_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, mapErr("list enrollments", err)
	}
	defer rows.Close()

	var out []*model.EnrolledCourse
	for rows.Next() {
		var ec model.EnrolledCourse
		if err := rows.Scan(&ec.UserID, &ec.CourseID, &ec.EnrolledAt, &ec.ExpiresAt, &ec.CompletionPercentage, &ec.CourseTitle); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &ec)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list enrollments", err)
	}
	return out, nil
}

var _ repository.WatchHistoryRepository = (*watchHistoryRepo)(nil)

type watchHistoryRepo struct{ pool *pgxpool.Pool }

func NewWatchHistoryRepo(pool *pgxpool.Pool) *watchHistoryRepo {
	return &watchHistoryRepo{pool: pool}
}

func (r *watchHistoryRepo) Upsert(ctx context.Context, tx repository.Tx, w *model.WatchHistory) error {
	const q = `
INSERT INTO watch_history (user_id, lesson_id, progress, updated_at) VALUES ($1,$2,$3,$4)
ON CONFLICT (user_id, lesson_id) DO UPDATE SET progress=EXCLUDED.progress, updated_at=EXCLUDED.updated_at;`
	_, err := execSQL(ctx, r.pool, tx, q, w.UserID, w.LessonID, w.Progress, w.UpdatedAt)
	return mapErr("upsert watch history", err)
}

func (r *watchHistoryRepo) CountCompleted(ctx context.Context, tx repository.Tx, userID, courseID string) (int, error) {
	const q = `
SELECT COUNT(*) FROM watch_history w JOIN lessons l ON l.id = w.lesson_id
WHERE w.user_id=$1 AND l.course_id=$2 AND w.progress=$3;`
	row, err := pickRow(ctx, r.pool, tx, q, userID, courseID, model.LessonCompleted)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}
