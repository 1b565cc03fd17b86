package repository

import (
	"context"

	"course-purchase/internal/domain/model"
)

// -----------------------------
// Enrollments & progress
// -----------------------------

type EnrollmentRepository interface {
	Find(ctx context.Context, tx Tx, userID, courseID string) (*model.Enrollment, error)
	// Create returns domain.ErrAlreadyExists when (user, course) is taken.
	Create(ctx context.Context, tx Tx, e *model.Enrollment) error
	UpdateCompletion(ctx context.Context, tx Tx, userID, courseID string, pct int) error
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.EnrolledCourse, error)
}

type WatchHistoryRepository interface {
	Upsert(ctx context.Context, tx Tx, w *model.WatchHistory) error
	// CountCompleted counts the user's fully watched lessons in a course.
	CountCompleted(ctx context.Context, tx Tx, userID, courseID string) (int, error)
}
