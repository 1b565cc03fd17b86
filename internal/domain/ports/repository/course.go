package repository

import (
	"context"

	"course-purchase/internal/domain/model"
)

// CourseRepository is the read-only port onto the course catalog.
type CourseRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.Course, error)
}

type LessonRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.Lesson, error)
	CountByCourse(ctx context.Context, tx Tx, courseID string) (int, error)
}
