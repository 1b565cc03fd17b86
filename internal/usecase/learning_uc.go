package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"course-purchase/internal/domain"
	"course-purchase/internal/domain/model"
	"course-purchase/internal/domain/ports/repository"
	"course-purchase/internal/infra/logging"
	"course-purchase/internal/infra/metrics"
)

var _ LearningUseCase = (*learningUC)(nil)

type LearningUseCase interface {
	// UpdateProgress records lesson progress and returns the recomputed
	// completion percentage of the lesson's course.
	UpdateProgress(ctx context.Context, cmd ProgressCommand) (int, error)
	MyCourses(ctx context.Context, userID string) ([]*model.EnrolledCourse, error)
}

type ProgressCommand struct {
	UserID   string
	LessonID string
	Progress int
}

type learningUC struct {
	lessons     repository.LessonRepository
	enrollments repository.EnrollmentRepository
	history     repository.WatchHistoryRepository
	tm          repository.TransactionManager
	now         func() time.Time
	log         *zerolog.Logger
}

func NewLearningUseCase(
	lessons repository.LessonRepository,
	enrollments repository.EnrollmentRepository,
	history repository.WatchHistoryRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *learningUC {
	return &learningUC{
		lessons:     lessons,
		enrollments: enrollments,
		history:     history,
		tm:          tm,
		now:         time.Now,
		log:         logging.OrNop(logger),
	}
}

func (u *learningUC) UpdateProgress(ctx context.Context, cmd ProgressCommand) (int, error) {
	defer logging.TraceDuration(u.log, "LearningUC.UpdateProgress")()

	if cmd.UserID == "" || cmd.LessonID == "" || !model.ValidProgress(cmd.Progress) {
		return 0, domain.ErrInvalidArgument
	}

	lesson, err := u.lessons.FindByID(ctx, repository.NoTX, cmd.LessonID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.ErrLessonNotFound
		}
		return 0, err
	}

	now := u.now()
	var pct int
	var justCompleted bool
	err = u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		// Locks the enrollment row so concurrent updates recompute in turn.
		e, err := u.enrollments.Find(ctx, tx, cmd.UserID, lesson.CourseID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNotEnrolled
			}
			return err
		}
		if !e.ActiveAt(now) {
			return domain.ErrAccessExpired
		}

		if err := u.history.Upsert(ctx, tx, &model.WatchHistory{
			UserID:    cmd.UserID,
			LessonID:  lesson.ID,
			Progress:  cmd.Progress,
			UpdatedAt: now,
		}); err != nil {
			return err
		}

		completed, err := u.history.CountCompleted(ctx, tx, cmd.UserID, lesson.CourseID)
		if err != nil {
			return err
		}
		total, err := u.lessons.CountByCourse(ctx, tx, lesson.CourseID)
		if err != nil {
			return err
		}

		pct = model.CompletionPercentage(completed, total)
		justCompleted = pct == 100 && !e.Completed()
		if pct == e.CompletionPercentage {
			return nil
		}
		return u.enrollments.UpdateCompletion(ctx, tx, cmd.UserID, lesson.CourseID, pct)
	})
	if err != nil {
		return 0, err
	}

	metrics.IncProgressUpdate()
	if justCompleted {
		metrics.IncCourseCompletion()
		logging.With(ctx, u.log).Info().Str("course_id", lesson.CourseID).Msg("course completed")
	}
	return pct, nil
}

func (u *learningUC) MyCourses(ctx context.Context, userID string) ([]*model.EnrolledCourse, error) {
	defer logging.TraceDuration(u.log, "LearningUC.MyCourses")()
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.enrollments.ListByUser(ctx, repository.NoTX, userID)
}
