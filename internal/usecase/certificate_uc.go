package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"course-purchase/internal/domain"
	"course-purchase/internal/domain/model"
	"course-purchase/internal/domain/ports/adapter"
	"course-purchase/internal/domain/ports/repository"
	"course-purchase/internal/infra/logging"
	"course-purchase/internal/infra/metrics"
)

var _ CertificateUseCase = (*certificateUC)(nil)

type CertificateUseCase interface {
	Claim(ctx context.Context, userID, courseID string) (*model.Certificate, error)
	List(ctx context.Context, userID string) ([]*model.IssuedCertificate, error)
}

type certificateUC struct {
	courses      repository.CourseRepository
	enrollments  repository.EnrollmentRepository
	certificates repository.CertificateRepository
	notifier     adapter.Notifier
	now          func() time.Time
	log          *zerolog.Logger
}

func NewCertificateUseCase(
	courses repository.CourseRepository,
	enrollments repository.EnrollmentRepository,
	certificates repository.CertificateRepository,
	notifier adapter.Notifier,
	logger *zerolog.Logger,
) *certificateUC {
	return &certificateUC{
		courses:      courses,
		enrollments:  enrollments,
		certificates: certificates,
		notifier:     notifier,
		now:          time.Now,
		log:          logging.OrNop(logger),
	}
}

// Claim issues the user's certificate for a course. The preconditions are
// checked in order and each has its own error.
func (u *certificateUC) Claim(ctx context.Context, userID, courseID string) (*model.Certificate, error) {
	defer logging.TraceDuration(u.log, "CertificateUC.Claim")()
	if userID == "" || courseID == "" {
		return nil, domain.ErrInvalidArgument
	}

	e, err := u.enrollments.Find(ctx, repository.NoTX, userID, courseID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotEnrolled
		}
		return nil, err
	}
	if !e.Completed() {
		return nil, domain.ErrCourseNotCompleted
	}

	course, err := u.courses.FindByID(ctx, repository.NoTX, courseID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, err
	}
	if !course.CertificateEnabled {
		return nil, domain.ErrCertificatesNotOffered
	}

	if _, err := u.certificates.Find(ctx, repository.NoTX, userID, courseID); err == nil {
		return nil, domain.ErrAlreadyClaimed
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	cert := &model.Certificate{
		ID:       uuid.NewString(),
		UserID:   userID,
		CourseID: courseID,
		Code:     model.NewCertificateCode(courseID, userID),
		IssuedAt: u.now(),
	}
	if err := u.certificates.Create(ctx, repository.NoTX, cert); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.ErrAlreadyClaimed
		}
		return nil, err
	}

	metrics.IncCertificateIssued()
	logging.With(ctx, u.log).Info().Str("course_id", courseID).Str("code", cert.Code).Msg("certificate issued")

	if u.notifier != nil {
		n := adapter.Notification{
			Kind:   adapter.NotifyCertificateIssued,
			UserID: userID,
			Title:  "Certificate issued",
			Body:   "Congratulations! Your certificate for " + course.Title + " is ready.",
			Data:   map[string]string{"courseId": courseID, "certificateCode": cert.Code},
		}
		if err := u.notifier.Notify(ctx, n); err != nil {
			u.log.Warn().Err(err).Msg("certificate notification not queued")
		}
	}
	return cert, nil
}

func (u *certificateUC) List(ctx context.Context, userID string) ([]*model.IssuedCertificate, error) {
	defer logging.TraceDuration(u.log, "CertificateUC.List")()
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.certificates.ListByUser(ctx, repository.NoTX, userID)
}
