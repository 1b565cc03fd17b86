package repository

import (
	"context"

	"course-purchase/internal/domain/model"
)

type CertificateRepository interface {
	Find(ctx context.Context, tx Tx, userID, courseID string) (*model.Certificate, error)
	// Create returns domain.ErrAlreadyExists when (user, course) already has one.
	Create(ctx context.Context, tx Tx, c *model.Certificate) error
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.IssuedCertificate, error)
}
