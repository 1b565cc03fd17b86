package repository

import (
	"context"
	"time"

	"course-purchase/internal/domain/model"
)

// -----------------------------
// Sales
// -----------------------------

type SaleRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Sale) error
	// FindSettleableForUser returns the sale only when it belongs to userID and
	// is pending or abandoned (model.Sale.Settleable); otherwise domain.ErrNotFound.
	FindSettleableForUser(ctx context.Context, tx Tx, id, userID string) (*model.Sale, error)
	// MarkPaid settles a pending or abandoned sale. MarkFailed only moves a
	// pending sale. Both report whether a row changed.
	MarkPaid(ctx context.Context, tx Tx, id, paymentID, signature string, paidAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, tx Tx, id, reason string) (bool, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.SaleSummary, error)
	CountPaidByUser(ctx context.Context, tx Tx, userID string) (int, error)
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Sale, error)
}
