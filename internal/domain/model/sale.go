package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type SaleStatus string

const (
	SaleStatusPending SaleStatus = "pending" // order created; awaiting payment verification
	SaleStatusPaid    SaleStatus = "paid"    // verified; enrollment exists
	SaleStatusFailed  SaleStatus = "failed"  // verification failed or abandoned
)

// Failure reasons recorded on failed sales.
const (
	FailureSignatureMismatch = "signature_mismatch"
	FailureAlreadyEnrolled   = "already_enrolled"
	FailureAbandoned         = "abandoned"
)

// Sale is one purchase attempt. A user may have many sales for the same
// course (retries); the enrollment table is the uniqueness boundary for access.
type Sale struct {
	ID               string
	UserID           string
	CourseID         string
	OriginalAmount   decimal.Decimal
	DiscountAmount   decimal.Decimal
	FinalAmount      decimal.Decimal
	Currency         string
	Status           SaleStatus
	CouponID         *string
	Gateway          string
	GatewayOrderID   string
	GatewayPaymentID *string
	GatewaySignature *string
	FailureReason    *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	PaidAt           *time.Time
}

func (s *Sale) IsPending() bool { return s != nil && s.Status == SaleStatusPending }

// SaleSummary is a purchase-history row joined with the course title.
type SaleSummary struct {
	ID          string
	Amount      decimal.Decimal
	Currency    string
	Status      SaleStatus
	CreatedAt   time.Time
	CourseID    string
	CourseTitle string
}

// Settleable reports whether a valid payment may still settle the sale. An
// abandoned sale was only timed out locally; the gateway may have captured it.
func (s *Sale) Settleable() bool {
	if s == nil {
		return false
	}
	switch s.Status {
	case SaleStatusPending:
		return true
	case SaleStatusFailed:
		return s.FailureReason != nil && *s.FailureReason == FailureAbandoned
	}
	return false
}
