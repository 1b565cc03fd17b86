// File: internal/usecase/purchase_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"course-purchase/internal/domain"
	"course-purchase/internal/domain/model"
	"course-purchase/internal/domain/ports/adapter"
	"course-purchase/internal/domain/ports/repository"
	"course-purchase/internal/infra/logging"
	"course-purchase/internal/infra/metrics"
)

// Compile-time check
var _ PurchaseUseCase = (*purchaseUC)(nil)

type PurchaseUseCase interface {
	// Quote prices a course for the user without writing anything.
	Quote(ctx context.Context, q OrderQuery) (*Quote, error)
	// CreateOrder registers a gateway order and a pending sale.
	CreateOrder(ctx context.Context, q OrderQuery) (*OrderResult, error)
	// VerifyPayment settles a pending sale and enrolls the user atomically.
	VerifyPayment(ctx context.Context, cmd VerifyPaymentCommand) (*model.Sale, error)
	// History lists the user's sales, newest first.
	History(ctx context.Context, userID string) ([]*model.SaleSummary, error)
	// ExpireStale fails pending sales created before olderThan and returns how many moved.
	ExpireStale(ctx context.Context, olderThan time.Time, limit int) (int, error)
}

// OrderQuery is the input of Quote and CreateOrder.
type OrderQuery struct {
	UserID     string
	CourseID   string
	CouponCode string // optional
}

type Quote struct {
	CourseID       string
	OriginalAmount decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalAmount    decimal.Decimal
	Currency       string
	CouponID       *string
}

// OrderResult is what the client needs to open the gateway checkout.
type OrderResult struct {
	SaleID         string
	GatewayOrderID string
	Amount         decimal.Decimal
	Currency       string
	GatewayKey     string
}

type VerifyPaymentCommand struct {
	UserID           string
	SaleID           string
	GatewayOrderID   string
	GatewayPaymentID string
	GatewaySignature string
}

// PurchaseRepos groups the stores the purchase flow touches.
type PurchaseRepos struct {
	Courses     repository.CourseRepository
	Coupons     repository.CouponRepository
	Sales       repository.SaleRepository
	Enrollments repository.EnrollmentRepository
}

type PurchaseOptions struct {
	Currency string         // ISO code sales are created in, e.g. "INR"
	Location *time.Location // business time zone for coupon windows
	Now      func() time.Time
}

type purchaseUC struct {
	courses     repository.CourseRepository
	coupons     repository.CouponRepository
	sales       repository.SaleRepository
	enrollments repository.EnrollmentRepository
	gateway     adapter.PaymentGateway
	notifier    adapter.Notifier
	tm          repository.TransactionManager
	opts        PurchaseOptions
	log         *zerolog.Logger
}

func NewPurchaseUseCase(
	repos PurchaseRepos,
	gateway adapter.PaymentGateway,
	notifier adapter.Notifier,
	tm repository.TransactionManager,
	opts PurchaseOptions,
	logger *zerolog.Logger,
) *purchaseUC {
	if opts.Currency == "" {
		opts.Currency = "INR"
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &purchaseUC{
		courses:     repos.Courses,
		coupons:     repos.Coupons,
		sales:       repos.Sales,
		enrollments: repos.Enrollments,
		gateway:     gateway,
		notifier:    notifier,
		tm:          tm,
		opts:        opts,
		log:         logging.OrNop(logger),
	}
}

func (u *purchaseUC) Quote(ctx context.Context, q OrderQuery) (*Quote, error) {
	defer logging.TraceDuration(u.log, "PurchaseUC.Quote")()
	_, quote, err := u.price(ctx, q)
	return quote, err
}

// price runs every order precondition and computes the amounts. It performs no writes.
func (u *purchaseUC) price(ctx context.Context, q OrderQuery) (*model.Course, *Quote, error) {
	if strings.TrimSpace(q.UserID) == "" || strings.TrimSpace(q.CourseID) == "" {
		return nil, nil, domain.ErrInvalidArgument
	}

	course, err := u.courses.FindByID(ctx, repository.NoTX, q.CourseID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrCourseNotFound
		}
		return nil, nil, err
	}

	if _, err := u.enrollments.Find(ctx, repository.NoTX, q.UserID, q.CourseID); err == nil {
		return nil, nil, domain.ErrAlreadyEnrolled
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, nil, err
	}

	coupon, err := u.resolveCoupon(ctx, q)
	if err != nil {
		return nil, nil, err
	}

	final, discount := model.ApplyCoupon(course.Price, coupon)
	quote := &Quote{
		CourseID:       course.ID,
		OriginalAmount: course.Price,
		DiscountAmount: discount,
		FinalAmount:    final,
		Currency:       u.opts.Currency,
	}
	if coupon != nil {
		id := coupon.ID
		quote.CouponID = &id
	}
	return course, quote, nil
}

// resolveCoupon returns nil, nil when no code was supplied.
func (u *purchaseUC) resolveCoupon(ctx context.Context, q OrderQuery) (*model.Coupon, error) {
	code := model.NormalizeCouponCode(q.CouponCode)
	if code == "" {
		return nil, nil
	}
	c, err := u.coupons.FindByCode(ctx, repository.NoTX, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCoupon
		}
		return nil, err
	}

	rc := model.RedemptionContext{
		CourseID: q.CourseID,
		Now:      u.opts.Now(),
		Location: u.opts.Location,
	}
	if c.UsageLimit != nil {
		if rc.UsageCount, err = u.coupons.CountUsages(ctx, repository.NoTX, c.ID); err != nil {
			return nil, err
		}
	}
	if c.FirstPurchaseOnly {
		if rc.PaidPurchases, err = u.sales.CountPaidByUser(ctx, repository.NoTX, q.UserID); err != nil {
			return nil, err
		}
	}
	if err := c.CheckApplicable(rc); err != nil {
		return nil, err
	}
	return c, nil
}

func (u *purchaseUC) CreateOrder(ctx context.Context, q OrderQuery) (*OrderResult, error) {
	defer logging.TraceDuration(u.log, "PurchaseUC.CreateOrder")()
	log := logging.With(ctx, u.log)

	course, quote, err := u.price(ctx, q)
	if err != nil {
		return nil, err
	}

	saleID := uuid.NewString()
	order, err := u.gateway.CreateOrder(ctx, model.MinorUnits(quote.FinalAmount), quote.Currency, saleID)
	if err != nil {
		log.Error().Err(err).Str("course_id", course.ID).Msg("gateway order creation failed")
		return nil, fmt.Errorf("%w: gateway order: %v", domain.ErrOperationFailed, err)
	}

	now := u.opts.Now()
	sale := &model.Sale{
		ID:             saleID,
		UserID:         q.UserID,
		CourseID:       course.ID,
		OriginalAmount: quote.OriginalAmount,
		DiscountAmount: quote.DiscountAmount,
		FinalAmount:    quote.FinalAmount,
		Currency:       quote.Currency,
		Status:         model.SaleStatusPending,
		CouponID:       quote.CouponID,
		Gateway:        u.gateway.Name(),
		GatewayOrderID: order.OrderID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := u.sales.Save(ctx, repository.NoTX, sale); err != nil {
		return nil, err
	}

	metrics.IncOrderCreated(quote.CouponID != nil)
	log.Info().
		Str("sale_id", sale.ID).
		Str("course_id", course.ID).
		Str("amount", sale.FinalAmount.StringFixed(2)).
		Msg("order created")

	return &OrderResult{
		SaleID:         sale.ID,
		GatewayOrderID: order.OrderID,
		Amount:         sale.FinalAmount,
		Currency:       sale.Currency,
		GatewayKey:     u.gateway.KeyID(),
	}, nil
}

func (u *purchaseUC) VerifyPayment(ctx context.Context, cmd VerifyPaymentCommand) (*model.Sale, error) {
	defer logging.TraceDuration(u.log, "PurchaseUC.VerifyPayment")()
	log := logging.With(ctx, u.log).With().Str("sale_id", cmd.SaleID).Logger()

	if cmd.UserID == "" || cmd.SaleID == "" || cmd.GatewayOrderID == "" ||
		cmd.GatewayPaymentID == "" || cmd.GatewaySignature == "" {
		return nil, domain.ErrInvalidArgument
	}

	sale, err := u.sales.FindSettleableForUser(ctx, repository.NoTX, cmd.SaleID, cmd.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	if sale.Status == model.SaleStatusFailed {
		log.Info().Msg("late verification for abandoned sale")
	}

	if cmd.GatewayOrderID != sale.GatewayOrderID {
		log.Warn().Msg("gateway order id does not belong to sale")
		u.fail(ctx, sale, model.FailureSignatureMismatch)
		return nil, domain.ErrPaymentVerificationFailed
	}
	if err := u.gateway.VerifySignature(cmd.GatewayOrderID, cmd.GatewayPaymentID, cmd.GatewaySignature); err != nil {
		log.Warn().Err(err).Msg("payment signature rejected")
		u.fail(ctx, sale, model.FailureSignatureMismatch)
		return nil, domain.ErrPaymentVerificationFailed
	}

	paidAt := u.opts.Now()
	var enrollment *model.Enrollment
	txOpts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	err = u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		ok, err := u.sales.MarkPaid(ctx, tx, sale.ID, cmd.GatewayPaymentID, cmd.GatewaySignature, paidAt)
		if err != nil {
			return err
		}
		if !ok {
			// settled by a concurrent request
			return domain.ErrOrderNotFound
		}

		course, err := u.courses.FindByID(ctx, tx, sale.CourseID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrCourseNotFound
			}
			return err
		}

		enrollment = &model.Enrollment{
			UserID:     sale.UserID,
			CourseID:   sale.CourseID,
			EnrolledAt: paidAt,
			ExpiresAt:  course.AccessExpiry(paidAt),
		}
		if err := u.enrollments.Create(ctx, tx, enrollment); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				return domain.ErrAlreadyEnrolled
			}
			return err
		}

		if sale.CouponID != nil {
			usage := &model.CouponUsage{
				ID:        uuid.NewString(),
				CouponID:  *sale.CouponID,
				UserID:    sale.UserID,
				SaleID:    sale.ID,
				CreatedAt: paidAt,
			}
			if err := u.coupons.SaveUsage(ctx, tx, usage); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyEnrolled) {
			// Can never succeed; close the sale outside the rolled back tx.
			u.fail(ctx, sale, model.FailureAlreadyEnrolled)
		}
		log.Error().Err(err).Msg("payment settlement rolled back")
		return nil, err
	}

	sale.Status = model.SaleStatusPaid
	sale.FailureReason = nil
	sale.GatewayPaymentID = &cmd.GatewayPaymentID
	sale.GatewaySignature = &cmd.GatewaySignature
	sale.PaidAt = &paidAt
	sale.UpdatedAt = paidAt

	metrics.IncPayment(string(model.SaleStatusPaid))
	metrics.AddPaymentRevenue(sale.Currency, model.MinorUnits(sale.FinalAmount))
	log.Info().Str("course_id", sale.CourseID).Msg("payment verified, user enrolled")

	u.notify(ctx, adapter.Notification{
		Kind:   adapter.NotifyEnrollmentConfirmed,
		UserID: sale.UserID,
		Title:  "Enrollment confirmed",
		Body:   "Your payment was received. Happy learning!",
		Data:   map[string]string{"saleId": sale.ID, "courseId": sale.CourseID},
	})
	return sale, nil
}

// fail moves a pending sale to failed. Errors are logged only; the caller
// already has a more meaningful error to return.
func (u *purchaseUC) fail(ctx context.Context, sale *model.Sale, reason string) {
	ok, err := u.sales.MarkFailed(ctx, repository.NoTX, sale.ID, reason)
	if err != nil {
		logging.With(ctx, u.log).Error().Err(err).Str("sale_id", sale.ID).Msg("mark sale failed")
		return
	}
	if !ok {
		return
	}
	sale.Status = model.SaleStatusFailed
	sale.FailureReason = &reason
	metrics.IncPayment(string(model.SaleStatusFailed))

	if reason == model.FailureSignatureMismatch {
		u.notify(ctx, adapter.Notification{
			Kind:   adapter.NotifyPaymentFailed,
			UserID: sale.UserID,
			Title:  "Payment failed",
			Body:   "We could not verify your payment. No enrollment was created.",
			Data:   map[string]string{"saleId": sale.ID, "courseId": sale.CourseID},
		})
	}
}

func (u *purchaseUC) notify(ctx context.Context, n adapter.Notification) {
	if u.notifier == nil {
		return
	}
	if err := u.notifier.Notify(ctx, n); err != nil {
		logging.With(ctx, u.log).Warn().Err(err).Str("kind", string(n.Kind)).Msg("notification not queued")
	}
}

func (u *purchaseUC) History(ctx context.Context, userID string) ([]*model.SaleSummary, error) {
	defer logging.TraceDuration(u.log, "PurchaseUC.History")()
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.sales.ListByUser(ctx, repository.NoTX, userID)
}

func (u *purchaseUC) ExpireStale(ctx context.Context, olderThan time.Time, limit int) (int, error) {
	defer logging.TraceDuration(u.log, "PurchaseUC.ExpireStale")()
	if limit <= 0 {
		limit = 100
	}
	stale, err := u.sales.ListPendingOlderThan(ctx, repository.NoTX, olderThan, limit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, s := range stale {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}
		ok, err := u.sales.MarkFailed(ctx, repository.NoTX, s.ID, model.FailureAbandoned)
		if err != nil {
			u.log.Error().Err(err).Str("sale_id", s.ID).Msg("expire stale sale")
			continue
		}
		if ok {
			expired++
		}
	}
	if expired > 0 {
		metrics.IncSalesExpired(expired)
		u.log.Info().Int("count", expired).Msg("stale pending sales failed")
	}
	return expired, nil
}
