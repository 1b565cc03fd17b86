//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"course-purchase/internal/domain"
	"course-purchase/internal/domain/model"
	"course-purchase/internal/domain/ports/adapter"
	"course-purchase/internal/domain/ports/repository"
)

// -----------------------------
// In-memory store shared by all fake repositories
// -----------------------------

type memStore struct {
	mu          sync.Mutex
	courses     map[string]model.Course
	lessons     map[string]model.Lesson
	coupons     map[string]model.Coupon // by code
	usages      []model.CouponUsage
	sales       map[string]model.Sale
	enrollments map[string]model.Enrollment   // user|course
	history     map[string]model.WatchHistory // user|lesson
	certs       map[string]model.Certificate  // user|course

	// fault injection
	CreateEnrollmentErr error
	SaveUsageErr        error
	CreateCertErr       error
}

func newMemStore() *memStore {
	return &memStore{
		courses:     map[string]model.Course{},
		lessons:     map[string]model.Lesson{},
		coupons:     map[string]model.Coupon{},
		sales:       map[string]model.Sale{},
		enrollments: map[string]model.Enrollment{},
		history:     map[string]model.WatchHistory{},
		certs:       map[string]model.Certificate{},
	}
}

func key(a, b string) string { return a + "|" + b }

type memSnapshot struct {
	usages      []model.CouponUsage
	sales       map[string]model.Sale
	enrollments map[string]model.Enrollment
	history     map[string]model.WatchHistory
	certs       map[string]model.Certificate
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memSnapshot{
		usages:      append([]model.CouponUsage(nil), s.usages...),
		sales:       copyMap(s.sales),
		enrollments: copyMap(s.enrollments),
		history:     copyMap(s.history),
		certs:       copyMap(s.certs),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usages = snap.usages
	s.sales = snap.sales
	s.enrollments = snap.enrollments
	s.history = snap.history
	s.certs = snap.certs
}

// ---- seeding helpers ----

func (s *memStore) addCourse(c model.Course) { s.courses[c.ID] = c }

func (s *memStore) addLessons(courseID string, ids ...string) {
	for i, id := range ids {
		s.lessons[id] = model.Lesson{ID: id, CourseID: courseID, Title: id, Position: i + 1}
	}
}

func (s *memStore) addCoupon(c model.Coupon) { s.coupons[c.Code] = c }

func (s *memStore) addEnrollment(e model.Enrollment) { s.enrollments[key(e.UserID, e.CourseID)] = e }

func (s *memStore) sale(id string) model.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sales[id]
}

func (s *memStore) enrollment(userID, courseID string) (model.Enrollment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.enrollments[key(userID, courseID)]
	return e, ok
}

func (s *memStore) usageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.usages)
}

func (s *memStore) certCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.certs)
}

// ---- Mock TransactionManager ----

// memTxManager rolls the store back to its state before fn when fn fails.
type memTxManager struct {
	store *memStore
	Calls int
}

var _ repository.TransactionManager = (*memTxManager)(nil)

func (m *memTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.Calls++
	snap := m.store.snapshot()
	if err := fn(ctx, "mem-tx"); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

// -----------------------------
// Fake repositories
// -----------------------------

type memCourseRepo struct{ s *memStore }

var _ repository.CourseRepository = (*memCourseRepo)(nil)

func (r *memCourseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.courses[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

type memLessonRepo struct{ s *memStore }

var _ repository.LessonRepository = (*memLessonRepo)(nil)

func (r *memLessonRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Lesson, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.lessons[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &l, nil
}

func (r *memLessonRepo) CountByCourse(ctx context.Context, tx repository.Tx, courseID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, l := range r.s.lessons {
		if l.CourseID == courseID {
			n++
		}
	}
	return n, nil
}

type memCouponRepo struct{ s *memStore }

var _ repository.CouponRepository = (*memCouponRepo)(nil)

func (r *memCouponRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.coupons[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (r *memCouponRepo) CountUsages(ctx context.Context, tx repository.Tx, couponID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, u := range r.s.usages {
		if u.CouponID == couponID {
			n++
		}
	}
	return n, nil
}

func (r *memCouponRepo) SaveUsage(ctx context.Context, tx repository.Tx, u *model.CouponUsage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.SaveUsageErr != nil {
		return r.s.SaveUsageErr
	}
	for _, existing := range r.s.usages {
		if existing.SaleID == u.SaleID {
			return domain.ErrAlreadyExists
		}
	}
	r.s.usages = append(r.s.usages, *u)
	return nil
}

type memSaleRepo struct{ s *memStore }

var _ repository.SaleRepository = (*memSaleRepo)(nil)

func (r *memSaleRepo) Save(ctx context.Context, tx repository.Tx, sale *model.Sale) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sales[sale.ID] = *sale
	return nil
}

func (r *memSaleRepo) FindSettleableForUser(ctx context.Context, tx repository.Tx, id, userID string) (*model.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sale, ok := r.s.sales[id]
	if !ok || sale.UserID != userID || !sale.Settleable() {
		return nil, domain.ErrNotFound
	}
	return &sale, nil
}

func (r *memSaleRepo) MarkPaid(ctx context.Context, tx repository.Tx, id, paymentID, signature string, paidAt time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sale, ok := r.s.sales[id]
	if !ok || !sale.Settleable() {
		return false, nil
	}
	sale.Status = model.SaleStatusPaid
	sale.FailureReason = nil
	sale.GatewayPaymentID = &paymentID
	sale.GatewaySignature = &signature
	sale.PaidAt = &paidAt
	sale.UpdatedAt = paidAt
	r.s.sales[id] = sale
	return true, nil
}

func (r *memSaleRepo) MarkFailed(ctx context.Context, tx repository.Tx, id, reason string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sale, ok := r.s.sales[id]
	if !ok || sale.Status != model.SaleStatusPending {
		return false, nil
	}
	sale.Status = model.SaleStatusFailed
	sale.FailureReason = &reason
	r.s.sales[id] = sale
	return true, nil
}

func (r *memSaleRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.SaleSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.SaleSummary
	for _, sale := range r.s.sales {
		if sale.UserID != userID {
			continue
		}
		out = append(out, &model.SaleSummary{
			ID:          sale.ID,
			Amount:      sale.FinalAmount,
			Currency:    sale.Currency,
			Status:      sale.Status,
			CreatedAt:   sale.CreatedAt,
			CourseID:    sale.CourseID,
			CourseTitle: r.s.courses[sale.CourseID].Title,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memSaleRepo) CountPaidByUser(ctx context.Context, tx repository.Tx, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, sale := range r.s.sales {
		if sale.UserID == userID && sale.Status == model.SaleStatusPaid {
			n++
		}
	}
	return n, nil
}

func (r *memSaleRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Sale
	for _, sale := range r.s.sales {
		if sale.Status == model.SaleStatusPending && sale.CreatedAt.Before(olderThan) {
			cp := sale
			out = append(out, &cp)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memEnrollmentRepo struct{ s *memStore }

var _ repository.EnrollmentRepository = (*memEnrollmentRepo)(nil)

func (r *memEnrollmentRepo) Find(ctx context.Context, tx repository.Tx, userID, courseID string) (*model.Enrollment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.enrollments[key(userID, courseID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

func (r *memEnrollmentRepo) Create(ctx context.Context, tx repository.Tx, e *model.Enrollment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.CreateEnrollmentErr != nil {
		return r.s.CreateEnrollmentErr
	}
	k := key(e.UserID, e.CourseID)
	if _, ok := r.s.enrollments[k]; ok {
		return domain.ErrAlreadyExists
	}
	r.s.enrollments[k] = *e
	return nil
}

func (r *memEnrollmentRepo) UpdateCompletion(ctx context.Context, tx repository.Tx, userID, courseID string, pct int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := key(userID, courseID)
	e, ok := r.s.enrollments[k]
	if !ok {
		return domain.ErrNotFound
	}
	e.CompletionPercentage = pct
	r.s.enrollments[k] = e
	return nil
}

func (r *memEnrollmentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.EnrolledCourse, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.EnrolledCourse
	for _, e := range r.s.enrollments {
		if e.UserID == userID {
			out = append(out, &model.EnrolledCourse{Enrollment: e, CourseTitle: r.s.courses[e.CourseID].Title})
		}
	}
	return out, nil
}

type memWatchHistoryRepo struct{ s *memStore }

var _ repository.WatchHistoryRepository = (*memWatchHistoryRepo)(nil)

func (r *memWatchHistoryRepo) Upsert(ctx context.Context, tx repository.Tx, w *model.WatchHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.history[key(w.UserID, w.LessonID)] = *w
	return nil
}

func (r *memWatchHistoryRepo) CountCompleted(ctx context.Context, tx repository.Tx, userID, courseID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, w := range r.s.history {
		if w.UserID == userID && w.Progress == model.LessonCompleted && r.s.lessons[w.LessonID].CourseID == courseID {
			n++
		}
	}
	return n, nil
}

type memCertificateRepo struct{ s *memStore }

var _ repository.CertificateRepository = (*memCertificateRepo)(nil)

func (r *memCertificateRepo) Find(ctx context.Context, tx repository.Tx, userID, courseID string) (*model.Certificate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.certs[key(userID, courseID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (r *memCertificateRepo) Create(ctx context.Context, tx repository.Tx, c *model.Certificate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.CreateCertErr != nil {
		return r.s.CreateCertErr
	}
	k := key(c.UserID, c.CourseID)
	if _, ok := r.s.certs[k]; ok {
		return domain.ErrAlreadyExists
	}
	r.s.certs[k] = *c
	return nil
}

func (r *memCertificateRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.IssuedCertificate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.IssuedCertificate
	for _, c := range r.s.certs {
		if c.UserID == userID {
			out = append(out, &model.IssuedCertificate{Certificate: c, CourseTitle: r.s.courses[c.CourseID].Title})
		}
	}
	return out, nil
}

// =============================
// Adapters
// =============================

// ---- Mock PaymentGateway ----

// MockGateway accepts a signature equal to sign(orderID, paymentID).
type MockGateway struct {
	mu     sync.Mutex
	orders int

	CreateOrderFunc func(ctx context.Context, amountMinor int64, currency, receipt string) (adapter.GatewayOrder, error)
	LastAmount      int64
}

var _ adapter.PaymentGateway = (*MockGateway)(nil)

var errBadSignature = errors.New("mock: bad signature")

func sign(orderID, paymentID string) string { return "sig:" + orderID + "|" + paymentID }

func (m *MockGateway) Name() string  { return "mockpay" }
func (m *MockGateway) KeyID() string { return "key_test" }

func (m *MockGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (adapter.GatewayOrder, error) {
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, amountMinor, currency, receipt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders++
	m.LastAmount = amountMinor
	return adapter.GatewayOrder{
		OrderID:     "order_" + receipt,
		AmountMinor: amountMinor,
		Currency:    currency,
		Receipt:     receipt,
	}, nil
}

func (m *MockGateway) VerifySignature(orderID, paymentID, signature string) error {
	if signature != sign(orderID, paymentID) {
		return errBadSignature
	}
	return nil
}

// ---- Mock Notifier ----

type MockNotifier struct {
	mu   sync.Mutex
	Sent []adapter.Notification
}

var _ adapter.Notifier = (*MockNotifier)(nil)

func (m *MockNotifier) Notify(ctx context.Context, n adapter.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, n)
	return nil
}

func (m *MockNotifier) kinds() []adapter.NotificationKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]adapter.NotificationKind, 0, len(m.Sent))
	for _, n := range m.Sent {
		out = append(out, n.Kind)
	}
	return out
}

// -----------------------------
// Utilities
// -----------------------------

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func intPtr(n int) *int { return &n }
