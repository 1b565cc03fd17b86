//go:build !integration

package web

import (
	"context"
	"time"

	"course-purchase/internal/domain/model"
	"course-purchase/internal/usecase"
)

type mockPurchaseUC struct {
	QuoteFunc         func(ctx context.Context, q usecase.OrderQuery) (*usecase.Quote, error)
	CreateOrderFunc   func(ctx context.Context, q usecase.OrderQuery) (*usecase.OrderResult, error)
	VerifyPaymentFunc func(ctx context.Context, cmd usecase.VerifyPaymentCommand) (*model.Sale, error)
	HistoryFunc       func(ctx context.Context, userID string) ([]*model.SaleSummary, error)
}

func (m *mockPurchaseUC) Quote(ctx context.Context, q usecase.OrderQuery) (*usecase.Quote, error) {
	return m.QuoteFunc(ctx, q)
}

func (m *mockPurchaseUC) CreateOrder(ctx context.Context, q usecase.OrderQuery) (*usecase.OrderResult, error) {
	return m.CreateOrderFunc(ctx, q)
}

func (m *mockPurchaseUC) VerifyPayment(ctx context.Context, cmd usecase.VerifyPaymentCommand) (*model.Sale, error) {
	return m.VerifyPaymentFunc(ctx, cmd)
}

func (m *mockPurchaseUC) History(ctx context.Context, userID string) ([]*model.SaleSummary, error) {
	return m.HistoryFunc(ctx, userID)
}

func (m *mockPurchaseUC) ExpireStale(ctx context.Context, olderThan time.Time, limit int) (int, error) {
	return 0, nil
}

type mockLearningUC struct {
	UpdateProgressFunc func(ctx context.Context, cmd usecase.ProgressCommand) (int, error)
	MyCoursesFunc      func(ctx context.Context, userID string) ([]*model.EnrolledCourse, error)
}

func (m *mockLearningUC) UpdateProgress(ctx context.Context, cmd usecase.ProgressCommand) (int, error) {
	return m.UpdateProgressFunc(ctx, cmd)
}

func (m *mockLearningUC) MyCourses(ctx context.Context, userID string) ([]*model.EnrolledCourse, error) {
	return m.MyCoursesFunc(ctx, userID)
}

type mockCertificateUC struct {
	ClaimFunc func(ctx context.Context, userID, courseID string) (*model.Certificate, error)
	ListFunc  func(ctx context.Context, userID string) ([]*model.IssuedCertificate, error)
}

func (m *mockCertificateUC) Claim(ctx context.Context, userID, courseID string) (*model.Certificate, error) {
	return m.ClaimFunc(ctx, userID, courseID)
}

func (m *mockCertificateUC) List(ctx context.Context, userID string) ([]*model.IssuedCertificate, error) {
	return m.ListFunc(ctx, userID)
}

type mockLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (m *mockLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	m.keys = append(m.keys, key)
	return m.allow, m.err
}
