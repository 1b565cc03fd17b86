package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"course-purchase/internal/domain"
	"course-purchase/internal/infra/metrics"
	"course-purchase/internal/usecase"
)

type orderRequest struct {
	CourseID   string `json:"courseId" validate:"required"`
	CouponCode string `json:"couponCode" validate:"omitempty,max=64"`
}

type orderResponse struct {
	SaleID         string      `json:"saleId"`
	GatewayOrderID string      `json:"gatewayOrderId"`
	Amount         json.Number `json:"amount"`
	Currency       string      `json:"currency"`
	GatewayKey     string      `json:"gatewayKey"`
}

type quoteResponse struct {
	CourseID       string      `json:"courseId"`
	OriginalAmount json.Number `json:"originalAmount"`
	DiscountAmount json.Number `json:"discountAmount"`
	FinalAmount    json.Number `json:"finalAmount"`
	Currency       string      `json:"currency"`
}

type verifyRequest struct {
	SaleID           string `json:"saleId" validate:"required"`
	GatewayPaymentID string `json:"gatewayPaymentId" validate:"required"`
	GatewayOrderID   string `json:"gatewayOrderId" validate:"required"`
	GatewaySignature string `json:"gatewaySignature" validate:"required"`
}

type historyItem struct {
	ID          string      `json:"id"`
	Amount      json.Number `json:"amount"`
	Currency    string      `json:"currency"`
	Status      string      `json:"status"`
	Date        time.Time   `json:"date"`
	CourseID    string      `json:"courseId"`
	CourseTitle string      `json:"courseTitle"`
}

type myCourseItem struct {
	CourseID             string     `json:"courseId"`
	CourseTitle          string     `json:"courseTitle"`
	EnrolledAt           time.Time  `json:"enrolledAt"`
	ExpiresAt            *time.Time `json:"expiresAt"`
	CompletionPercentage int        `json:"completionPercentage"`
	Active               bool       `json:"active"`
}

type progressRequest struct {
	LessonID string `json:"lessonId" validate:"required"`
	Progress *int   `json:"progress" validate:"required,min=0,max=100"`
}

type certificateItem struct {
	ID              string    `json:"id"`
	CourseID        string    `json:"courseId,omitempty"`
	CourseTitle     string    `json:"courseTitle,omitempty"`
	CertificateCode string    `json:"certificateCode"`
	IssueDate       time.Time `json:"issueDate"`
}

func (s *Server) handleInitiate(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	res, err := s.purchaseUC.CreateOrder(r.Context(), usecase.OrderQuery{
		UserID:     userID(r.Context()),
		CourseID:   req.CourseID,
		CouponCode: req.CouponCode,
	})
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	ok(w, http.StatusCreated, "order created", orderResponse{
		SaleID:         res.SaleID,
		GatewayOrderID: res.GatewayOrderID,
		Amount:         money(res.Amount),
		Currency:       res.Currency,
		GatewayKey:     res.GatewayKey,
	})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	q, err := s.purchaseUC.Quote(r.Context(), usecase.OrderQuery{
		UserID:     userID(r.Context()),
		CourseID:   req.CourseID,
		CouponCode: req.CouponCode,
	})
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	ok(w, http.StatusOK, "quote", quoteResponse{
		CourseID:       q.CourseID,
		OriginalAmount: money(q.OriginalAmount),
		DiscountAmount: money(q.DiscountAmount),
		FinalAmount:    money(q.FinalAmount),
		Currency:       q.Currency,
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result, reason := "ok", ""
	defer func() {
		metrics.PaymentVerifyRequests.WithLabelValues(result, reason).Inc()
		metrics.PaymentVerifyDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	}()

	var req verifyRequest
	if err := decode(w, r, &req); err != nil {
		result, reason = "fail", "bad_request"
		writeError(w, r, s.log, err)
		return
	}
	_, err := s.purchaseUC.VerifyPayment(r.Context(), usecase.VerifyPaymentCommand{
		UserID:           userID(r.Context()),
		SaleID:           req.SaleID,
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		GatewaySignature: req.GatewaySignature,
	})
	if err != nil {
		result, reason = "fail", verifyFailReason(err)
		writeError(w, r, s.log, err)
		return
	}
	ok(w, http.StatusOK, "payment verified, you are now enrolled", nil)
}

func verifyFailReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return "bad_request"
	case errors.Is(err, domain.ErrOrderNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrPaymentVerificationFailed):
		return "signature"
	case errors.Is(err, domain.ErrAlreadyEnrolled):
		return "already_enrolled"
	default:
		return "internal"
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sales, err := s.purchaseUC.History(r.Context(), userID(r.Context()))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	out := make([]historyItem, 0, len(sales))
	for _, sale := range sales {
		out = append(out, historyItem{
			ID:          sale.ID,
			Amount:      money(sale.Amount),
			Currency:    sale.Currency,
			Status:      string(sale.Status),
			Date:        sale.CreatedAt,
			CourseID:    sale.CourseID,
			CourseTitle: sale.CourseTitle,
		})
	}
	ok(w, http.StatusOK, "purchase history", out)
}

func (s *Server) handleMyCourses(w http.ResponseWriter, r *http.Request) {
	list, err := s.learningUC.MyCourses(r.Context(), userID(r.Context()))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	now := time.Now()
	out := make([]myCourseItem, 0, len(list))
	for _, c := range list {
		out = append(out, myCourseItem{
			CourseID:             c.CourseID,
			CourseTitle:          c.CourseTitle,
			EnrolledAt:           c.EnrolledAt,
			ExpiresAt:            c.ExpiresAt,
			CompletionPercentage: c.CompletionPercentage,
			Active:               c.ActiveAt(now),
		})
	}
	ok(w, http.StatusOK, "my courses", out)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	pct, err := s.learningUC.UpdateProgress(r.Context(), usecase.ProgressCommand{
		UserID:   userID(r.Context()),
		LessonID: req.LessonID,
		Progress: *req.Progress,
	})
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	ok(w, http.StatusOK, "progress saved", map[string]int{"newCompletionPercentage": pct})
}

func (s *Server) handleClaimCertificate(w http.ResponseWriter, r *http.Request) {
	cert, err := s.certificateUC.Claim(r.Context(), userID(r.Context()), chi.URLParam(r, "courseId"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	ok(w, http.StatusCreated, "certificate issued", certificateItem{
		ID:              cert.ID,
		CertificateCode: cert.Code,
		IssueDate:       cert.IssuedAt,
	})
}

func (s *Server) handleMyCertificates(w http.ResponseWriter, r *http.Request) {
	certs, err := s.certificateUC.List(r.Context(), userID(r.Context()))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	out := make([]certificateItem, 0, len(certs))
	for _, c := range certs {
		out = append(out, certificateItem{
			ID:              c.ID,
			CourseID:        c.CourseID,
			CourseTitle:     c.CourseTitle,
			CertificateCode: c.Code,
			IssueDate:       c.IssuedAt,
		})
	}
	ok(w, http.StatusOK, "my certificates", out)
}
