package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"course-purchase/internal/infra/logging"
	"course-purchase/internal/usecase"
)

type Options struct {
	RequestTimeout    time.Duration
	PurchasePerWindow int
	RateWindow        time.Duration
}

// Server exposes the student purchase, learning and certificate routes.
type Server struct {
	purchaseUC    usecase.PurchaseUseCase
	learningUC    usecase.LearningUseCase
	certificateUC usecase.CertificateUseCase
	auth          *AuthManager
	limiter       Limiter
	opts          Options
	log           *zerolog.Logger
}

func NewServer(
	purchaseUC usecase.PurchaseUseCase,
	learningUC usecase.LearningUseCase,
	certificateUC usecase.CertificateUseCase,
	auth *AuthManager,
	limiter Limiter,
	opts Options,
	logger *zerolog.Logger,
) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.PurchasePerWindow <= 0 {
		opts.PurchasePerWindow = 10
	}
	if opts.RateWindow <= 0 {
		opts.RateWindow = time.Minute
	}
	return &Server{
		purchaseUC:    purchaseUC,
		learningUC:    learningUC,
		certificateUC: certificateUC,
		auth:          auth,
		limiter:       limiter,
		opts:          opts,
		log:           logging.OrNop(logger),
	}
}

// Routes builds the router. Passing a nil limiter disables rate limiting.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log), Timeout(s.opts.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/student", func(r chi.Router) {
		r.Use(RequireRole(s.auth, RoleStudent))

		r.Route("/purchase", func(r chi.Router) {
			r.With(RateLimit(s.limiter, "purchase", s.opts.PurchasePerWindow, s.opts.RateWindow, s.log)).
				Post("/initiate", s.handleInitiate)
			r.Post("/quote", s.handleQuote)
			r.With(RateLimit(s.limiter, "verify", s.opts.PurchasePerWindow, s.opts.RateWindow, s.log)).
				Post("/verify", s.handleVerify)
			r.Get("/history", s.handleHistory)
		})

		r.Get("/my-courses", s.handleMyCourses)
		r.Post("/my-courses/progress", s.handleProgress)
		r.Post("/my-courses/{courseId}/claim-certificate", s.handleClaimCertificate)
		r.Get("/my-certificates", s.handleMyCertificates)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, envelope{Message: "route not found"})
	})
	return r
}

// NewHTTPServer wraps handler with the configured timeouts.
func NewHTTPServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
	}
}
