// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"course-purchase/internal/config"
	"course-purchase/internal/domain/ports/repository"
	pg "course-purchase/internal/infra/db/postgres"
	"course-purchase/internal/infra/logging"
	"course-purchase/internal/infra/metrics"
	"course-purchase/internal/infra/notify"
	"course-purchase/internal/infra/payment"
	red "course-purchase/internal/infra/redis"
	"course-purchase/internal/infra/sched"
	"course-purchase/internal/infra/web"
	"course-purchase/internal/infra/worker"
	"course-purchase/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("config")
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	if v, err := pg.MigrateUp(cfg.Database.URL); err != nil {
		logger.Fatal().Err(err).Msg("migrations")
	} else {
		logger.Info().Uint("version", v).Msg("schema up to date")
	}
	pool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	go pg.ReportPoolStats(ctx, pool, 0, logger)

	// ---- Repositories ----
	var courseRepo repository.CourseRepository = pg.NewCourseRepo(pool)
	lessonRepo := pg.NewLessonRepo(pool)
	couponRepo := pg.NewCouponRepo(pool)
	saleRepo := pg.NewSaleRepo(pool)
	enrollmentRepo := pg.NewEnrollmentRepo(pool)
	historyRepo := pg.NewWatchHistoryRepo(pool)
	certRepo := pg.NewCertificateRepo(pool)
	tm := pg.NewTxManager(pool)

	// ---- Redis (optional) ----
	var limiter web.Limiter
	var locker sched.Locker
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		courseRepo = pg.NewCourseRepoCacheDecorator(courseRepo, redisClient, cfg.Redis.CourseTTL, logger)
		limiter = red.NewRateLimiter(redisClient)
		locker = red.NewLocker(redisClient)
		logger.Info().Msg("redis enabled: course cache, rate limiting, reconciler lock")
	} else {
		logger.Warn().Msg("redis.url not set; caching and rate limiting disabled")
	}

	// ---- Notifications ----
	var sender notify.Sender = notify.NewLogSender(logger)
	if cfg.Notify.Enabled {
		fcm, err := notify.NewFCMSender(ctx, cfg.Notify.ProjectID, cfg.Notify.CredentialsFile)
		if err != nil {
			logger.Fatal().Err(err).Msg("firebase")
		}
		sender = fcm
	}
	notifyPool := worker.NewPool(cfg.Notify.Workers, cfg.Notify.QueueSize, logger)
	// workers outlive the signal context so queued notifications drain on shutdown
	notifyPool.Start(context.Background())
	notifier := notify.NewDispatcher(sender, notifyPool, cfg.Notify.MaxAttempts, cfg.Notify.RetryBackoff, logger)

	// ---- Use cases ----
	gateway := payment.NewSimulatedGateway(cfg.Payment.KeyID, cfg.Payment.KeySecret)
	purchaseUC := usecase.NewPurchaseUseCase(
		usecase.PurchaseRepos{Courses: courseRepo, Coupons: couponRepo, Sales: saleRepo, Enrollments: enrollmentRepo},
		gateway, notifier, tm,
		usecase.PurchaseOptions{Currency: cfg.Payment.Currency, Location: cfg.Location()},
		logger,
	)
	learningUC := usecase.NewLearningUseCase(lessonRepo, enrollmentRepo, historyRepo, tm, logger)
	certificateUC := usecase.NewCertificateUseCase(courseRepo, enrollmentRepo, certRepo, notifier, logger)

	// ---- Reconciler ----
	reconciler := sched.NewSaleReconciler(purchaseUC, locker, cfg.Reconciler.Interval, cfg.Reconciler.StaleAfter, cfg.Reconciler.BatchSize, logger)
	go func() { _ = reconciler.Run(ctx) }()

	// ---- HTTP ----
	auth := web.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	srv := web.NewServer(purchaseUC, learningUC, certificateUC, auth, limiter, web.Options{
		RequestTimeout:    cfg.Server.RequestTimeout,
		PurchasePerWindow: cfg.RateLimit.PurchasePerWindow,
		RateWindow:        cfg.RateLimit.Window,
	}, logger)
	server := web.NewHTTPServer(cfg.Server.Addr, srv.Routes(), cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
	go func() {
		logger.Info().Str("addr", server.Addr).Str("gateway", gateway.Name()).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			stop()
		}
	}()

	// ---- Graceful shutdown ----
	<-ctx.Done()
	logger.Info().Msg("shutdown requested")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	notifyPool.Stop()
	logger.Info().Msg("bye")
}
