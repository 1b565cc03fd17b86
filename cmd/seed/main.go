package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"course-purchase/internal/config"
	"course-purchase/internal/domain/model"
	pg "course-purchase/internal/infra/db/postgres"
	"course-purchase/internal/infra/logging"
	"course-purchase/internal/infra/web"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := pg.MigrateUp(cfg.Database.URL); err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}
	pool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	today := time.Now().In(cfg.Location())
	catalog := pg.Catalog{
		Courses: []model.Course{
			{ID: "course-go", Title: "Production Go", Price: decimal.RequireFromString("1000"), AccessPolicy: model.AccessLifetime, CertificateEnabled: true},
			{ID: "course-sql", Title: "Postgres for Backend Engineers", Price: decimal.RequireFromString("499.99"), AccessPolicy: model.AccessExpiry, AccessDurationDays: 365},
		},
		Lessons: []model.Lesson{
			{ID: "go-1", CourseID: "course-go", Title: "Modules and packages", Position: 1},
			{ID: "go-2", CourseID: "course-go", Title: "Errors", Position: 2},
			{ID: "go-3", CourseID: "course-go", Title: "Concurrency", Position: 3},
			{ID: "sql-1", CourseID: "course-sql", Title: "Transactions", Position: 1},
			{ID: "sql-2", CourseID: "course-sql", Title: "Indexes", Position: 2},
		},
		Coupons: []model.Coupon{
			{
				ID: "coupon-summer25", Code: "SUMMER25", DiscountType: model.DiscountPercentage,
				Value: decimal.NewFromInt(25), ValidFrom: today.AddDate(0, -1, 0), ValidUntil: today.AddDate(0, 2, 0),
			},
			{
				ID: "coupon-welcome", Code: "WELCOME100", DiscountType: model.DiscountFixed,
				Value: decimal.NewFromInt(100), ValidFrom: today, ValidUntil: today.AddDate(1, 0, 0),
				FirstPurchaseOnly: true, CourseIDs: []string{"course-go"},
			},
		},
	}
	if err := pg.UpsertCatalog(ctx, pg.NewTxManager(pool), catalog); err != nil {
		logger.Fatal().Err(err).Msg("seed catalog")
	}
	fmt.Printf("seeded %d courses, %d lessons, %d coupons\n", len(catalog.Courses), len(catalog.Lessons), len(catalog.Coupons))

	auth := web.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	tok, err := auth.Mint("student-dev", web.RoleStudent)
	if err != nil {
		logger.Fatal().Err(err).Msg("mint token")
	}
	fmt.Printf("dev student token (user student-dev):\n%s\n", tok)
}
