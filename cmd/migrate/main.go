package main

import (
	"flag"
	"os"

	"github.com/rs/zerolog"

	"course-purchase/internal/config"
	pg "course-purchase/internal/infra/db/postgres"
	"course-purchase/internal/infra/logging"
)

// usage: migrate -config config.yaml [-down N]
func main() {
	down := flag.Int("down", 0, "roll back N migrations instead of migrating up")
	cfg, err := config.LoadConfig()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("config")
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	if *down > 0 {
		if err := pg.MigrateDown(cfg.Database.URL, *down); err != nil {
			logger.Fatal().Err(err).Msg("migrate down")
		}
		logger.Info().Int("steps", *down).Msg("rolled back")
		return
	}
	v, err := pg.MigrateUp(cfg.Database.URL)
	if err != nil {
		logger.Fatal().Err(err).Msg("migrate up")
	}
	logger.Info().Uint("version", v).Msg("migrated")
}
