package main

import (
	"context"
	"database/sql"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"fundraiser/internal/infra"
	"fundraiser/internal/migrate"
)

func main() {
	_ = godotenv.Load()

	appEnv := os.Getenv("APP_ENV")
	logger := infra.NewLogger(appEnv, "migrate")

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal().Msg("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	migrations, err := migrate.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load migrations")
	}
	applied, err := migrate.Apply(ctx, db, migrations, logger)
	if err != nil {
		logger.Fatal().Err(err).Strs("applied", applied).Msg("migrate")
	}
	logger.Info().Int("applied", len(applied)).Int("known", len(migrations)).Msg("schema up to date")
}
