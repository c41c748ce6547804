// cmd/seed/main.go
// Seed inserts the fixture league (divisions, clubs, forwards) into the configured
// database. It migrates first, and does nothing if divisions already exist.
//
// Usage:
//
//	DATABASE_URL=postgres://... go run ./cmd/seed
//	DB_DRIVER=sqlite DATABASE_URL=./hockey.db go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/trentd187/hockey-league/internal/config"
	"github.com/trentd187/hockey-league/internal/database"
	"github.com/trentd187/hockey-league/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Connect(cfg.DBDriver, cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	if err := database.Migrate(db, cfg.DBDriver, cfg.MigrationsPath, cfg.DatabaseURL); err != nil {
		return err
	}

	inserted, err := database.Seed(context.Background(), db)
	if err != nil {
		return err
	}
	if !inserted {
		log.Info("divisions already present, nothing to seed")
		return nil
	}
	log.Info("seeded fixture league")
	return nil
}
