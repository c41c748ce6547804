// cmd/server/main.go
// This is the entry point for the Hockey League API server.
// The cmd/ folder holds executable binaries; internal/ holds the packages they are built
// from, which other projects cannot import.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/trentd187/hockey-league/internal/auth"
	"github.com/trentd187/hockey-league/internal/config"
	"github.com/trentd187/hockey-league/internal/database"
	"github.com/trentd187/hockey-league/internal/logger"
	"github.com/trentd187/hockey-league/internal/server"
)

// shutdownTimeout is how long in-flight requests get to finish after SIGINT/SIGTERM.
const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration from environment variables (and optionally a .env file).
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Connect(cfg.DBDriver, cfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}

	// Bring the schema up to date before serving, so handlers never see an old schema.
	if err := database.Migrate(db, cfg.DBDriver, cfg.MigrationsPath, cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	ctx := context.Background()
	if cfg.Seed {
		seeded, err := database.Seed(ctx, db)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		log.Infow("seed", "inserted", seeded)
	}

	denylist, closeDenylist, err := newDenylist(ctx, cfg, db, log)
	if err != nil {
		return err
	}
	defer closeDenylist()

	tokens := auth.NewService(auth.Config{
		Secret: cfg.JWTSecret,
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.JWTTTL,
	}, denylist)

	app := server.New(server.Deps{DB: db, Tokens: tokens, Log: log})

	// Stop accepting connections on SIGINT/SIGTERM and let in-flight requests finish.
	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Errorw("shutdown", "error", err)
		}
	}()

	log.Infow("starting server", "port", cfg.Port, "env", cfg.Env, "db_driver", cfg.DBDriver)
	return app.Listen(":" + cfg.Port)
}

// newDenylist picks where revoked tokens are remembered: Redis when REDIS_ADDR is set,
// otherwise the revoked_tokens table. The returned func releases the backend.
func newDenylist(ctx context.Context, cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger) (auth.Denylist, func(), error) {
	if cfg.RedisAddr == "" {
		log.Info("token denylist: database")
		return auth.NewGormDenylist(db), func() {}, nil
	}

	client, err := auth.NewRedisClient(ctx, auth.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, nil, err
	}
	log.Infow("token denylist: redis", "addr", cfg.RedisAddr)
	return auth.NewRedisDenylist(client), func() { _ = client.Close() }, nil
}
