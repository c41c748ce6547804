// Package config handles loading and validating runtime configuration for the Hockey League API.
// Configuration values (like the database URL and API port) are read from environment variables
// rather than being hardcoded, so the same binary runs in dev, staging and production with only
// the environment changed.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	// godotenv reads a .env file and loads its key=value pairs into the process environment.
	// Convenient in development; in production real env vars are used instead.
	"github.com/joho/godotenv"
	// viper reads the environment with typed getters (durations, ints, bools) and defaults.
	"github.com/spf13/viper"
)

// Supported values for the enumerated settings.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var validEnvs = []string{"development", "test", "staging", "production"}

// Config holds all runtime configuration values for the application.
type Config struct {
	Port string // The TCP port the HTTP server listens on (e.g., "8080")
	Env  string // "development", "test", "staging" or "production"

	DatabaseURL    string // Postgres URL, or a file path when DBDriver is sqlite
	DBDriver       string // "postgres" (default) or "sqlite"
	MigrationsPath string // golang-migrate source URL, e.g. "file://migrations"

	JWTSecret string        // HMAC key used to sign access tokens
	JWTIssuer string        // "iss" claim written into and required from tokens
	JWTTTL    time.Duration // Access token lifetime

	RedisAddr     string // Optional; when set, revoked tokens are tracked in Redis
	RedisPassword string
	RedisDB       int

	LogLevel  string // zap level: debug, info, warn, error
	LogFormat string // "console" or "json"

	Seed bool // Insert the fixture divisions/clubs/forwards at startup when the store is empty
}

// Load reads configuration from environment variables and returns a populated Config.
// It first tries to load a .env file for local development; a missing file is fine.
func Load() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("JWT_ISSUER", "hockey-api")
	v.SetDefault("JWT_TTL", "60m")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("SEED", false)

	return &Config{
		Port:           v.GetString("PORT"),
		Env:            v.GetString("ENV"),
		DatabaseURL:    v.GetString("DATABASE_URL"), // Required
		DBDriver:       strings.ToLower(v.GetString("DB_DRIVER")),
		MigrationsPath: v.GetString("MIGRATIONS_PATH"),
		JWTSecret:      v.GetString("JWT_SECRET"), // Required
		JWTIssuer:      v.GetString("JWT_ISSUER"),
		JWTTTL:         v.GetDuration("JWT_TTL"),
		RedisAddr:      v.GetString("REDIS_ADDR"),
		RedisPassword:  v.GetString("REDIS_PASSWORD"),
		RedisDB:        v.GetInt("REDIS_DB"),
		LogLevel:       strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:      strings.ToLower(v.GetString("LOG_FORMAT")),
		Seed:           v.GetBool("SEED"),
	}
}

// Validate reports the first setting that would stop the server from working.
// The error names the environment variable so it can be fixed without reading code.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if !slices.Contains(validEnvs, c.Env) {
		return fmt.Errorf("ENV must be one of %s, got %q", strings.Join(validEnvs, ", "), c.Env)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBDriver != DriverPostgres && c.DBDriver != DriverSQLite {
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.DBDriver)
	}
	if c.DBDriver == DriverPostgres && c.MigrationsPath == "" {
		return fmt.Errorf("MIGRATIONS_PATH is required for the postgres driver")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Env == "production" && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes in production")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be a positive duration, got %s", c.JWTTTL)
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be \"console\" or \"json\", got %q", c.LogFormat)
	}
	return nil
}
