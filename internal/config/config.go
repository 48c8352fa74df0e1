package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config captures the runtime configuration for the friendgraph service.
type Config struct {
	AppPort         int
	DatabaseURL     string
	MigrationDir    string
	SeedDir         string
	LogLevel        string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	RateLimit       RateLimitConfig
}

// RateLimitConfig bounds how often a single caller may mutate friendships.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Burst    int
}

const devJWTSecret = "friendgraph-dev-secret"

// Load reads configuration from FRIENDGRAPH_* environment variables, falling
// back to defaults suitable for local development. Variables found in the
// env file (FRIENDGRAPH_ENV_FILE, default .env) fill in anything not already
// set in the process environment.
func Load() (Config, error) {
	if err := loadEnvFile(getString("FRIENDGRAPH_ENV_FILE", ".env")); err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppPort:         getInt("FRIENDGRAPH_PORT", 8080),
		DatabaseURL:     getString("FRIENDGRAPH_DATABASE_URL", "postgres://root@localhost:26257/friendgraph?sslmode=disable"),
		MigrationDir:    getString("FRIENDGRAPH_MIGRATIONS", "migrations"),
		SeedDir:         getString("FRIENDGRAPH_SEEDS", "seeds"),
		LogLevel:        getString("FRIENDGRAPH_LOG_LEVEL", "info"),
		JWTSecret:       getString("FRIENDGRAPH_JWT_SECRET", devJWTSecret),
		AccessTokenTTL:  getDuration("FRIENDGRAPH_ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getDuration("FRIENDGRAPH_REFRESH_TOKEN_TTL", 24*time.Hour),
		RateLimit: RateLimitConfig{
			Requests: getInt("FRIENDGRAPH_RATE_LIMIT_REQUESTS", 30),
			Window:   getDuration("FRIENDGRAPH_RATE_LIMIT_WINDOW", time.Minute),
			Burst:    getInt("FRIENDGRAPH_RATE_LIMIT_BURST", 10),
		},
	}

	if cfg.AppPort <= 0 || cfg.AppPort > 65535 {
		return Config{}, errors.New("FRIENDGRAPH_PORT must be between 1 and 65535")
	}
	if len(cfg.JWTSecret) < 16 {
		return Config{}, errors.New("FRIENDGRAPH_JWT_SECRET must be at least 16 bytes")
	}

	return cfg, nil
}

// UsesDevSecret reports whether tokens are signed with the built-in development key.
func (c Config) UsesDevSecret() bool {
	return c.JWTSecret == devJWTSecret
}

// loadEnvFile applies path to the process environment. A missing file is not
// an error.
func loadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
