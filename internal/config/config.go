// Package config loads server settings from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the server.
type Config struct {
	Port              string
	DatabasePath      string
	JWTSecret         string
	BcryptCost        int
	CookieSecure      bool
	CORSAllowedOrigin string
	LogLevel          slog.Level

	// LoginRate is tokens per second added to each client's login bucket;
	// LoginBurst is the bucket size.
	LoginRate  float64
	LoginBurst float64
}

// Load reads .env when present and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromLookup(os.Getenv)
}

// FromLookup builds a Config from the given lookup, applying defaults and
// validating ranges.
func FromLookup(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Port:              get("PORT", "8080"),
		DatabasePath:      get("DATABASE_PATH", "coursetrack.db"),
		JWTSecret:         getenv("JWT_SECRET"),
		CORSAllowedOrigin: get("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),
		// Default to secure cookies; disable only for local development.
		CookieSecure: getenv("COOKIE_SECURE") != "false",
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET environment variable is required")
	}
	if len(cfg.JWTSecret) < 32 {
		return Config{}, errors.New("JWT_SECRET must be at least 32 characters for HMAC-SHA256 security")
	}

	cost, err := strconv.Atoi(get("BCRYPT_COST", "12"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}
	if cost < 4 || cost > 14 {
		return Config{}, fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", cost)
	}
	cfg.BcryptCost = cost

	if err := cfg.LogLevel.UnmarshalText([]byte(strings.ToUpper(get("LOG_LEVEL", "info")))); err != nil {
		return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if cfg.LoginRate, err = positiveFloat(get("LOGIN_RATE", "0.2"), "LOGIN_RATE"); err != nil {
		return Config{}, err
	}
	if cfg.LoginBurst, err = positiveFloat(get("LOGIN_BURST", "5"), "LOGIN_BURST"); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func positiveFloat(v, key string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if f <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", key, f)
	}
	return f, nil
}
