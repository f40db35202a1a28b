// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/tennisctl.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Config struct — populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Storage
	DataDir string

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Upstream tennis data API
	TennisAPIKey     string
	TennisAPIBaseURL string
	TennisAPIRPM     int // requests-per-minute budget for the client limiter

	// Schedule cache
	CacheEnabled bool
	CacheTTL     time.Duration

	// Pushover
	PushoverAppToken string

	// SMTP
	EmailHost     string
	EmailPort     int
	EmailUser     string
	EmailPassword string
	EmailFrom     string

	// Public base URL used in magic-link emails
	PublicBaseURL string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DataDir: envOr("DATA_DIR", "data"),

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		TennisAPIKey:     envOr("API_TENNIS_TOKEN", ""),
		TennisAPIBaseURL: envOr("API_TENNIS_BASE_URL", "https://api.api-tennis.com/tennis"),
		TennisAPIRPM:     envInt("API_TENNIS_RPM", 30),

		CacheEnabled: envBool("CACHE_ENABLED", true),
		CacheTTL:     time.Duration(envInt("CACHE_TTL_MINUTES", 60)) * time.Minute,

		PushoverAppToken: envOr("PUSHOVER_APP_TOKEN", ""),

		EmailHost:     envOr("EMAIL_HOST", "smtp.gmail.com"),
		EmailPort:     envInt("EMAIL_PORT", 587),
		EmailUser:     envOr("EMAIL_USER", ""),
		EmailPassword: envOr("EMAIL_PASSWORD", ""),
		EmailFrom:     envOr("EMAIL_FROM", envOr("EMAIL_USER", "")),

		PublicBaseURL: envOr("PUBLIC_BASE_URL", "http://localhost:3000"),
	}

	if cfg.DataDir == "" {
		return nil, fmt.Errorf("DATA_DIR must not be empty")
	}
	return cfg, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
