package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT / admin login
	JWTSecret         string
	AdminEmail        string
	AdminPasswordHash string

	// Slack
	SlackSigningSecret string
	SlackClientID      string
	SlackClientSecret  string

	// Google (Meet link creation)
	GoogleOAuthClientID     string
	GoogleOAuthClientSecret string
	GoogleRefreshToken      string
	GoogleRedirectURL       string

	// Poller
	PollIntervalSeconds int
	ReportingTimezone   string

	// Activity cache
	CacheTTLHours int

	// Workers
	WorkerCount int

	// Rate limiting (requests per minute per client IP)
	LoginRatePerMinute   int
	WebhookRatePerMinute int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		Env:         getEnvOrDefault("ENV", "development"),
		DatabaseURL: mustGetEnv("DATABASE_URL"),
		RedisURL:    mustGetEnv("REDIS_URL"),
		JWTSecret:   mustGetEnv("JWT_SECRET"),

		AdminEmail:        getEnvOrDefault("ADMIN_EMAIL", "admin@slackpulse.app"),
		AdminPasswordHash: mustGetEnv("ADMIN_PASSWORD_HASH"),

		SlackSigningSecret: mustGetEnv("SLACK_SIGNING_SECRET"),
		SlackClientID:      getEnvOrDefault("SLACK_CLIENT_ID", ""),
		SlackClientSecret:  getEnvOrDefault("SLACK_CLIENT_SECRET", ""),

		GoogleOAuthClientID:     getEnvOrDefault("GOOGLE_OAUTH_CLIENT_ID", ""),
		GoogleOAuthClientSecret: getEnvOrDefault("GOOGLE_OAUTH_CLIENT_SECRET", ""),
		GoogleRefreshToken:      getEnvOrDefault("GOOGLE_REFRESH_TOKEN", ""),
		GoogleRedirectURL:       getEnvOrDefault("GOOGLE_REDIRECT_URL", "http://localhost:8080/google/oauth/callback"),

		PollIntervalSeconds: getEnvAsIntOrDefault("POLL_INTERVAL_SECONDS", 60),
		ReportingTimezone:   getEnvOrDefault("REPORTING_TIMEZONE", "Local"),

		CacheTTLHours: getEnvAsIntOrDefault("ACTIVITY_CACHE_TTL_HOURS", 72),

		WorkerCount: getEnvAsIntOrDefault("WORKER_COUNT", 3),

		LoginRatePerMinute:   getEnvAsIntOrDefault("LOGIN_RATE_PER_MINUTE", 10),
		WebhookRatePerMinute: getEnvAsIntOrDefault("WEBHOOK_RATE_PER_MINUTE", 120),

		FrontendURL: getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

// Location resolves the reporting timezone. Day boundaries for activity
// derivation are computed in this zone.
func (c *Config) Location() *time.Location {
	if c.ReportingTimezone == "" || c.ReportingTimezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.ReportingTimezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
