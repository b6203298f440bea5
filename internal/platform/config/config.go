// Package config builds application configuration from the environment so
// main stays lean. A .env file is honored in development.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full application configuration.
type Config struct {
	Addr          string
	Env           string
	LogLevel      slog.Level
	JWTSigningKey string

	// SecureCookies switches the session cookie to its __Secure- prefixed
	// name and sets the Secure flag. Enabled automatically in production.
	SecureCookies bool
	SessionTTL    time.Duration

	DatabaseURL string
	Redis       RedisConfig
	S3          S3Config
	Email       EmailConfig

	// ActivityWebhookURL is the chat webhook batched activity messages are
	// posted to. Empty disables the notifier.
	ActivityWebhookURL string
}

// RedisConfig captures Redis connection settings.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// S3Config captures object storage settings.
type S3Config struct {
	Bucket   string
	Region   string
	Endpoint string
}

// EmailConfig captures the transactional email provider settings.
type EmailConfig struct {
	BaseURL string
	APIKey  string
	From    string

	// WebhookSecret authenticates inbound delivery-event webhooks. Empty
	// disables the endpoint.
	WebhookSecret string
}

// FromEnv builds a Config from environment variables, loading a .env file
// first when present.
func FromEnv() Config {
	_ = godotenv.Load()

	env := getenv("APP_ENV", "development")

	cfg := Config{
		Addr:          getenv("ADDR", ":8080"),
		Env:           env,
		LogLevel:      parseLevel(getenv("LOG_LEVEL", "info")),
		JWTSigningKey: getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		SecureCookies: env == "production" || os.Getenv("SECURE_COOKIES") == "true",
		SessionTTL:    getduration("SESSION_TTL", 7*24*time.Hour),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getint("REDIS_POOL_SIZE", 10),
			MinIdleConns: getint("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getduration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getduration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getduration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		S3: S3Config{
			Bucket:   os.Getenv("S3_BUCKET"),
			Region:   getenv("S3_REGION", "us-east-1"),
			Endpoint: os.Getenv("S3_ENDPOINT"),
		},
		Email: EmailConfig{
			BaseURL: getenv("EMAIL_API_URL", "https://api.resend.com"),
			APIKey:  os.Getenv("EMAIL_API_KEY"),
			From:    getenv("EMAIL_FROM", "init <onboarding@localhost>"),

			WebhookSecret: os.Getenv("EMAIL_WEBHOOK_SECRET"),
		},
		ActivityWebhookURL: os.Getenv("ACTIVITY_WEBHOOK_URL"),
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
