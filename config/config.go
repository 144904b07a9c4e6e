package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string
	LogLevel    string
	PublicURL   string

	// Storage configuration
	StorageBackend string
	RedisURL       string
	SQLitePath     string
	CatalogFile    string

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string
	PubNubUserID       string

	// Session configuration
	JWTSecret  string
	SessionTTL time.Duration

	// Google provider sign-in
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Limits
	MaxUploadBytes     int64
	RateLimitPerMinute int
	WizardIdleTTL      time.Duration

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

func LoadConfig() *Config {
	// .env is optional, real environment variables win
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		PublicURL:   strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:8090"), "/"),

		// Storage
		StorageBackend: getEnv("STORAGE_BACKEND", "memory"),
		RedisURL:       getEnv("REDIS_URL", "localhost:6379"),
		SQLitePath:     getEnv("SQLITE_PATH", "event_booking.db"),
		CatalogFile:    getEnv("CATALOG_FILE", ""),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),
		PubNubUserID:       getEnv("PUBNUB_USER_ID", "event-booking-server"),

		// Session
		JWTSecret:  getEnv("JWT_SECRET", "dev-secret-change-me"),
		SessionTTL: getEnvAsDuration("SESSION_TTL", "168h"),

		// Google
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8090/api/v1/auth/provider/callback"),

		// Limits
		MaxUploadBytes:     int64(getEnvAsInt("MAX_UPLOAD_BYTES", 5*1024*1024)),
		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 120),
		WizardIdleTTL:      getEnvAsDuration("WIZARD_IDLE_TTL", "30m"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
