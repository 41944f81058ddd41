// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// SchedulerConfig provides settings for the asynq background worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketPaymentEvidence() string
	GetMinioBucketAgreements() string
	IsMinIOEnabled() bool
}

// EmailConfig provides settings for notification e-mails.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUser() string
	GetSMTPPassword() string
	GetEmailFromAddress() string
	GetOpsEmailAddress() string
}

// OrchestrationConfig provides tuning knobs for event-driven reconciliation.
type OrchestrationConfig interface {
	GetTaskDebounceWindow() time.Duration
	GetReconcileRetryDelay() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env         string
	HTTPAddr    string
	DatabaseURL string

	JWTAccessSecret string

	CORSAllowAll bool
	CORSOrigins  []string

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int

	MinIOEndpoint         string
	MinIOAccessKey        string
	MinIOSecretKey        string
	MinIOUseSSL           bool
	MinIOMaxFileSize      int64
	BucketPaymentEvidence string
	BucketAgreements      string

	EmailEnabled     bool
	SMTPHost         string
	SMTPPort         int
	SMTPUser         string
	SMTPPassword     string
	EmailFromAddress string
	OpsEmailAddress  string

	TaskDebounceWindow  time.Duration
	ReconcileRetryDelay time.Duration
}

// Load reads configuration from the environment, loading .env first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:         getEnv("APP_ENV", "development"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTAccessSecret: os.Getenv("JWT_ACCESS_SECRET"),

		CORSAllowAll: getEnvBool("CORS_ALLOW_ALL", false),
		CORSOrigins:  splitCSV(os.Getenv("CORS_ORIGINS")),

		RedisURL:         os.Getenv("REDIS_URL"),
		RedisTLSInsecure: getEnvBool("REDIS_TLS_INSECURE", false),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency: getEnvInt("ASYNQ_CONCURRENCY", 10),

		MinIOEndpoint:         os.Getenv("MINIO_ENDPOINT"),
		MinIOAccessKey:        os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey:        os.Getenv("MINIO_SECRET_KEY"),
		MinIOUseSSL:           getEnvBool("MINIO_USE_SSL", false),
		MinIOMaxFileSize:      getEnvInt64("MINIO_MAX_FILE_SIZE", 25*1024*1024),
		BucketPaymentEvidence: getEnv("MINIO_BUCKET_PAYMENT_EVIDENCE", "payment-evidence"),
		BucketAgreements:      getEnv("MINIO_BUCKET_AGREEMENTS", "rental-agreements"),

		EmailEnabled:     getEnvBool("EMAIL_ENABLED", false),
		SMTPHost:         os.Getenv("SMTP_HOST"),
		SMTPPort:         getEnvInt("SMTP_PORT", 587),
		SMTPUser:         os.Getenv("SMTP_USER"),
		SMTPPassword:     os.Getenv("SMTP_PASSWORD"),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", "noreply@rentops.local"),
		OpsEmailAddress:  os.Getenv("OPS_EMAIL_ADDRESS"),

		TaskDebounceWindow:  getEnvDuration("TASK_DEBOUNCE_WINDOW", 1500*time.Millisecond),
		ReconcileRetryDelay: getEnvDuration("RECONCILE_RETRY_DELAY", 30*time.Second),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" && !strings.EqualFold(cfg.Env, "development") {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required outside development")
	}

	return cfg, nil
}

// =============================================================================
// Interface implementations
// =============================================================================

func (c *Config) GetDatabaseURL() string     { return c.DatabaseURL }
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

func (c *Config) GetRedisURL() string      { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

func (c *Config) GetMinIOEndpoint() string    { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string   { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string   { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool        { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64  { return c.MinIOMaxFileSize }
func (c *Config) IsMinIOEnabled() bool        { return c.MinIOEndpoint != "" }
func (c *Config) GetMinioBucketPaymentEvidence() string { return c.BucketPaymentEvidence }
func (c *Config) GetMinioBucketAgreements() string      { return c.BucketAgreements }

func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUser() string         { return c.SMTPUser }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) GetOpsEmailAddress() string  { return c.OpsEmailAddress }

func (c *Config) GetTaskDebounceWindow() time.Duration  { return c.TaskDebounceWindow }
func (c *Config) GetReconcileRetryDelay() time.Duration { return c.ReconcileRetryDelay }

// =============================================================================
// Helpers
// =============================================================================

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt64(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
