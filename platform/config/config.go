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

// MirrorConfig provides settings for the optional lead_events mirror store.
type MirrorConfig interface {
	GetMirrorDatabaseURL() string
	GetClickHouseAddr() string
	GetClickHouseDatabase() string
	GetClickHouseUsername() string
	GetClickHousePassword() string
	IsMirrorEnabled() bool
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// EmailConfig provides settings for email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetBrevoAPIKey() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// SMTPConfig provides settings for direct SMTP delivery.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	IsSMTPEnabled() bool
}

// SiteConfig provides the public-facing details of the site owner.
type SiteConfig interface {
	GetSiteProfile() SiteProfile
	GetThankYouURL() string
	GetAdminEmail() string
}

// NotificationConfig provides settings for the notification dispatcher.
type NotificationConfig interface {
	SiteConfig
	GetNotifyTimeout() time.Duration
}

// AnalyticsConfig provides GA4 Measurement Protocol credentials.
type AnalyticsConfig interface {
	GetGA4MeasurementID() string
	GetGA4APISecret() string
	GetGA4Endpoint() string
}

// AIConfig provides chat completion provider settings.
type AIConfig interface {
	GetGeminiAPIKey() string
	GetGeminiModel() string
	GetOpenAIAPIKey() string
	GetOpenAIBaseURL() string
	GetOpenAIModel() string
}

// SchedulerConfig provides asynq/Redis settings for async notifications.
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
	IsMinIOEnabled() bool
}

// AssetsConfig provides the static asset source.
type AssetsConfig interface {
	MinIOConfig
	GetStaticDir() string
	GetStaticBucket() string
}

// LogConfig provides optional log file settings.
type LogConfig interface {
	GetLogFile() string
	GetLogMaxSizeMB() int
	GetLogMaxBackups() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                string
	HTTPAddr           string
	DatabaseURL        string
	MirrorDatabaseURL  string
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string
	CORSAllowAll       bool
	CORSOrigins        []string
	EmailEnabled       bool
	BrevoAPIKey        string
	EmailFromName      string
	EmailFromAddress   string
	SMTPHost           string
	SMTPPort           int
	SMTPUsername       string
	SMTPPassword       string
	AdminEmail         string
	ThankYouURL        string
	Site               SiteProfile
	GA4MeasurementID   string
	GA4APISecret       string
	GA4Endpoint        string
	GeminiAPIKey       string
	GeminiModel        string
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	OpenAIModel        string
	RedisURL           string
	RedisTLSInsecure   bool
	AsynqQueueName     string
	AsynqConcurrency   int
	MinIOEndpoint      string
	MinIOAccessKey     string
	MinIOSecretKey     string
	MinIOUseSSL        bool
	StaticDir          string
	StaticBucket       string
	LogFile            string
	LogMaxSizeMB       int
	LogMaxBackups      int
	NotifyTimeout      time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// MirrorConfig implementation
func (c *Config) GetMirrorDatabaseURL() string  { return c.MirrorDatabaseURL }
func (c *Config) GetClickHouseAddr() string     { return c.ClickHouseAddr }
func (c *Config) GetClickHouseDatabase() string { return c.ClickHouseDatabase }
func (c *Config) GetClickHouseUsername() string { return c.ClickHouseUsername }
func (c *Config) GetClickHousePassword() string { return c.ClickHousePassword }
func (c *Config) IsMirrorEnabled() bool {
	return c.MirrorDatabaseURL != "" || c.ClickHouseAddr != ""
}

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetBrevoAPIKey() string      { return c.BrevoAPIKey }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string     { return c.SMTPHost }
func (c *Config) GetSMTPPort() int        { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string { return c.SMTPPassword }
func (c *Config) IsSMTPEnabled() bool     { return c.SMTPHost != "" }

// SiteConfig implementation
func (c *Config) GetSiteProfile() SiteProfile { return c.Site }
func (c *Config) GetThankYouURL() string      { return c.ThankYouURL }
func (c *Config) GetAdminEmail() string       { return c.AdminEmail }

// NotificationConfig implementation
func (c *Config) GetNotifyTimeout() time.Duration { return c.NotifyTimeout }

// AnalyticsConfig implementation
func (c *Config) GetGA4MeasurementID() string { return c.GA4MeasurementID }
func (c *Config) GetGA4APISecret() string     { return c.GA4APISecret }
func (c *Config) GetGA4Endpoint() string      { return c.GA4Endpoint }

// AIConfig implementation
func (c *Config) GetGeminiAPIKey() string  { return c.GeminiAPIKey }
func (c *Config) GetGeminiModel() string   { return c.GeminiModel }
func (c *Config) GetOpenAIAPIKey() string  { return c.OpenAIAPIKey }
func (c *Config) GetOpenAIBaseURL() string { return c.OpenAIBaseURL }
func (c *Config) GetOpenAIModel() string   { return c.OpenAIModel }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string  { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool      { return c.MinIOUseSSL }
func (c *Config) IsMinIOEnabled() bool      { return c.MinIOEndpoint != "" }

// AssetsConfig implementation
func (c *Config) GetStaticDir() string    { return c.StaticDir }
func (c *Config) GetStaticBucket() string { return c.StaticBucket }

// LogConfig implementation
func (c *Config) GetLogFile() string    { return c.LogFile }
func (c *Config) GetLogMaxSizeMB() int  { return c.LogMaxSizeMB }
func (c *Config) GetLogMaxBackups() int { return c.LogMaxBackups }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "*"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) || len(corsOrigins) == 0 {
		corsAllowAll = true
	}

	site, err := LoadSiteProfile(getEnv("SITE_PROFILE_PATH", ""))
	if err != nil {
		return nil, err
	}
	if name := getEnv("SITE_NAME", ""); name != "" {
		site.Name = name
	}

	brevoAPIKey := getEnv("BREVO_API_KEY", "")
	smtpHost := getEnv("SMTP_HOST", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")

	cfg := &Config{
		Env:                getEnv("APP_ENV", "development"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		MirrorDatabaseURL:  getEnv("MIRROR_DATABASE_URL", ""),
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "default"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),
		CORSAllowAll:       corsAllowAll,
		CORSOrigins:        corsOrigins,
		EmailEnabled:       emailEnabled && (brevoAPIKey != "" || smtpHost != ""),
		BrevoAPIKey:        brevoAPIKey,
		EmailFromName:      getEnv("EMAIL_FROM_NAME", site.Name),
		EmailFromAddress:   firstNonEmpty(getEnv("FROM_ADDR", ""), getEnv("EMAIL_FROM_ADDRESS", ""), defaultFromAddress),
		SMTPHost:           smtpHost,
		SMTPPort:           mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:       getEnv("SMTP_USERNAME", ""),
		SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
		AdminEmail:         firstNonEmpty(getEnv("ADMIN_EMAIL", ""), getEnv("OWNER_EMAIL", ""), getEnv("TO_ADDR", ""), defaultAdminEmail),
		ThankYouURL:        getEnv("THANK_YOU_URL", "/thank-you"),
		Site:               site,
		GA4MeasurementID:   firstNonEmpty(getEnv("GA4_MEASUREMENT_ID", ""), defaultGA4MeasurementID),
		GA4APISecret:       firstNonEmpty(getEnv("GA4_API_SECRET", ""), getEnv("GA4_API", "")),
		GA4Endpoint:        getEnv("GA4_ENDPOINT", "https://www.google-analytics.com/mp/collect"),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-4o"),
		RedisURL:           getEnv("REDIS_URL", ""),
		RedisTLSInsecure:   strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:     getEnv("ASYNQ_QUEUE", "notifications"),
		AsynqConcurrency:   mustInt(getEnv("ASYNQ_CONCURRENCY", "5")),
		MinIOEndpoint:      getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:     getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:        strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		StaticDir:          getEnv("STATIC_DIR", ""),
		StaticBucket:       getEnv("STATIC_BUCKET", ""),
		LogFile:            getEnv("LOG_FILE", ""),
		LogMaxSizeMB:       mustInt(getEnv("LOG_MAX_SIZE_MB", "50")),
		LogMaxBackups:      mustInt(getEnv("LOG_MAX_BACKUPS", "5")),
		NotifyTimeout:      mustDuration(getEnv("NOTIFY_TIMEOUT", "15s")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.StaticBucket != "" && !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MINIO_ENDPOINT is required when STATIC_BUCKET is set")
	}

	return cfg, nil
}

const (
	defaultFromAddress      = "no-reply@dependablepainting.work"
	defaultAdminEmail       = "just-paint-it@dependablepainting.work"
	defaultGA4MeasurementID = "G-CLK9PTRD5N"
)

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
