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

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketComplaintImages() string
	IsMinIOEnabled() bool
}

// WhatsAppConfig provides settings for the WhatsApp Cloud API.
type WhatsAppConfig interface {
	GetWhatsAppGraphURL() string
	GetWhatsAppAccessToken() string
	GetWhatsAppPhoneNumberID() string
	GetWhatsAppVerifyToken() string
	GetWhatsAppAppSecret() string
}

// AIConfig provides settings for the generative, vision and speech collaborators.
type AIConfig interface {
	GetLLMProvider() string
	GetGeminiAPIKey() string
	GetGeminiModel() string
	GetGeminiVisionModel() string
	GetOpenAIAPIKey() string
	GetOpenAIBaseURL() string
	GetOpenAIModel() string
	IsAIEnabled() bool
}

// SchedulerConfig provides settings for the asynq background queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// SessionConfig provides settings for conversation session storage.
type SessionConfig interface {
	GetRedisURL() string
	GetSessionTTL() time.Duration
	GetSessionLockTTL() time.Duration
}

// EmailConfig provides settings for SMTP department notifications.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetDepartmentDirectoryPath() string
}

// IntakeConfig provides settings for the complaint intake conversation.
type IntakeConfig interface {
	GetCollaboratorTimeout() time.Duration
	GetMediaTimeout() time.Duration
	GetDefaultRegion() string
	GetInboundRatePerMinute() int
	GetInlineWorkers() int
}

// TrackingConfig provides settings for signed complaint tracking links.
type TrackingConfig interface {
	GetTrackingSecret() string
	GetTrackingTTL() time.Duration
	GetPublicBaseURL() string
	IsTrackingEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                        string
	HTTPAddr                   string
	DatabaseURL                string
	CORSAllowAll               bool
	CORSOrigins                []string
	CORSAllowCreds             bool
	PublicBaseURL              string
	MinIOEndpoint              string
	MinIOAccessKey             string
	MinIOSecretKey             string
	MinIOUseSSL                bool
	MinIOMaxFileSize           int64
	MinioBucketComplaintImages string
	WhatsAppGraphURL           string
	WhatsAppAccessToken        string
	WhatsAppPhoneNumberID      string
	WhatsAppVerifyToken        string
	WhatsAppAppSecret          string
	LLMProvider                string
	GeminiAPIKey               string
	GeminiModel                string
	GeminiVisionModel          string
	OpenAIAPIKey               string
	OpenAIBaseURL              string
	OpenAIModel                string
	RedisURL                   string
	RedisTLSInsecure           bool
	AsynqQueueName             string
	AsynqConcurrency           int
	SessionTTL                 time.Duration
	SessionLockTTL             time.Duration
	EmailEnabled               bool
	SMTPHost                   string
	SMTPPort                   int
	SMTPUsername               string
	SMTPPassword               string
	EmailFromName              string
	EmailFromAddress           string
	DepartmentDirectoryPath    string
	CollaboratorTimeout        time.Duration
	MediaTimeout               time.Duration
	DefaultRegion              string
	InboundRatePerMinute       int
	InlineWorkers              int
	TrackingSecret             string
	TrackingTTL                time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string   { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string  { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string  { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool       { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64 { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketComplaintImages() string {
	return c.MinioBucketComplaintImages
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

// WhatsAppConfig implementation
func (c *Config) GetWhatsAppGraphURL() string      { return c.WhatsAppGraphURL }
func (c *Config) GetWhatsAppAccessToken() string   { return c.WhatsAppAccessToken }
func (c *Config) GetWhatsAppPhoneNumberID() string { return c.WhatsAppPhoneNumberID }
func (c *Config) GetWhatsAppVerifyToken() string   { return c.WhatsAppVerifyToken }
func (c *Config) GetWhatsAppAppSecret() string     { return c.WhatsAppAppSecret }

// AIConfig implementation
func (c *Config) GetLLMProvider() string       { return c.LLMProvider }
func (c *Config) GetGeminiAPIKey() string      { return c.GeminiAPIKey }
func (c *Config) GetGeminiModel() string       { return c.GeminiModel }
func (c *Config) GetGeminiVisionModel() string { return c.GeminiVisionModel }
func (c *Config) GetOpenAIAPIKey() string      { return c.OpenAIAPIKey }
func (c *Config) GetOpenAIBaseURL() string     { return c.OpenAIBaseURL }
func (c *Config) GetOpenAIModel() string       { return c.OpenAIModel }
func (c *Config) IsAIEnabled() bool {
	if c.LLMProvider == ProviderOpenAI {
		return c.OpenAIAPIKey != ""
	}
	return c.GeminiAPIKey != ""
}

// SchedulerConfig and SessionConfig implementation
func (c *Config) GetRedisURL() string              { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool        { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string        { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int         { return c.AsynqConcurrency }
func (c *Config) GetSessionTTL() time.Duration     { return c.SessionTTL }
func (c *Config) GetSessionLockTTL() time.Duration { return c.SessionLockTTL }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool              { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string                { return c.SMTPHost }
func (c *Config) GetSMTPPort() int                   { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string            { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string            { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string           { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string        { return c.EmailFromAddress }
func (c *Config) GetDepartmentDirectoryPath() string { return c.DepartmentDirectoryPath }

// IntakeConfig implementation
func (c *Config) GetCollaboratorTimeout() time.Duration { return c.CollaboratorTimeout }
func (c *Config) GetMediaTimeout() time.Duration        { return c.MediaTimeout }
func (c *Config) GetDefaultRegion() string              { return c.DefaultRegion }
func (c *Config) GetInboundRatePerMinute() int          { return c.InboundRatePerMinute }
func (c *Config) GetInlineWorkers() int                 { return c.InlineWorkers }

// TrackingConfig implementation
func (c *Config) GetTrackingSecret() string     { return c.TrackingSecret }
func (c *Config) GetTrackingTTL() time.Duration { return c.TrackingTTL }
func (c *Config) GetPublicBaseURL() string      { return c.PublicBaseURL }
func (c *Config) IsTrackingEnabled() bool       { return c.TrackingSecret != "" }

// Supported LLM providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	smtpHost := getEnv("SMTP_HOST", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")

	cfg := &Config{
		Env:                        getEnv("APP_ENV", "development"),
		HTTPAddr:                   getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:                getEnv("DATABASE_URL", ""),
		CORSAllowAll:               corsAllowAll,
		CORSOrigins:                corsOrigins,
		CORSAllowCreds:             strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		PublicBaseURL:              strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		MinIOEndpoint:              getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:             getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:             getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:                strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:           mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "16777216")),
		MinioBucketComplaintImages: getEnv("MINIO_BUCKET_COMPLAINT_IMAGES", "complaint-images"),
		WhatsAppGraphURL:           strings.TrimRight(getEnv("WHATSAPP_GRAPH_URL", "https://graph.facebook.com/v18.0"), "/"),
		WhatsAppAccessToken:        getEnv("WHATSAPP_ACCESS_TOKEN", ""),
		WhatsAppPhoneNumberID:      getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		WhatsAppVerifyToken:        getEnv("WHATSAPP_VERIFY_TOKEN", ""),
		WhatsAppAppSecret:          getEnv("WHATSAPP_APP_SECRET", ""),
		LLMProvider:                strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini)),
		GeminiAPIKey:               getEnv("GEMINI_API_KEY", ""),
		GeminiModel:                getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiVisionModel:          getEnv("GEMINI_VISION_MODEL", "gemini-2.0-flash"),
		OpenAIAPIKey:               getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:              getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:                getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		RedisURL:                   getEnv("REDIS_URL", ""),
		RedisTLSInsecure:           strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:             getEnv("ASYNQ_QUEUE", "intake"),
		AsynqConcurrency:           mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		SessionTTL:                 mustDuration(getEnv("SESSION_TTL", "72h")),
		SessionLockTTL:             mustDuration(getEnv("SESSION_LOCK_TTL", "2m")),
		EmailEnabled:               emailEnabled && smtpHost != "",
		SMTPHost:                   smtpHost,
		SMTPPort:                   mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:               getEnv("SMTP_USERNAME", ""),
		SMTPPassword:               getEnv("SMTP_PASSWORD", ""),
		EmailFromName:              getEnv("EMAIL_FROM_NAME", "Civic Complaints"),
		EmailFromAddress:           getEnv("EMAIL_FROM_ADDRESS", ""),
		DepartmentDirectoryPath:    getEnv("DEPARTMENT_DIRECTORY", "configs/departments.yaml"),
		CollaboratorTimeout:        mustDuration(getEnv("INTAKE_COLLABORATOR_TIMEOUT", "20s")),
		MediaTimeout:               mustDuration(getEnv("INTAKE_MEDIA_TIMEOUT", "45s")),
		DefaultRegion:              strings.ToUpper(getEnv("PHONE_DEFAULT_REGION", "IN")),
		InboundRatePerMinute:       mustInt(getEnv("INBOUND_RATE_PER_MINUTE", "30")),
		InlineWorkers:              mustInt(getEnv("INLINE_WORKERS", "32")),
		TrackingSecret:             getEnv("TRACKING_SECRET", ""),
		TrackingTTL:                mustDuration(getEnv("TRACKING_TTL", "2160h")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.WhatsAppVerifyToken == "" {
		return nil, fmt.Errorf("WHATSAPP_VERIFY_TOKEN is required")
	}
	if cfg.LLMProvider != ProviderGemini && cfg.LLMProvider != ProviderOpenAI {
		return nil, fmt.Errorf("LLM_PROVIDER must be %q or %q", ProviderGemini, ProviderOpenAI)
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when SMTP_HOST is set")
	}
	if cfg.CollaboratorTimeout <= 0 {
		return nil, fmt.Errorf("INTAKE_COLLABORATOR_TIMEOUT must be a positive duration")
	}
	if cfg.MediaTimeout <= 0 {
		cfg.MediaTimeout = cfg.CollaboratorTimeout
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
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
