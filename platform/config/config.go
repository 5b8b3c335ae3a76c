// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"coachportal_backend/platform/timeutil"

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

// AuthConfig provides settings for the shared-secret API auth middleware.
type AuthConfig interface {
	GetPortalKeyHash() string
}

// SchedulerConfig provides settings for the asynq scheduler and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetReconcileSchedule() string
	GetDispatchSchedule() string
}

// MessagingConfig provides settings for the outbound text-message gateway.
type MessagingConfig interface {
	GetGatewayURL() string
	GetGatewayKey() string
	GetGatewayDeviceID() string
	GetOperatorPhone() string
	GetMessagingDryRun() bool
}

// RemindersConfig provides settings for the reminder scheduling engine.
type RemindersConfig interface {
	GetBusinessZone() *time.Location
	GetDispatchWindow() time.Duration
	GetDispatchBatchSize() int
	GetDispatchRatePerSecond() float64
	GetMarkUndeliverableSent() bool
	GetBackfillFollowUps() bool
	GetDeepLinkTemplate() string
	GetDeepLinkSecret() string
	GetStageThresholdOverrides() map[string]int
}

// EmailConfig provides settings for the operator digest email.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetOperatorEmail() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                     string
	HTTPAddr                string
	DatabaseURL             string
	PortalKeyHash           string
	CORSAllowAll            bool
	CORSOrigins             []string
	CORSAllowCreds          bool
	RedisURL                string
	RedisTLSInsecure        bool
	AsynqQueueName          string
	AsynqConcurrency        int
	ReconcileSchedule       string
	DispatchSchedule        string
	GatewayURL              string
	GatewayKey              string
	GatewayDeviceID         string
	OperatorPhone           string
	MessagingDryRun         bool
	BusinessUTCOffsetMin    int
	DispatchWindow          time.Duration
	DispatchBatchSize       int
	DispatchRatePerSecond   float64
	MarkUndeliverableSent   bool
	BackfillFollowUps       bool
	DeepLinkTemplate        string
	DeepLinkSecret          string
	StageThresholdOverrides map[string]int
	EmailEnabled            bool
	SMTPHost                string
	SMTPPort                int
	SMTPUsername            string
	SMTPPassword            string
	EmailFromName           string
	EmailFromAddress        string
	OperatorEmail           string

	businessZone *time.Location
}

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// AuthConfig implementation
func (c *Config) GetPortalKeyHash() string { return c.PortalKeyHash }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string          { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool    { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string    { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int     { return c.AsynqConcurrency }
func (c *Config) GetReconcileSchedule() string { return c.ReconcileSchedule }
func (c *Config) GetDispatchSchedule() string  { return c.DispatchSchedule }

// MessagingConfig implementation
func (c *Config) GetGatewayURL() string      { return c.GatewayURL }
func (c *Config) GetGatewayKey() string      { return c.GatewayKey }
func (c *Config) GetGatewayDeviceID() string { return c.GatewayDeviceID }
func (c *Config) GetOperatorPhone() string   { return c.OperatorPhone }
func (c *Config) GetMessagingDryRun() bool   { return c.MessagingDryRun }

// RemindersConfig implementation
func (c *Config) GetBusinessZone() *time.Location  { return c.businessZone }
func (c *Config) GetDispatchWindow() time.Duration { return c.DispatchWindow }
func (c *Config) GetDispatchBatchSize() int        { return c.DispatchBatchSize }
func (c *Config) GetDispatchRatePerSecond() float64 {
	return c.DispatchRatePerSecond
}
func (c *Config) GetMarkUndeliverableSent() bool { return c.MarkUndeliverableSent }
func (c *Config) GetBackfillFollowUps() bool     { return c.BackfillFollowUps }
func (c *Config) GetDeepLinkTemplate() string    { return c.DeepLinkTemplate }
func (c *Config) GetDeepLinkSecret() string      { return c.DeepLinkSecret }
func (c *Config) GetStageThresholdOverrides() map[string]int {
	return c.StageThresholdOverrides
}

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) GetOperatorEmail() string    { return c.OperatorEmail }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                     getEnv("APP_ENV", "development"),
		HTTPAddr:                getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		PortalKeyHash:           getEnv("PORTAL_KEY_HASH", ""),
		CORSAllowAll:            corsAllowAll,
		CORSOrigins:             corsOrigins,
		CORSAllowCreds:          strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:                getEnv("REDIS_URL", ""),
		RedisTLSInsecure:        strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:          getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:        int(mustInt64(getEnv("ASYNQ_CONCURRENCY", "10"))),
		ReconcileSchedule:       getEnv("REMINDER_RECONCILE_SCHEDULE", "@every 24h"),
		DispatchSchedule:        getEnv("REMINDER_DISPATCH_SCHEDULE", "@every 15m"),
		GatewayURL:              getEnv("SMS_GATEWAY_URL", ""),
		GatewayKey:              getEnv("SMS_GATEWAY_KEY", ""),
		GatewayDeviceID:         getEnv("SMS_GATEWAY_DEVICE_ID", ""),
		OperatorPhone:           getEnv("OPERATOR_PHONE", ""),
		MessagingDryRun:         strings.EqualFold(getEnv("SMS_DRY_RUN", "false"), "true"),
		BusinessUTCOffsetMin:    int(mustInt64(getEnv("BUSINESS_UTC_OFFSET_MINUTES", "-420"))),
		DispatchWindow:          mustDuration(getEnv("REMINDER_DISPATCH_WINDOW", "6h")),
		DispatchBatchSize:       int(mustInt64(getEnv("REMINDER_DISPATCH_BATCH", "50"))),
		DispatchRatePerSecond:   mustFloat(getEnv("REMINDER_DISPATCH_RATE", "1")),
		MarkUndeliverableSent:   strings.EqualFold(getEnv("REMINDER_MARK_UNDELIVERABLE_SENT", "true"), "true"),
		BackfillFollowUps:       strings.EqualFold(getEnv("REMINDER_BACKFILL_FOLLOWUPS", "false"), "true"),
		DeepLinkTemplate:        getEnv("DEEP_LINK_TEMPLATE", ""),
		DeepLinkSecret:          getEnv("DEEP_LINK_SECRET", ""),
		StageThresholdOverrides: parseThresholdOverrides(getEnv("STAGE_THRESHOLD_OVERRIDES", "")),
		EmailEnabled:            strings.EqualFold(getEnv("EMAIL_ENABLED", "false"), "true"),
		SMTPHost:                getEnv("SMTP_HOST", ""),
		SMTPPort:                int(mustInt64(getEnv("SMTP_PORT", "587"))),
		SMTPUsername:            getEnv("SMTP_USERNAME", ""),
		SMTPPassword:            getEnv("SMTP_PASSWORD", ""),
		EmailFromName:           getEnv("EMAIL_FROM_NAME", "Coach Portal"),
		EmailFromAddress:        getEnv("EMAIL_FROM_ADDRESS", ""),
		OperatorEmail:           getEnv("OPERATOR_EMAIL", ""),
	}

	cfg.businessZone = timeutil.FixedZone(cfg.BusinessUTCOffsetMin)

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.EmailEnabled && cfg.SMTPHost == "" {
		return nil, fmt.Errorf("SMTP_HOST is required when EMAIL_ENABLED is true")
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.DispatchWindow <= 0 {
		return nil, fmt.Errorf("REMINDER_DISPATCH_WINDOW must be a positive duration")
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

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
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

// parseThresholdOverrides parses "stage:days" pairs, e.g. "post_call:2,first_message:1".
func parseThresholdOverrides(value string) map[string]int {
	overrides := map[string]int{}
	for _, pair := range splitCSV(value) {
		stage, days, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(days))
		if err != nil || parsed < 0 {
			continue
		}
		overrides[strings.TrimSpace(stage)] = parsed
	}
	return overrides
}
