package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Captcha       CaptchaConfig
	Telegram      TelegramConfig
	Submission    SubmissionConfig
	Logging       LoggingConfig
	Observability ObservabilityConfig
	Profiling     ProfilingConfig
}

type ServerConfig struct {
	Port           string
	GinMode        string
	AppEnv         string
	StaticDir      string
	AllowedOrigins []string
}

// Captcha modes
const (
	CaptchaDisabled  = "disabled"
	CaptchaTurnstile = "turnstile"
	CaptchaHCaptcha  = "hcaptcha"
)

type CaptchaConfig struct {
	Mode             string
	TurnstileSecret  string
	TurnstileSiteKey string
	HCaptchaSecret   string
	HCaptchaSiteKey  string
}

// Secret returns the server-held provider secret for the configured mode.
func (c CaptchaConfig) Secret() string {
	switch c.Mode {
	case CaptchaTurnstile:
		return c.TurnstileSecret
	case CaptchaHCaptcha:
		return c.HCaptchaSecret
	default:
		return ""
	}
}

// SiteKey returns the public site key for the configured mode, or empty.
func (c CaptchaConfig) SiteKey() string {
	switch c.Mode {
	case CaptchaTurnstile:
		return c.TurnstileSiteKey
	case CaptchaHCaptcha:
		return c.HCaptchaSiteKey
	default:
		return ""
	}
}

type TelegramConfig struct {
	BotToken  string
	ChannelID string
}

type SubmissionConfig struct {
	SigningSecret       string
	MaxAttachmentSizeMB int
	RateLimitMinutes    int
	BannedTerms         []string
}

// MaxAttachmentBytes returns the attachment size ceiling in bytes.
func (c SubmissionConfig) MaxAttachmentBytes() int64 {
	return int64(c.MaxAttachmentSizeMB) * 1024 * 1024
}

// RateLimitWindow returns the minimum pause between accepted submissions.
func (c SubmissionConfig) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitMinutes) * time.Minute
}

type LoggingConfig struct {
	Level string
	Dir   string
}

type ObservabilityConfig struct {
	OTLPEndpoint   string
	ServiceName    string
	ServiceVersion string
}

type ProfilingConfig struct {
	Enabled               bool
	Endpoint              string
	SampleTypes           string
	UploadIntervalSeconds int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("STATIC_DIR", "/app/static")
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("CAPTCHA_MODE", CaptchaTurnstile)
	v.SetDefault("MAX_ATTACHMENT_SIZE_MB", 10)
	v.SetDefault("RATE_LIMIT_MINUTES", 1)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DIR", "/app/logs")
	v.SetDefault("O11Y_SERVICE_NAME", "cupost-api")
	v.SetDefault("O11Y_SERVICE_VERSION", "1.0.0")
	v.SetDefault("O11Y_PROFILING_ENABLED", false)
	v.SetDefault("O11Y_PROFILING_SAMPLE_TYPES", "cpu,alloc_space,alloc_objects,goroutines,mutex,block")
	v.SetDefault("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS", 15)

	// Automatically read environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	_ = v.ReadInConfig() //nolint:errcheck // Ignore error if .env file doesn't exist

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			GinMode:        v.GetString("GIN_MODE"),
			AppEnv:         v.GetString("APP_ENV"),
			StaticDir:      v.GetString("STATIC_DIR"),
			AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
		},
		Captcha: CaptchaConfig{
			Mode:             strings.ToLower(v.GetString("CAPTCHA_MODE")),
			TurnstileSecret:  v.GetString("TURNSTILE_SECRET"),
			TurnstileSiteKey: v.GetString("TURNSTILE_SITE_KEY"),
			HCaptchaSecret:   v.GetString("HCAPTCHA_SECRET"),
			HCaptchaSiteKey:  v.GetString("HCAPTCHA_SITE_KEY"),
		},
		Telegram: TelegramConfig{
			BotToken:  v.GetString("TELEGRAM_BOT_TOKEN"),
			ChannelID: v.GetString("TELEGRAM_CHANNEL_ID"),
		},
		Submission: SubmissionConfig{
			SigningSecret:       v.GetString("SIGNING_SECRET"),
			MaxAttachmentSizeMB: v.GetInt("MAX_ATTACHMENT_SIZE_MB"),
			RateLimitMinutes:    v.GetInt("RATE_LIMIT_MINUTES"),
			BannedTerms:         splitList(v.GetString("BANNED_TERMS")),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
			Dir:   v.GetString("LOG_DIR"),
		},
		Observability: ObservabilityConfig{
			OTLPEndpoint:   v.GetString("O11Y_EXPORTER_ENDPOINT"),
			ServiceName:    v.GetString("O11Y_SERVICE_NAME"),
			ServiceVersion: v.GetString("O11Y_SERVICE_VERSION"),
		},
		Profiling: ProfilingConfig{
			Enabled:               v.GetBool("O11Y_PROFILING_ENABLED"),
			Endpoint:              v.GetString("O11Y_PROFILING_ENDPOINT"),
			SampleTypes:           v.GetString("O11Y_PROFILING_SAMPLE_TYPES"),
			UploadIntervalSeconds: v.GetInt("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS"),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// splitList parses a comma-separated env value into trimmed items.
func splitList(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if c.Telegram.ChannelID == "" {
		return fmt.Errorf("TELEGRAM_CHANNEL_ID is required")
	}
	if c.Submission.SigningSecret == "" {
		return fmt.Errorf("SIGNING_SECRET is required")
	}
	if c.Submission.MaxAttachmentSizeMB <= 0 {
		return fmt.Errorf("MAX_ATTACHMENT_SIZE_MB must be positive")
	}
	if c.Submission.RateLimitMinutes < 0 {
		return fmt.Errorf("RATE_LIMIT_MINUTES must not be negative")
	}

	switch c.Captcha.Mode {
	case CaptchaDisabled:
	case CaptchaTurnstile:
		if c.Captcha.TurnstileSecret == "" {
			return fmt.Errorf("TURNSTILE_SECRET is required when CAPTCHA_MODE is turnstile")
		}
	case CaptchaHCaptcha:
		if c.Captcha.HCaptchaSecret == "" {
			return fmt.Errorf("HCAPTCHA_SECRET is required when CAPTCHA_MODE is hcaptcha")
		}
	default:
		return fmt.Errorf("unsupported CAPTCHA_MODE %q", c.Captcha.Mode)
	}

	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if len(c.Server.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_ORIGINS is required")
	}

	if c.Profiling.Enabled && c.Profiling.Endpoint == "" {
		return fmt.Errorf("O11Y_PROFILING_ENDPOINT is required when profiling is enabled")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.GinMode == "debug"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.AppEnv == "production"
}
