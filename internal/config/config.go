// Package config loads all environment variables at startup.
// Every other package receives typed values; nothing reads os.Getenv directly.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// ErrMissingAPIKey is returned by Validate when RESEND_API_KEY is unset.
var ErrMissingAPIKey = errors.New("missing required env var: RESEND_API_KEY")

// Config is the fully-parsed application configuration.
type Config struct {
	// ── Server ────────────────────────────────────────────────────────────────
	Port            string        `env:"PORT" env-default:"8080"`
	Env             string        `env:"ENV" env-default:"development"` // "development" | "staging" | "production"
	AllowedOrigin   string        `env:"CORS_ALLOWED_ORIGIN" env-default:"*"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"20s"`

	// ── Resend ────────────────────────────────────────────────────────────────
	// ResendAPIKey is required, but a missing key does not stop the server.
	// Handlers answer 500 until it is set.
	ResendAPIKey    string        `env:"RESEND_API_KEY"`
	ResendBaseURL   string        `env:"RESEND_BASE_URL" env-default:"https://api.resend.com"`
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" env-default:"10s"`

	// ── Email identities ──────────────────────────────────────────────────────
	EmailFrom     string `env:"EMAIL_FROM" env-default:"AirShop <hello@airshop.works>"`
	EmailLeadsBcc string `env:"EMAIL_LEADS_BCC" env-default:"leads@airshop.works"`

	// ── Lists ─────────────────────────────────────────────────────────────────
	AudienceID     string `env:"RESEND_AUDIENCE_ID" env-default:"20235748-374c-4d2f-b560-e5cb88f183fe"`
	LeadsSegmentID string `env:"RESEND_LEADS_SEGMENT_ID" env-default:"20235748-374c-4d2f-b560-e5cb88f183fe"`

	// ── Downstream webhook ────────────────────────────────────────────────────
	// Optional. When empty no notification is sent after a lead signup.
	WebhookURL     string        `env:"AIRSHOP_WEBHOOK_URL"`
	WebhookTimeout time.Duration `env:"WEBHOOK_TIMEOUT" env-default:"5s"`
}

// Load reads all environment variables and returns the parsed Config.
// A .env file in the working directory is loaded first when present; real
// environment variables always take precedence over .env values.
//
// Load does not fail on a missing RESEND_API_KEY. Call Validate to check it.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		// godotenv.Load never overrides variables that are already set.
		_ = godotenv.Load(envFile)
	}

	var c Config
	if err := cleanenv.ReadEnv(&c); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	return &c, nil
}

// Validate reports configuration that makes the email handlers unusable.
func (c *Config) Validate() error {
	if c.ResendAPIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
