package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the full service configuration. Values are read from the
// environment once at startup and injected into constructors; business logic
// never reads the environment directly.
type Config struct {
	// Server settings
	Port        int
	Environment string

	// Database
	DatabaseURL string

	// Read/trigger API authentication
	APIKey string

	// Inbound webhook verification
	WebhookSecret string
	// StrictSignature makes the verifier reject every webhook until a secret
	// is configured. The default (false) skips verification so the engine can
	// run before secret provisioning completes.
	StrictSignature bool

	// Remote streaming platform
	StreamAPIBaseURL string
	StreamAPIToken   string
	StreamAPITimeout time.Duration

	// Retry policy for transition application
	Retry RetryConfig

	// Reconciliation sweep; zero disables the periodic loop
	SweepInterval time.Duration

	// Timeouts
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// RetryConfig holds the bounded exponential backoff policy.
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
}

// DefaultRetryConfig returns the default retry policy: 3 retries, 1s initial
// delay doubling up to a 10s cap.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: time.Second,
		Multiplier:   2,
		MaxDelay:     10 * time.Second,
	}
}

// Validate checks that retry policy values are usable.
func (c RetryConfig) Validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must be non-negative")
	}
	if c.InitialDelay <= 0 {
		return fmt.Errorf("initial delay must be greater than 0")
	}
	if c.Multiplier < 1 {
		return fmt.Errorf("multiplier must be at least 1")
	}
	if c.MaxDelay < c.InitialDelay {
		return fmt.Errorf("max delay must be at least the initial delay")
	}
	return nil
}

// Load loads the service configuration from environment variables.
func Load() (*Config, error) {
	retry := DefaultRetryConfig()
	retry.MaxRetries = getEnvInt("RETRY_MAX_RETRIES", retry.MaxRetries)
	retry.InitialDelay = getEnvDuration("RETRY_INITIAL_DELAY", retry.InitialDelay)
	retry.Multiplier = getEnvFloat("RETRY_MULTIPLIER", retry.Multiplier)
	retry.MaxDelay = getEnvDuration("RETRY_MAX_DELAY", retry.MaxDelay)

	cfg := &Config{
		Port:             getEnvInt("PORT", 8080),
		Environment:      getEnv("ENVIRONMENT", "development"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		APIKey:           getEnv("API_KEY", ""),
		WebhookSecret:    getEnv("WEBHOOK_SECRET", ""),
		StrictSignature:  getEnvBool("WEBHOOK_STRICT_SIGNATURE", false),
		StreamAPIBaseURL: getEnv("STREAM_API_BASE_URL", ""),
		StreamAPIToken:   getEnv("STREAM_API_TOKEN", ""),
		StreamAPITimeout: getEnvDuration("STREAM_API_TIMEOUT", 15*time.Second),
		Retry:            retry,
		SweepInterval:    getEnvDuration("SWEEP_INTERVAL", 0),
		ReadTimeout:      getEnvDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:     getEnvDuration("WRITE_TIMEOUT", 30*time.Second),
		ShutdownTimeout:  getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API_KEY is required")
	}
	if cfg.StreamAPIBaseURL == "" {
		return nil, fmt.Errorf("STREAM_API_BASE_URL is required")
	}
	if err := cfg.Retry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry policy: %w", err)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}
