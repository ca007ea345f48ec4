package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultMinInterval    = 200 * time.Millisecond
	DefaultRequestTimeout = 60 * time.Second
	DefaultMaxRetries     = 7
	DefaultRetryDelay     = 20 * time.Second
)

type Config struct {
	IdentityBaseURI string
	RestBaseURI     string
	ClientID        string
	ClientSecret    string

	// MinInterval is the minimum spacing between two request starts.
	MinInterval    time.Duration
	RequestTimeout time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
}

// Default returns a Config with the tuning fields set to their defaults.
func Default() *Config {
	return &Config{
		MinInterval:    DefaultMinInterval,
		RequestTimeout: DefaultRequestTimeout,
		MaxRetries:     DefaultMaxRetries,
		RetryDelay:     DefaultRetryDelay,
	}
}

func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := Default()
	cfg.IdentityBaseURI = os.Getenv("MARKETO_IDENTITY_URI")
	cfg.RestBaseURI = os.Getenv("MARKETO_REST_URI")
	cfg.ClientID = os.Getenv("MARKETO_CLIENT_ID")
	cfg.ClientSecret = os.Getenv("MARKETO_CLIENT_SECRET")

	var err error
	if cfg.MinInterval, err = envMillis("MARKETO_MIN_INTERVAL_MS", cfg.MinInterval); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = envMillis("MARKETO_TIMEOUT_MS", cfg.RequestTimeout); err != nil {
		return nil, err
	}
	if cfg.RetryDelay, err = envMillis("MARKETO_RETRY_DELAY_MS", cfg.RetryDelay); err != nil {
		return nil, err
	}
	if v := os.Getenv("MARKETO_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("MARKETO_MAX_RETRIES must be an integer: %w", err)
		}
		cfg.MaxRetries = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.IdentityBaseURI == "" {
		return fmt.Errorf("MARKETO_IDENTITY_URI is required")
	}
	if c.ClientID == "" {
		return fmt.Errorf("MARKETO_CLIENT_ID is required")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("MARKETO_CLIENT_SECRET is required")
	}
	if c.MinInterval < 0 {
		return fmt.Errorf("MARKETO_MIN_INTERVAL_MS must not be negative")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("MARKETO_TIMEOUT_MS must not be negative")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("MARKETO_MAX_RETRIES must not be negative")
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("MARKETO_RETRY_DELAY_MS must not be negative")
	}
	// RestBaseURI is optional; absolute targets don't need it
	return nil
}

func envMillis(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer number of milliseconds: %w", key, err)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
