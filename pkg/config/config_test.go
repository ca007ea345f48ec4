package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("MARKETO_IDENTITY_URI", "https://123-abc.mktorest.com")
	t.Setenv("MARKETO_CLIENT_ID", "client-id")
	t.Setenv("MARKETO_CLIENT_SECRET", "client-secret")
}

func TestLoad_defaults(t *testing.T) {
	setRequired(t)
	t.Setenv("MARKETO_MIN_INTERVAL_MS", "")
	t.Setenv("MARKETO_TIMEOUT_MS", "")
	t.Setenv("MARKETO_MAX_RETRIES", "")
	t.Setenv("MARKETO_RETRY_DELAY_MS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://123-abc.mktorest.com", cfg.IdentityBaseURI)
	assert.Equal(t, "client-id", cfg.ClientID)
	assert.Equal(t, "client-secret", cfg.ClientSecret)
	assert.Equal(t, DefaultMinInterval, cfg.MinInterval)
	assert.Equal(t, DefaultRequestTimeout, cfg.RequestTimeout)
	assert.Equal(t, DefaultMaxRetries, cfg.MaxRetries)
	assert.Equal(t, DefaultRetryDelay, cfg.RetryDelay)
}

func TestLoad_overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("MARKETO_REST_URI", "https://123-abc.mktorest.com/rest")
	t.Setenv("MARKETO_MIN_INTERVAL_MS", "1000")
	t.Setenv("MARKETO_TIMEOUT_MS", "5000")
	t.Setenv("MARKETO_MAX_RETRIES", "2")
	t.Setenv("MARKETO_RETRY_DELAY_MS", "250")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://123-abc.mktorest.com/rest", cfg.RestBaseURI)
	assert.Equal(t, time.Second, cfg.MinInterval)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryDelay)
}

func TestLoad_invalid_number(t *testing.T) {
	setRequired(t)
	t.Setenv("MARKETO_TIMEOUT_MS", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MARKETO_TIMEOUT_MS")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := Default()
		c.IdentityBaseURI = "https://id"
		c.ClientID = "id"
		c.ClientSecret = "secret"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing identity", func(c *Config) { c.IdentityBaseURI = "" }, "MARKETO_IDENTITY_URI is required"},
		{"missing client id", func(c *Config) { c.ClientID = "" }, "MARKETO_CLIENT_ID is required"},
		{"missing secret", func(c *Config) { c.ClientSecret = "" }, "MARKETO_CLIENT_SECRET is required"},
		{"negative interval", func(c *Config) { c.MinInterval = -time.Millisecond }, "MARKETO_MIN_INTERVAL_MS"},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, "MARKETO_MAX_RETRIES"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
