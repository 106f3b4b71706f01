package encode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 384, cfg.Dimension)
	assert.Equal(t, 3, cfg.MaxRetries)
}

func TestConfigOptions(t *testing.T) {
	cfg := NewConfig(
		WithHost("http://encoder.internal:8080"),
		WithModel("text-embedding-3-small"),
		WithDimension(1536),
		WithMaxRetries(5),
		WithRetryDelay(time.Second),
		WithTimeout(10*time.Second),
	)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://encoder.internal:8080/v1", cfg.Host)
	assert.Equal(t, "text-embedding-3-small", cfg.Model)
	assert.Equal(t, 1536, cfg.Dimension)
}

func TestConfigNormalize(t *testing.T) {
	t.Run("adds v1 suffix", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://localhost:11434"))
		cfg.Normalize()
		assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
	})

	t.Run("trailing slash", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://localhost:11434/"))
		cfg.Normalize()
		assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
	})

	t.Run("already canonical", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://localhost:11434/v1"))
		cfg.Normalize()
		assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty host", func(c *Config) { c.Host = "" }},
		{"empty model", func(c *Config) { c.Model = "" }},
		{"zero dimension", func(c *Config) { c.Dimension = 0 }},
		{"zero retries", func(c *Config) { c.MaxRetries = 0 }},
		{"zero retry delay", func(c *Config) { c.RetryDelay = 0 }},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
