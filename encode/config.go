// Copyright 2025 MarketLounge
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package encode

import (
	"errors"
	"strings"
	"time"
)

// Config holds configuration for encoder providers.
type Config struct {
	// Host is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for a local OpenAI-compatible server
	Host string

	// Model is the embedding model identifier.
	// Example: "all-MiniLM-L6-v2", "text-embedding-3-small"
	Model string

	// Dimension is the expected embedding dimension. Vectors of any other
	// length are rejected at the storage boundary.
	// Default: 384
	Dimension int

	// MaxRetries is the maximum number of attempts per encoder call.
	// Default: 3
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff between retries.
	// Default: 500ms
	RetryDelay time.Duration

	// Timeout bounds a single encoder call. Past it the request degrades
	// to lexical-only rather than hanging.
	// Default: 5s
	Timeout time.Duration
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the embedding service host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithModel sets the embedding model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithDimension sets the expected embedding dimension.
func WithDimension(dim int) ConfigOption {
	return func(c *Config) {
		c.Dimension = dim
	}
}

// WithMaxRetries sets the retry budget for encoder calls.
func WithMaxRetries(n int) ConfigOption {
	return func(c *Config) {
		c.MaxRetries = n
	}
}

// WithRetryDelay sets the base backoff delay.
func WithRetryDelay(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.RetryDelay = d
	}
}

// WithTimeout sets the per-call encoder timeout.
func WithTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = d
	}
}

// DefaultConfig returns a Config with sensible defaults for a local
// OpenAI-compatible embedding service.
func DefaultConfig() *Config {
	return &Config{
		Host:       "http://localhost:11434/v1",
		Model:      "all-MiniLM-L6-v2",
		Dimension:  384,
		MaxRetries: 3,
		RetryDelay: 500 * time.Millisecond,
		Timeout:    5 * time.Second,
	}
}

// NewConfig creates a Config with defaults and applies the provided options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the host is in the canonical form expected by
// OpenAI-compatible APIs (Ollama, LocalAI, vLLM): a /v1 suffix.
func (c *Config) Normalize() {
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/") + "/v1"
	}
}

// Validate checks that the configuration is complete. It normalizes the
// configuration first.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Host == "" {
		return errors.New("encode config: Host is required")
	}
	if c.Model == "" {
		return errors.New("encode config: Model is required")
	}
	if c.Dimension <= 0 {
		return errors.New("encode config: Dimension must be positive")
	}
	if c.MaxRetries <= 0 {
		return errors.New("encode config: MaxRetries must be positive")
	}
	if c.RetryDelay <= 0 {
		return errors.New("encode config: RetryDelay must be positive")
	}
	if c.Timeout <= 0 {
		return errors.New("encode config: Timeout must be positive")
	}
	return nil
}
