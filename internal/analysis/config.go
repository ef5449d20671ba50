package analysis

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config points the analyzer at an OpenAI-compatible chat completions
// endpoint. An empty BaseURL disables clause review.
type Config struct {
	BaseURL           string  `toml:"base_url"`
	APIKey            string  `toml:"api_key"`
	Model             string  `toml:"model"`
	RequestsPerMinute int     `toml:"requests_per_minute"`
	Timeout           string  `toml:"timeout"`
	MaxTokens         int     `toml:"max_tokens"`
	Temperature       float64 `toml:"temperature"`
	MaxInputChars     int     `toml:"max_input_chars"`
	CacheTTL          string  `toml:"cache_ttl"`
	CacheSize         int     `toml:"cache_size"`
}

// Env maps config fields to environment variable names.
type Env struct {
	BaseURL           string
	APIKey            string
	Model             string
	RequestsPerMinute string
	Timeout           string
}

// Enabled reports whether an endpoint is configured.
func (c *Config) Enabled() bool {
	return c.BaseURL != ""
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// CacheTTLDuration returns CacheTTL as a time.Duration. Zero disables the
// result cache.
func (c *Config) CacheTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.CacheTTL)
	return d
}

// Finalize applies defaults, environment overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.RequestsPerMinute != 0 {
		c.RequestsPerMinute = overlay.RequestsPerMinute
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.MaxTokens != 0 {
		c.MaxTokens = overlay.MaxTokens
	}
	if overlay.Temperature != 0 {
		c.Temperature = overlay.Temperature
	}
	if overlay.MaxInputChars != 0 {
		c.MaxInputChars = overlay.MaxInputChars
	}
	if overlay.CacheTTL != "" {
		c.CacheTTL = overlay.CacheTTL
	}
	if overlay.CacheSize != 0 {
		c.CacheSize = overlay.CacheSize
	}
}

func (c *Config) loadDefaults() {
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.RequestsPerMinute == 0 {
		c.RequestsPerMinute = 30
	}
	if c.Timeout == "" {
		c.Timeout = "60s"
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 4096
	}
	if c.MaxInputChars == 0 {
		c.MaxInputChars = 60000
	}
	if c.CacheTTL == "" {
		c.CacheTTL = "1h"
	}
	if c.CacheSize == 0 {
		c.CacheSize = 100
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.BaseURL != "" {
		if v := os.Getenv(env.BaseURL); v != "" {
			c.BaseURL = v
		}
	}
	if env.APIKey != "" {
		if v := os.Getenv(env.APIKey); v != "" {
			c.APIKey = v
		}
	}
	if env.Model != "" {
		if v := os.Getenv(env.Model); v != "" {
			c.Model = v
		}
	}
	if env.RequestsPerMinute != "" {
		if v := os.Getenv(env.RequestsPerMinute); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.RequestsPerMinute = n
			}
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
}

func (c *Config) validate() error {
	if c.BaseURL != "" {
		if u, err := url.Parse(c.BaseURL); err != nil || u.Host == "" {
			return fmt.Errorf("invalid base_url: %q", c.BaseURL)
		}
	}
	if c.RequestsPerMinute < 1 {
		return fmt.Errorf("requests_per_minute must be positive")
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.CacheTTL); err != nil {
		return fmt.Errorf("invalid cache_ttl: %w", err)
	}
	return nil
}
