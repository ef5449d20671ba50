package notify

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Delivery drivers.
const (
	DriverLog  = "log"
	DriverSMTP = "smtp"
)

// Config selects and configures the notification sender.
type Config struct {
	Driver   string `toml:"driver"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	From     string `toml:"from"`
	Timeout  string `toml:"timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Driver   string
	Host     string
	Port     string
	Username string
	Password string
	From     string
	Timeout  string
}

// Addr returns the host:port of the SMTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Driver != "" {
		c.Driver = overlay.Driver
	}
	if overlay.Host != "" {
		c.Host = overlay.Host
	}
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	if overlay.Username != "" {
		c.Username = overlay.Username
	}
	if overlay.Password != "" {
		c.Password = overlay.Password
	}
	if overlay.From != "" {
		c.From = overlay.From
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *Config) loadDefaults() {
	if c.Driver == "" {
		c.Driver = DriverLog
	}
	if c.Port == 0 {
		c.Port = 587
	}
	if c.Timeout == "" {
		c.Timeout = "10s"
	}
}

func (c *Config) loadEnv(env *Env) {
	set := func(name string, dst *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	set(env.Driver, &c.Driver)
	set(env.Host, &c.Host)
	set(env.Username, &c.Username)
	set(env.Password, &c.Password)
	set(env.From, &c.From)
	set(env.Timeout, &c.Timeout)

	if env.Port != "" {
		if v := os.Getenv(env.Port); v != "" {
			if port, err := strconv.Atoi(v); err == nil {
				c.Port = port
			}
		}
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}

	switch c.Driver {
	case DriverLog:
		return nil
	case DriverSMTP:
		if c.Host == "" {
			return fmt.Errorf("host required for smtp driver")
		}
		if c.From == "" {
			return fmt.Errorf("from required for smtp driver")
		}
		if c.Port < 1 || c.Port > 65535 {
			return fmt.Errorf("invalid port: %d", c.Port)
		}
		return nil
	default:
		return fmt.Errorf("unknown driver: %s", c.Driver)
	}
}
