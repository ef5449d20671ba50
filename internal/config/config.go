package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/accord/internal/analysis"
	"github.com/JaimeStill/accord/internal/auth"
	"github.com/JaimeStill/accord/internal/notify"
	"github.com/JaimeStill/accord/pkg/database"
	"github.com/JaimeStill/accord/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvAccordEnv             = "ACCORD_ENV"
	EnvAccordShutdownTimeout = "ACCORD_SHUTDOWN_TIMEOUT"
	EnvAccordVersion         = "ACCORD_VERSION"
)

var databaseEnv = &database.Env{
	URL:             "ACCORD_DB_URL",
	Host:            "ACCORD_DB_HOST",
	Port:            "ACCORD_DB_PORT",
	Name:            "ACCORD_DB_NAME",
	User:            "ACCORD_DB_USER",
	Password:        "ACCORD_DB_PASSWORD",
	SSLMode:         "ACCORD_DB_SSL_MODE",
	MaxOpenConns:    "ACCORD_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "ACCORD_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "ACCORD_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "ACCORD_DB_CONN_TIMEOUT",
	ApplicationName: "ACCORD_DB_APPLICATION_NAME",
}

var storageEnv = &storage.Env{
	ContainerName:    "ACCORD_STORAGE_CONTAINER_NAME",
	ConnectionString: "ACCORD_STORAGE_CONNECTION_STRING",
	ServiceURL:       "ACCORD_STORAGE_SERVICE_URL",
}

var authEnv = &auth.Env{
	Enabled:    "ACCORD_AUTH_ENABLED",
	IssuerURL:  "ACCORD_AUTH_ISSUER_URL",
	Audience:   "ACCORD_AUTH_AUDIENCE",
	JWKSURL:    "ACCORD_AUTH_JWKS_URL",
	RolesClaim: "ACCORD_AUTH_ROLES_CLAIM",
}

var analyzerEnv = &analysis.Env{
	BaseURL:           "ACCORD_ANALYZER_BASE_URL",
	APIKey:            "ACCORD_ANALYZER_API_KEY",
	Model:             "ACCORD_ANALYZER_MODEL",
	RequestsPerMinute: "ACCORD_ANALYZER_REQUESTS_PER_MINUTE",
	Timeout:           "ACCORD_ANALYZER_TIMEOUT",
}

var notifyEnv = &notify.Env{
	Driver:   "ACCORD_NOTIFY_DRIVER",
	Host:     "ACCORD_SMTP_HOST",
	Port:     "ACCORD_SMTP_PORT",
	Username: "ACCORD_SMTP_USERNAME",
	Password: "ACCORD_SMTP_PASSWORD",
	From:     "ACCORD_SMTP_FROM",
	Timeout:  "ACCORD_SMTP_TIMEOUT",
}

// Config is the root configuration for the accord service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	API             APIConfig       `toml:"api"`
	Auth            auth.Config     `toml:"auth"`
	Analyzer        analysis.Config `toml:"analyzer"`
	Notify          notify.Config   `toml:"notify"`
	Workflow        WorkflowConfig  `toml:"workflow"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the ACCORD_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvAccordEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Auth.Merge(&overlay.Auth)
	c.Analyzer.Merge(&overlay.Analyzer)
	c.Notify.Merge(&overlay.Notify)
	c.Workflow.Merge(&overlay.Workflow)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Analyzer.Finalize(analyzerEnv); err != nil {
		return fmt.Errorf("analyzer: %w", err)
	}
	if err := c.Notify.Finalize(notifyEnv); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	if err := c.Workflow.Finalize(); err != nil {
		return fmt.Errorf("workflow: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvAccordShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvAccordVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvAccordEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
