package openapi

import (
	"fmt"
	"os"
	"strings"
)

// Config holds the document metadata and the path it is served on.
type Config struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
	Path        string `toml:"path"`
}

// ConfigEnv names the environment variables that override Config fields.
type ConfigEnv struct {
	Title       string
	Description string
	Path        string
}

// Finalize applies defaults, environment overrides, and validation.
func (c *Config) Finalize(env *ConfigEnv) error {
	if c.Title == "" {
		c.Title = "Accord API"
	}
	if c.Description == "" {
		c.Description = "Document intake, risk review, approval, signing, and meeting scheduling."
	}
	if c.Path == "" {
		c.Path = "/openapi.json"
	}

	if env != nil {
		for name, dst := range map[string]*string{
			env.Title:       &c.Title,
			env.Description: &c.Description,
			env.Path:        &c.Path,
		} {
			if name == "" {
				continue
			}
			if v := os.Getenv(name); v != "" {
				*dst = v
			}
		}
	}

	if !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("path must start with /: %s", c.Path)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Title != "" {
		c.Title = overlay.Title
	}
	if overlay.Description != "" {
		c.Description = overlay.Description
	}
	if overlay.Path != "" {
		c.Path = overlay.Path
	}
}
