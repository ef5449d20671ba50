package auth

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
)

// Config selects how bearer tokens are verified. With Enabled false every
// request runs as the anonymous identity.
type Config struct {
	Enabled    bool   `toml:"enabled"`
	IssuerURL  string `toml:"issuer_url"`
	Audience   string `toml:"audience"`
	JWKSURL    string `toml:"jwks_url"`
	RolesClaim string `toml:"roles_claim"`
}

// Env maps config fields to environment variable names.
type Env struct {
	Enabled    string
	IssuerURL  string
	Audience   string
	JWKSURL    string
	RolesClaim string
}

// Finalize applies defaults, environment overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites fields set in overlay. Enabled is always taken from the
// overlay when it is true.
func (c *Config) Merge(overlay *Config) {
	if overlay.Enabled {
		c.Enabled = true
	}
	if overlay.IssuerURL != "" {
		c.IssuerURL = overlay.IssuerURL
	}
	if overlay.Audience != "" {
		c.Audience = overlay.Audience
	}
	if overlay.JWKSURL != "" {
		c.JWKSURL = overlay.JWKSURL
	}
	if overlay.RolesClaim != "" {
		c.RolesClaim = overlay.RolesClaim
	}
}

func (c *Config) loadDefaults() {
	if c.RolesClaim == "" {
		c.RolesClaim = "roles"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Enabled != "" {
		if v := os.Getenv(env.Enabled); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.Enabled = b
			}
		}
	}
	if env.IssuerURL != "" {
		if v := os.Getenv(env.IssuerURL); v != "" {
			c.IssuerURL = v
		}
	}
	if env.Audience != "" {
		if v := os.Getenv(env.Audience); v != "" {
			c.Audience = v
		}
	}
	if env.JWKSURL != "" {
		if v := os.Getenv(env.JWKSURL); v != "" {
			c.JWKSURL = v
		}
	}
	if env.RolesClaim != "" {
		if v := os.Getenv(env.RolesClaim); v != "" {
			c.RolesClaim = v
		}
	}
}

func (c *Config) validate() error {
	if !c.Enabled {
		return nil
	}
	if c.IssuerURL == "" {
		return fmt.Errorf("issuer_url required when auth is enabled")
	}
	if c.Audience == "" {
		return fmt.Errorf("audience required when auth is enabled")
	}
	for name, raw := range map[string]string{"issuer_url": c.IssuerURL, "jwks_url": c.JWKSURL} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Host == "" {
			return fmt.Errorf("invalid %s: %q", name, raw)
		}
	}
	return nil
}
