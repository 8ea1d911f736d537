package fieldservice

import (
	"fmt"
	"os"
)

// Config points the client at a PestRoutes office subdomain.
type Config struct {
	BaseURL   string `toml:"base_url"`
	AuthToken string `toml:"auth_token"`
	AuthKey   string `toml:"auth_key"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	BaseURL   string
	AuthToken string
	AuthKey   string
}

// Finalize applies environment variable overrides and validation.
func (c *Config) Finalize(env *Env) error {
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
	if overlay.AuthToken != "" {
		c.AuthToken = overlay.AuthToken
	}
	if overlay.AuthKey != "" {
		c.AuthKey = overlay.AuthKey
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.BaseURL != "" {
		if v := os.Getenv(env.BaseURL); v != "" {
			c.BaseURL = v
		}
	}
	if env.AuthToken != "" {
		if v := os.Getenv(env.AuthToken); v != "" {
			c.AuthToken = v
		}
	}
	if env.AuthKey != "" {
		if v := os.Getenv(env.AuthKey); v != "" {
			c.AuthKey = v
		}
	}
}

func (c *Config) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url required")
	}
	if c.AuthToken == "" {
		return fmt.Errorf("auth_token required")
	}
	if c.AuthKey == "" {
		return fmt.Errorf("auth_key required")
	}
	return nil
}
