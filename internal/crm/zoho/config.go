package zoho

import (
	"fmt"
	"os"
)

// Config points the client at a Zoho CRM org.
type Config struct {
	BaseURL   string `toml:"base_url"`
	Principal string `toml:"principal"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	BaseURL   string
	Principal string
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
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Principal != "" {
		c.Principal = overlay.Principal
	}
}

func (c *Config) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://www.zohoapis.com/crm/v2"
	}
	if c.Principal == "" {
		c.Principal = "zoho"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.BaseURL != "" {
		if v := os.Getenv(env.BaseURL); v != "" {
			c.BaseURL = v
		}
	}
	if env.Principal != "" {
		if v := os.Getenv(env.Principal); v != "" {
			c.Principal = v
		}
	}
}

func (c *Config) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url required")
	}
	return nil
}
