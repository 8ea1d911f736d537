package arcsite

import (
	"fmt"
	"os"
)

// Config points the client at an ArcSite org.
type Config struct {
	BaseURL string `toml:"base_url"`
	Token   string `toml:"token"`
	// Owner is the ArcSite account email that owns created projects.
	Owner string `toml:"owner"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	BaseURL string
	Token   string
	Owner   string
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
	if overlay.Token != "" {
		c.Token = overlay.Token
	}
	if overlay.Owner != "" {
		c.Owner = overlay.Owner
	}
}

func (c *Config) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.arcsite.com/v2"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.BaseURL != "" {
		if v := os.Getenv(env.BaseURL); v != "" {
			c.BaseURL = v
		}
	}
	if env.Token != "" {
		if v := os.Getenv(env.Token); v != "" {
			c.Token = v
		}
	}
	if env.Owner != "" {
		if v := os.Getenv(env.Owner); v != "" {
			c.Owner = v
		}
	}
}

func (c *Config) validate() error {
	if c.Token == "" {
		return fmt.Errorf("token required")
	}
	if c.Owner == "" {
		return fmt.Errorf("owner required")
	}
	return nil
}
