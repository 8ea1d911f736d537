package pipedrive

import (
	"fmt"
	"os"
)

// Config points the client at a Pipedrive company domain.
type Config struct {
	BaseURL  string `toml:"base_url"`
	APIToken string `toml:"api_token"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	BaseURL  string
	APIToken string
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
	if overlay.APIToken != "" {
		c.APIToken = overlay.APIToken
	}
}

func (c *Config) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.pipedrive.com/v1"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.BaseURL != "" {
		if v := os.Getenv(env.BaseURL); v != "" {
			c.BaseURL = v
		}
	}
	if env.APIToken != "" {
		if v := os.Getenv(env.APIToken); v != "" {
			c.APIToken = v
		}
	}
}

func (c *Config) validate() error {
	if c.APIToken == "" {
		return fmt.Errorf("api_token required")
	}
	return nil
}
