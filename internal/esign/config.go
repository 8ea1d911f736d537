package esign

import "os"

// Config points the client at the e-signature provider.
type Config struct {
	BaseURL string `toml:"base_url"`
	// DefaultPrincipal is the service identity used when a sales rep has no
	// provisioned signing principal of their own.
	DefaultPrincipal string `toml:"default_principal"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	BaseURL          string
	DefaultPrincipal string
}

// Finalize applies defaults and environment variable overrides.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.DefaultPrincipal != "" {
		c.DefaultPrincipal = overlay.DefaultPrincipal
	}
}

func (c *Config) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://sign.zoho.com/api/v1"
	}
	if c.DefaultPrincipal == "" {
		c.DefaultPrincipal = "esign"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.BaseURL != "" {
		if v := os.Getenv(env.BaseURL); v != "" {
			c.BaseURL = v
		}
	}
	if env.DefaultPrincipal != "" {
		if v := os.Getenv(env.DefaultPrincipal); v != "" {
			c.DefaultPrincipal = v
		}
	}
}
