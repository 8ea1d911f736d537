package webhooks

import (
	"fmt"
	"os"

	"github.com/atlaspest/salesbridge/pkg/formatting"
)

// Config holds per-sender webhook credentials. Each upstream system
// authenticates in its own style: shared-secret headers for Zoho and
// ArcSite, HTTP basic for Pipedrive and the reminder surface, and a query
// token for field-service callbacks.
type Config struct {
	ZohoSecret     string `toml:"zoho_secret"`
	ArcSiteSecret  string `toml:"arcsite_secret"`
	BasicUsername  string `toml:"basic_username"`
	BasicPassword  string `toml:"basic_password"`
	QueryToken     string `toml:"query_token"`
	MaxPayloadSize string `toml:"max_payload_size"`
}

// MaxPayloadSizeBytes returns the payload cap in bytes.
func (c *Config) MaxPayloadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxPayloadSize)
	if err != nil {
		return 1024 * 1024 // 1MB fallback
	}
	return size
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	ZohoSecret    string
	ArcSiteSecret string
	BasicUsername string
	BasicPassword string
	QueryToken    string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	if c.MaxPayloadSize == "" {
		c.MaxPayloadSize = "1MB"
	}
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.ZohoSecret != "" {
		c.ZohoSecret = overlay.ZohoSecret
	}
	if overlay.ArcSiteSecret != "" {
		c.ArcSiteSecret = overlay.ArcSiteSecret
	}
	if overlay.BasicUsername != "" {
		c.BasicUsername = overlay.BasicUsername
	}
	if overlay.BasicPassword != "" {
		c.BasicPassword = overlay.BasicPassword
	}
	if overlay.QueryToken != "" {
		c.QueryToken = overlay.QueryToken
	}
	if overlay.MaxPayloadSize != "" {
		c.MaxPayloadSize = overlay.MaxPayloadSize
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.ZohoSecret != "" {
		if v := os.Getenv(env.ZohoSecret); v != "" {
			c.ZohoSecret = v
		}
	}
	if env.ArcSiteSecret != "" {
		if v := os.Getenv(env.ArcSiteSecret); v != "" {
			c.ArcSiteSecret = v
		}
	}
	if env.BasicUsername != "" {
		if v := os.Getenv(env.BasicUsername); v != "" {
			c.BasicUsername = v
		}
	}
	if env.BasicPassword != "" {
		if v := os.Getenv(env.BasicPassword); v != "" {
			c.BasicPassword = v
		}
	}
	if env.QueryToken != "" {
		if v := os.Getenv(env.QueryToken); v != "" {
			c.QueryToken = v
		}
	}
}

func (c *Config) validate() error {
	if c.ZohoSecret == "" {
		return fmt.Errorf("zoho_secret required")
	}
	if c.ArcSiteSecret == "" {
		return fmt.Errorf("arcsite_secret required")
	}
	if c.BasicUsername == "" || c.BasicPassword == "" {
		return fmt.Errorf("basic credentials required")
	}
	if c.QueryToken == "" {
		return fmt.Errorf("query_token required")
	}
	return nil
}
