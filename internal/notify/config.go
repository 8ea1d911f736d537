package notify

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds SMTP delivery settings for operational alerts.
type Config struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	From     string `toml:"from"`
	// Operator receives alerts that have no sales-rep recipient.
	Operator string `toml:"operator"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	Operator string
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
	if overlay.Operator != "" {
		c.Operator = overlay.Operator
	}
}

func (c *Config) loadDefaults() {
	if c.Port == 0 {
		c.Port = 587
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Host != "" {
		if v := os.Getenv(env.Host); v != "" {
			c.Host = v
		}
	}
	if env.Port != "" {
		if v := os.Getenv(env.Port); v != "" {
			if port, err := strconv.Atoi(v); err == nil {
				c.Port = port
			}
		}
	}
	if env.Username != "" {
		if v := os.Getenv(env.Username); v != "" {
			c.Username = v
		}
	}
	if env.Password != "" {
		if v := os.Getenv(env.Password); v != "" {
			c.Password = v
		}
	}
	if env.From != "" {
		if v := os.Getenv(env.From); v != "" {
			c.From = v
		}
	}
	if env.Operator != "" {
		if v := os.Getenv(env.Operator); v != "" {
			c.Operator = v
		}
	}
}

func (c *Config) validate() error {
	if c.Host == "" {
		return fmt.Errorf("host required")
	}
	if c.From == "" {
		return fmt.Errorf("from required")
	}
	if c.Operator == "" {
		return fmt.Errorf("operator required")
	}
	return nil
}
